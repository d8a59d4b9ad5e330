package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prmpt-academy/prmpt-api/internal/events"
	"github.com/prmpt-academy/prmpt-api/internal/grading"
	"github.com/prmpt-academy/prmpt-api/internal/lesson"
	"github.com/prmpt-academy/prmpt-api/internal/metrics"
)

var (
	ErrNotFound = errors.New("level not found")
	ErrUpstream = errors.New("lesson store unavailable")
)

// Request carries every answer field; only the one matching the lesson's
// game type is read.
type Request struct {
	LevelID    int64    `json:"level_id"`
	UserPrompt *string  `json:"user_prompt,omitempty"`
	Selected   []int    `json:"selected,omitempty"`
	UserOrder  []int    `json:"user_order,omitempty"`
	Answers    []string `json:"answers,omitempty"`
}

type Response struct {
	grading.Verdict
	// EchoedOutput is the raw prompt, set for exact_match lessons only.
	EchoedOutput *string `json:"echoed_output"`
}

// LessonSource resolves published lessons. Unpublished or missing ids
// report lesson.ErrNotFound.
type LessonSource interface {
	GetPublished(ctx context.Context, id int64) (lesson.Lesson, error)
}

type Service struct {
	lessons LessonSource
	grader  grading.Grader
	events  events.Publisher
	lookup  *resilientLookup
	log     *slog.Logger
}

type Option func(*Service)

func WithGrader(g grading.Grader) Option { return func(s *Service) { s.grader = g } }

func WithPublisher(p events.Publisher) Option { return func(s *Service) { s.events = p } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

func WithResilience(cfg ResilienceConfig) Option {
	return func(s *Service) { s.lookup = newResilientLookup(cfg, s.log) }
}

func NewService(lessons LessonSource, opts ...Option) *Service {
	s := &Service{
		lessons: lessons,
		grader:  grading.NewDefaultGrader(),
		events:  events.Nop{},
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.lookup == nil {
		s.lookup = newResilientLookup(DefaultResilienceConfig(), s.log)
	}
	return s
}

// Judge loads the level and grades the submission against it. A missing or
// unpublished level is ErrNotFound; any other store failure is ErrUpstream.
// Grading problems come back as a failing verdict, never as an error.
func (s *Service) Judge(ctx context.Context, userID string, req Request) (Response, error) {
	start := time.Now()

	l, found, err := s.lookup.get(ctx, func(ctx context.Context) (lesson.Lesson, bool, error) {
		l, err := s.lessons.GetPublished(ctx, req.LevelID)
		if errors.Is(err, lesson.ErrNotFound) {
			return lesson.Lesson{}, false, nil
		}
		return l, err == nil, err
	})
	if err != nil {
		metrics.LessonLookupFailures.Inc()
		s.log.ErrorContext(ctx, "lesson lookup failed", "level_id", req.LevelID, "err", err)
		return Response{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if !found {
		return Response{}, fmt.Errorf("%w: %d", ErrNotFound, req.LevelID)
	}

	cfg := l.Config
	if cfg == nil && !l.GameType.Known() {
		cfg = grading.RawConfig{Type: l.GameType}
	}
	v := s.grader.Grade(cfg, submissionFor(l.GameType, req))

	resp := Response{Verdict: v}
	if l.GameType == grading.GameExactMatch {
		text := ""
		if req.UserPrompt != nil {
			text = *req.UserPrompt
		}
		resp.EchoedOutput = &text
	}

	metrics.Verdicts.WithLabelValues(string(l.GameType), metrics.Outcome(v.Success, v.Score)).Inc()
	metrics.JudgeDuration.WithLabelValues(string(l.GameType)).Observe(time.Since(start).Seconds())
	s.publish(ctx, userID, l, v)
	return resp, nil
}

// submissionFor picks the request field that matches the game type. An
// absent field becomes that type's empty input.
func submissionFor(gt grading.GameType, req Request) grading.Submission {
	switch gt {
	case grading.GameFillBlank:
		return grading.BlanksSubmission{Answers: req.Answers}
	case grading.GameMultipleChoice:
		return grading.ChoiceSubmission{Selected: req.Selected}
	case grading.GameReorder:
		return grading.OrderSubmission{Order: req.UserOrder}
	default:
		text := ""
		if req.UserPrompt != nil {
			text = *req.UserPrompt
		}
		return grading.TextSubmission{Text: text}
	}
}

func (s *Service) publish(ctx context.Context, userID string, l lesson.Lesson, v grading.Verdict) {
	e, err := events.New(events.TypeSubmissionJudged, userID, events.SubmissionJudged{
		UserID:   userID,
		LevelID:  l.ID,
		GameType: string(l.GameType),
		Success:  v.Success,
		Score:    v.Score,
	})
	if err == nil {
		err = s.events.Publish(ctx, e)
	}
	if err != nil {
		s.log.WarnContext(ctx, "publish judged event", "level_id", l.ID, "err", err)
	}
}
