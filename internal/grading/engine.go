package grading

import "fmt"

// Verdict is the outcome of judging a single submission.
type Verdict struct {
	Success  bool   `json:"success"`
	Feedback string `json:"feedback"`
	Score    int    `json:"score"` // 0..100
}

func pass(feedback string) Verdict { return Verdict{Success: true, Feedback: feedback, Score: 100} }
func fail(feedback string) Verdict { return Verdict{Feedback: feedback} }

// Submission is the learner's answer, typed by the game it was made for.
type Submission interface {
	GameType() GameType
}

type TextSubmission struct{ Text string }

func (TextSubmission) GameType() GameType { return GameExactMatch }

type BlanksSubmission struct{ Answers []string }

func (BlanksSubmission) GameType() GameType { return GameFillBlank }

type ChoiceSubmission struct{ Selected []int }

func (ChoiceSubmission) GameType() GameType { return GameMultipleChoice }

type OrderSubmission struct{ Order []int }

func (OrderSubmission) GameType() GameType { return GameReorder }

// Strategy judges one game type.
type Strategy interface {
	Grade(cfg Config, sub Submission) Verdict
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(cfg Config, sub Submission) Verdict

func (f StrategyFunc) Grade(cfg Config, sub Submission) Verdict { return f(cfg, sub) }

const FeedbackInvalidConfig = "This lesson's configuration is invalid."

// Grader routes by game type to the registered Strategy.
type Grader interface {
	Grade(cfg Config, sub Submission) Verdict
	Supports(gt GameType) bool
}

type defaultGrader struct {
	strategies map[GameType]Strategy
}

func (g *defaultGrader) Supports(gt GameType) bool {
	_, ok := g.strategies[gt]
	return ok
}

func (g *defaultGrader) Grade(cfg Config, sub Submission) Verdict {
	if cfg == nil {
		return fail("This lesson has no validation configured.")
	}
	if _, bad := cfg.(InvalidConfig); bad {
		return fail(FeedbackInvalidConfig)
	}
	s, ok := g.strategies[cfg.GameType()]
	if !ok {
		return fail(fmt.Sprintf("Unsupported game type: %q.", cfg.GameType()))
	}
	return s.Grade(cfg, sub)
}

// Engine options

type Option func(*config)

type config struct {
	extra map[GameType]Strategy
}

// WithStrategy registers (or replaces) the strategy for gt.
func WithStrategy(gt GameType, s Strategy) Option {
	return func(c *config) { c.extra[gt] = s }
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{extra: map[GameType]Strategy{}}
	for _, o := range opts {
		o(cfg)
	}
	strategies := map[GameType]Strategy{
		GameExactMatch:     StrategyFunc(exactMatchStrategy),
		GameFillBlank:      StrategyFunc(fillBlankStrategy),
		GameMultipleChoice: StrategyFunc(multipleChoiceStrategy),
		GameReorder:        StrategyFunc(reorderStrategy),
	}
	for gt, s := range cfg.extra {
		strategies[gt] = s
	}
	return &defaultGrader{strategies: strategies}
}

// --- Strategies ---
//
// Each adapter unwraps the typed config and submission. A submission of the
// wrong kind is judged as that type's empty input.

func exactMatchStrategy(cfg Config, sub Submission) Verdict {
	c, ok := cfg.(ExactMatchConfig)
	if !ok {
		return fail(FeedbackInvalidConfig)
	}
	s, _ := sub.(TextSubmission)
	return JudgeExactMatch(s.Text, c)
}

func fillBlankStrategy(cfg Config, sub Submission) Verdict {
	c, ok := cfg.(FillBlankConfig)
	if !ok {
		return fail(FeedbackInvalidConfig)
	}
	s, _ := sub.(BlanksSubmission)
	return JudgeFillBlank(s.Answers, c)
}

func multipleChoiceStrategy(cfg Config, sub Submission) Verdict {
	c, ok := cfg.(MultipleChoiceConfig)
	if !ok {
		return fail(FeedbackInvalidConfig)
	}
	s, _ := sub.(ChoiceSubmission)
	return JudgeMultipleChoice(s.Selected, c)
}

func reorderStrategy(cfg Config, sub Submission) Verdict {
	c, ok := cfg.(ReorderConfig)
	if !ok {
		return fail(FeedbackInvalidConfig)
	}
	s, _ := sub.(OrderSubmission)
	return JudgeReorder(s.Order, c)
}
