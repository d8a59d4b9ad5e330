package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const (
	TypeSubmissionJudged = "submission.judged"
	TypeCreditsDeducted  = "credits.deducted"
)

type Event struct {
	Seq       int64  `json:"seq,omitempty"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"` // user id
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// New builds an event with data marshalled to JSON.
func New(typ, key string, data any) (Event, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: typ, Key: key, DataJSON: string(b), CreatedAt: time.Now().Unix()}, nil
}

type SubmissionJudged struct {
	UserID   string `json:"user_id"`
	LevelID  int64  `json:"level_id"`
	GameType string `json:"game_type"`
	Success  bool   `json:"success"`
	Score    int    `json:"score"`
}

type CreditsDeducted struct {
	UserID  string `json:"user_id"`
	Amount  int    `json:"amount"`
	Balance int    `json:"balance"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
