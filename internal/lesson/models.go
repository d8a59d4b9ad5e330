package lesson

import (
	"encoding/json"
	"errors"

	"github.com/prmpt-academy/prmpt-api/internal/grading"
)

var (
	ErrNotFound        = errors.New("lesson not found")
	ErrInvalidConfig   = errors.New("invalid lesson config")
	ErrUnknownGameType = errors.New("unknown game type")
	ErrNoChanges       = errors.New("no fields to update")
)

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	return d == Beginner || d == Intermediate || d == Advanced
}

type Lesson struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Goal        string           `json:"goal"`
	GameType    grading.GameType `json:"game_type"`
	Difficulty  Difficulty       `json:"difficulty"`
	OrderIndex  int              `json:"order_index"`
	Config      grading.Config   `json:"config"`
	TimeLimit   *int             `json:"time_limit,omitempty"` // seconds
	IsPublished bool             `json:"is_published"`

	CreatedAt int64 `json:"created_at,omitempty"`
	UpdatedAt int64 `json:"updated_at,omitempty"`
}

// UnmarshalJSON decodes config according to game_type.
func (l *Lesson) UnmarshalJSON(b []byte) error {
	type alias Lesson
	var aux struct {
		alias
		Config json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	cfg, err := grading.DecodeConfig(aux.GameType, aux.Config)
	if err != nil {
		return err
	}
	*l = Lesson(aux.alias)
	l.Config = cfg
	return nil
}

// Public returns the learner-facing view with answer fields removed.
func (l Lesson) Public() Lesson {
	if l.Config != nil {
		l.Config = grading.Redact(l.Config)
	}
	return l
}

// Draft is the authoring input for a new lesson. Config stays raw until it
// is validated against the game type's schema.
type Draft struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Goal        string           `json:"goal"`
	GameType    grading.GameType `json:"game_type"`
	Difficulty  Difficulty       `json:"difficulty"`
	OrderIndex  int              `json:"order_index"`
	Config      json.RawMessage  `json:"config"`
	TimeLimit   *int             `json:"time_limit"`
	IsPublished bool             `json:"is_published"`
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Goal        *string           `json:"goal"`
	GameType    *grading.GameType `json:"game_type"`
	Difficulty  *Difficulty       `json:"difficulty"`
	OrderIndex  *int              `json:"order_index"`
	Config      json.RawMessage   `json:"config"`
	TimeLimit   *int              `json:"time_limit"`
	IsPublished *bool             `json:"is_published"`
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Goal == nil && p.GameType == nil &&
		p.Difficulty == nil && p.OrderIndex == nil && len(p.Config) == 0 &&
		p.TimeLimit == nil && p.IsPublished == nil
}

type ListOpts struct {
	PublishedOnly bool
}
