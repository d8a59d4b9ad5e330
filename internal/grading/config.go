package grading

import (
	"encoding/json"
	"fmt"
)

// GameType tags a lesson's judging strategy.
type GameType string

const (
	GameExactMatch     GameType = "exact_match"
	GameFillBlank      GameType = "fill_blank"
	GameMultipleChoice GameType = "multiple_choice"
	GameReorder        GameType = "reorder"
)

// KnownGameTypes lists the game types with a built-in strategy, in catalogue order.
var KnownGameTypes = []GameType{GameExactMatch, GameFillBlank, GameMultipleChoice, GameReorder}

func (g GameType) Known() bool {
	for _, k := range KnownGameTypes {
		if g == k {
			return true
		}
	}
	return false
}

// MatchType selects how an exact_match lesson compares text.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
	MatchRegex    MatchType = "regex"
)

// Config is the validation configuration of a lesson. Each game type has
// its own concrete struct.
type Config interface {
	GameType() GameType
}

type ExactMatchConfig struct {
	Expected      string    `json:"expected,omitempty"`
	CaseSensitive bool      `json:"case_sensitive"`
	MatchType     MatchType `json:"match_type"`
}

func (ExactMatchConfig) GameType() GameType { return GameExactMatch }

type FillBlankConfig struct {
	Template      string   `json:"template"`
	Answers       []string `json:"answers,omitempty"`
	CaseSensitive bool     `json:"case_sensitive"`
}

func (FillBlankConfig) GameType() GameType { return GameFillBlank }

type MultipleChoiceConfig struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  []int    `json:"correct,omitempty"`
	Multi    bool     `json:"multi"` // informational; selection count is a UI concern
}

func (MultipleChoiceConfig) GameType() GameType { return GameMultipleChoice }

type ReorderConfig struct {
	Items        []string `json:"items"`
	CorrectOrder []int    `json:"correct_order,omitempty"`
}

func (ReorderConfig) GameType() GameType { return GameReorder }

// RawConfig keeps the payload of a game type this build has no strategy for,
// so such lessons can still be stored, listed and dispatched.
type RawConfig struct {
	Type GameType
	Raw  json.RawMessage
}

func (c RawConfig) GameType() GameType { return c.Type }

func (c RawConfig) MarshalJSON() ([]byte, error) {
	if len(c.Raw) == 0 {
		return []byte("{}"), nil
	}
	return c.Raw, nil
}

// InvalidConfig stands in for a stored payload that no longer decodes for
// its game type. Judging it yields a failing verdict.
type InvalidConfig struct {
	Type GameType
	Raw  json.RawMessage
	Err  error
}

func (c InvalidConfig) GameType() GameType { return c.Type }

func (c InvalidConfig) MarshalJSON() ([]byte, error) {
	if len(c.Raw) == 0 || !json.Valid(c.Raw) {
		return []byte("{}"), nil
	}
	return c.Raw, nil
}

// DecodeStored is DecodeConfig for persisted rows: a payload that fails to
// decode becomes an InvalidConfig instead of an error.
func DecodeStored(gt GameType, raw json.RawMessage) Config {
	cfg, err := DecodeConfig(gt, raw)
	if err != nil {
		buf := make(json.RawMessage, len(raw))
		copy(buf, raw)
		return InvalidConfig{Type: gt, Raw: buf, Err: err}
	}
	return cfg
}

// DecodeConfig parses raw into the config struct for gt, applying the
// documented defaults for absent fields. Unknown game types decode to RawConfig.
func DecodeConfig(gt GameType, raw json.RawMessage) (Config, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	var (
		cfg Config
		err error
	)
	switch gt {
	case GameExactMatch:
		c := ExactMatchConfig{CaseSensitive: true, MatchType: MatchExact}
		err = json.Unmarshal(raw, &c)
		if c.MatchType == "" {
			c.MatchType = MatchExact
		}
		cfg = c
	case GameFillBlank:
		c := FillBlankConfig{}
		err = json.Unmarshal(raw, &c)
		cfg = c
	case GameMultipleChoice:
		c := MultipleChoiceConfig{}
		err = json.Unmarshal(raw, &c)
		cfg = c
	case GameReorder:
		c := ReorderConfig{}
		err = json.Unmarshal(raw, &c)
		cfg = c
	default:
		buf := make(json.RawMessage, len(raw))
		copy(buf, raw)
		return RawConfig{Type: gt, Raw: buf}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s config: %w", gt, err)
	}
	return cfg, nil
}

// Redact returns a copy of cfg with the answer fields cleared, suitable for
// learner-facing responses.
func Redact(cfg Config) Config {
	switch c := cfg.(type) {
	case ExactMatchConfig:
		c.Expected = ""
		return c
	case FillBlankConfig:
		c.Answers = nil
		return c
	case MultipleChoiceConfig:
		c.Correct = nil
		return c
	case ReorderConfig:
		c.CorrectOrder = nil
		return c
	case InvalidConfig:
		return InvalidConfig{Type: c.Type, Err: c.Err}
	default:
		return cfg
	}
}
