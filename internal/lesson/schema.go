package lesson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/prmpt-academy/prmpt-api/internal/grading"
)

// Field describes one config field for authoring tools.
type Field struct {
	Type     string   `json:"type"` // string|boolean|select|string_array|number_array
	Required bool     `json:"required,omitempty"`
	Default  any      `json:"default,omitempty"`
	Label    string   `json:"label"`
	Options  []string `json:"options,omitempty"`
}

type GameTypeInfo struct {
	ID           grading.GameType `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	ConfigSchema map[string]Field `json:"config_schema"`
}

// Catalogue is the stable config contract per game type.
var Catalogue = []GameTypeInfo{
	{
		ID:          grading.GameExactMatch,
		Name:        "Exact Match",
		Description: "User types the exact expected output",
		ConfigSchema: map[string]Field{
			"expected":       {Type: "string", Required: true, Label: "Expected Answer"},
			"case_sensitive": {Type: "boolean", Default: true, Label: "Case Sensitive"},
			"match_type": {Type: "select", Default: "exact", Label: "Match Type",
				Options: []string{string(grading.MatchExact), string(grading.MatchContains), string(grading.MatchRegex)}},
		},
	},
	{
		ID:          grading.GameFillBlank,
		Name:        "Fill in the Blank",
		Description: "User fills in missing words in a template",
		ConfigSchema: map[string]Field{
			"template":       {Type: "string", Required: true, Label: "Template (use {{blank}} for blanks)"},
			"answers":        {Type: "string_array", Required: true, Label: "Answers (in order)"},
			"case_sensitive": {Type: "boolean", Default: false, Label: "Case Sensitive"},
		},
	},
	{
		ID:          grading.GameMultipleChoice,
		Name:        "Multiple Choice",
		Description: "User selects the correct option(s)",
		ConfigSchema: map[string]Field{
			"question": {Type: "string", Required: true, Label: "Question"},
			"options":  {Type: "string_array", Required: true, Label: "Options"},
			"correct":  {Type: "number_array", Required: true, Label: "Correct Option Indices (0-based)"},
			"multi":    {Type: "boolean", Default: false, Label: "Allow Multiple Selections"},
		},
	},
	{
		ID:          grading.GameReorder,
		Name:        "Reorder / Drag & Drop",
		Description: "User arranges items in the correct order by dragging",
		ConfigSchema: map[string]Field{
			"items":         {Type: "string_array", Required: true, Label: "Items (in correct order)"},
			"correct_order": {Type: "number_array", Required: true, Label: "Correct Order Indices"},
		},
	},
}

const blankMarker = "{{blank}}"

// jsonSchemaFor renders a catalogue entry as a JSON Schema document.
func jsonSchemaFor(info GameTypeInfo) map[string]any {
	props := map[string]any{}
	required := []any{}
	for name, f := range info.ConfigSchema {
		var p map[string]any
		switch f.Type {
		case "boolean":
			p = map[string]any{"type": "boolean"}
		case "select":
			enum := make([]any, 0, len(f.Options))
			for _, o := range f.Options {
				enum = append(enum, o)
			}
			p = map[string]any{"type": "string", "enum": enum}
		case "string_array":
			p = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
		case "number_array":
			p = map[string]any{"type": "array", "items": map[string]any{"type": "integer", "minimum": 0}}
		default:
			p = map[string]any{"type": "string"}
		}
		if f.Required {
			required = append(required, name)
			if p["type"] == "array" {
				p["minItems"] = 1
			}
		}
		props[name] = p
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

var (
	compileOnce sync.Once
	compiled    map[grading.GameType]*jsonschema.Schema
	compileErr  error
)

func compiledSchemas() (map[grading.GameType]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = map[grading.GameType]*jsonschema.Schema{}
		c := jsonschema.NewCompiler()
		for _, info := range Catalogue {
			// the compiler wants a plain decoded JSON value
			b, err := json.Marshal(jsonSchemaFor(info))
			if err != nil {
				compileErr = err
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
			if err != nil {
				compileErr = err
				return
			}
			url := fmt.Sprintf("schema://lesson/%s.json", info.ID)
			if err := c.AddResource(url, doc); err != nil {
				compileErr = fmt.Errorf("add resource %s: %w", info.ID, err)
				return
			}
			s, err := c.Compile(url)
			if err != nil {
				compileErr = fmt.Errorf("compile %s: %w", info.ID, err)
				return
			}
			compiled[info.ID] = s
		}
	})
	return compiled, compileErr
}

// ValidateConfig checks raw against the game type's schema and its semantic
// rules, and returns the decoded config.
func ValidateConfig(gt grading.GameType, raw json.RawMessage) (grading.Config, error) {
	if !gt.Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGameType, gt)
	}
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}

	schemas, err := compiledSchemas()
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := schemas[gt].Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg, err := grading.DecodeConfig(gt, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := checkSemantics(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func checkSemantics(cfg grading.Config) error {
	switch c := cfg.(type) {
	case grading.ExactMatchConfig:
		if c.MatchType == grading.MatchRegex {
			if err := grading.ValidatePattern(c.Expected, c.CaseSensitive); err != nil {
				return fmt.Errorf("expected: invalid pattern: %v", err)
			}
		}
	case grading.FillBlankConfig:
		if c.Template != "" {
			if n := strings.Count(c.Template, blankMarker); n != len(c.Answers) {
				return fmt.Errorf("template has %d blanks but %d answers", n, len(c.Answers))
			}
		}
	case grading.MultipleChoiceConfig:
		distinct := map[int]struct{}{}
		for _, i := range c.Correct {
			if i < 0 || i >= len(c.Options) {
				return fmt.Errorf("correct: index %d out of range for %d options", i, len(c.Options))
			}
			distinct[i] = struct{}{}
		}
		if !c.Multi && len(distinct) > 1 {
			return fmt.Errorf("correct: %d answers but multi is false", len(distinct))
		}
	case grading.ReorderConfig:
		if len(c.CorrectOrder) != len(c.Items) {
			return fmt.Errorf("correct_order has %d entries for %d items", len(c.CorrectOrder), len(c.Items))
		}
		seen := make([]bool, len(c.Items))
		for _, i := range c.CorrectOrder {
			if i < 0 || i >= len(c.Items) || seen[i] {
				return fmt.Errorf("correct_order must be a permutation of item indices")
			}
			seen[i] = true
		}
	}
	return nil
}
