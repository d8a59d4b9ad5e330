package lesson

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/prmpt-academy/prmpt-api/internal/grading"
)

// SeedFile is the on-disk format for bundled lessons.
type SeedFile struct {
	Lessons []SeedLesson `yaml:"lessons"`
}

type SeedLesson struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Goal        string         `yaml:"goal"`
	GameType    string         `yaml:"game_type"`
	Difficulty  string         `yaml:"difficulty"`
	OrderIndex  int            `yaml:"order_index"`
	TimeLimit   *int           `yaml:"time_limit"`
	Published   *bool          `yaml:"published"`
	Config      map[string]any `yaml:"config"`
}

// LoadSeedFile parses a YAML seed file into validated drafts.
func LoadSeedFile(path string) ([]Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) ([]Draft, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	drafts := make([]Draft, 0, len(f.Lessons))
	for i, sl := range f.Lessons {
		raw, err := json.Marshal(sl.Config)
		if err != nil {
			return nil, fmt.Errorf("lesson %d (%s): config: %w", i, sl.Title, err)
		}
		published := true
		if sl.Published != nil {
			published = *sl.Published
		}
		order := sl.OrderIndex
		if order == 0 {
			order = i + 1
		}
		d := Draft{
			Title:       sl.Title,
			Description: sl.Description,
			Goal:        sl.Goal,
			GameType:    grading.GameType(sl.GameType),
			Difficulty:  Difficulty(sl.Difficulty),
			OrderIndex:  order,
			Config:      raw,
			TimeLimit:   sl.TimeLimit,
			IsPublished: published,
		}
		if _, err := fromDraft(d); err != nil {
			return nil, fmt.Errorf("lesson %d (%s): %w", i, sl.Title, err)
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// Seed creates the drafts when the store is empty. It reports how many
// lessons were inserted.
func Seed(ctx context.Context, svc *Service, drafts []Draft) (int, error) {
	n, err := svc.Store().Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i, d := range drafts {
		if _, err := svc.Create(ctx, d); err != nil {
			return i, fmt.Errorf("seed %q: %w", d.Title, err)
		}
	}
	return len(drafts), nil
}
