package lesson

import (
	"context"
	"fmt"
	"strings"

	"github.com/prmpt-academy/prmpt-api/internal/grading"
)

// Service applies authoring rules on top of a Store: defaults, config
// validation and partial updates.
type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

func (s *Service) Store() Store { return s.store }

func (s *Service) Get(ctx context.Context, id int64) (Lesson, error) {
	return s.store.Get(ctx, id)
}

// GetPublished hides unpublished lessons behind ErrNotFound.
func (s *Service) GetPublished(ctx context.Context, id int64) (Lesson, error) {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	if !l.IsPublished {
		return Lesson{}, ErrNotFound
	}
	return l, nil
}

func (s *Service) List(ctx context.Context, opts ListOpts) ([]Lesson, error) {
	return s.store.List(ctx, opts)
}

func (s *Service) Create(ctx context.Context, d Draft) (Lesson, error) {
	l, err := fromDraft(d)
	if err != nil {
		return Lesson{}, err
	}
	return s.store.Create(ctx, l)
}

func (s *Service) Update(ctx context.Context, id int64, p Patch) (Lesson, error) {
	if len(p.Config) > 0 && string(p.Config) == "null" {
		p.Config = nil
	}
	if p.Empty() {
		return Lesson{}, ErrNoChanges
	}
	l, err := s.store.Get(ctx, id)
	if err != nil {
		return Lesson{}, err
	}

	if p.Title != nil {
		l.Title = strings.TrimSpace(*p.Title)
		if l.Title == "" {
			return Lesson{}, fmt.Errorf("%w: title is required", ErrInvalidConfig)
		}
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Goal != nil {
		l.Goal = *p.Goal
	}
	if p.Difficulty != nil {
		if !p.Difficulty.Valid() {
			return Lesson{}, fmt.Errorf("%w: difficulty %q", ErrInvalidConfig, *p.Difficulty)
		}
		l.Difficulty = *p.Difficulty
	}
	if p.OrderIndex != nil {
		l.OrderIndex = *p.OrderIndex
	}
	if p.TimeLimit != nil {
		l.TimeLimit = p.TimeLimit
	}
	if p.IsPublished != nil {
		l.IsPublished = *p.IsPublished
	}

	// A new game type needs a config for it.
	switch {
	case len(p.Config) > 0:
		gt := l.GameType
		if p.GameType != nil {
			gt = *p.GameType
		}
		cfg, err := ValidateConfig(gt, p.Config)
		if err != nil {
			return Lesson{}, err
		}
		l.GameType, l.Config = gt, cfg
	case p.GameType != nil && *p.GameType != l.GameType:
		return Lesson{}, fmt.Errorf("%w: changing game_type requires a config", ErrInvalidConfig)
	}

	return s.store.Update(ctx, l)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

func fromDraft(d Draft) (Lesson, error) {
	if d.GameType == "" {
		d.GameType = grading.GameExactMatch
	}
	if d.Difficulty == "" {
		d.Difficulty = Beginner
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return Lesson{}, fmt.Errorf("%w: title is required", ErrInvalidConfig)
	}
	if !d.Difficulty.Valid() {
		return Lesson{}, fmt.Errorf("%w: difficulty %q", ErrInvalidConfig, d.Difficulty)
	}
	cfg, err := ValidateConfig(d.GameType, d.Config)
	if err != nil {
		return Lesson{}, err
	}
	return Lesson{
		Title:       title,
		Description: d.Description,
		Goal:        d.Goal,
		GameType:    d.GameType,
		Difficulty:  d.Difficulty,
		OrderIndex:  d.OrderIndex,
		Config:      cfg,
		TimeLimit:   d.TimeLimit,
		IsPublished: d.IsPublished,
	}, nil
}
