package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pointlab/poinavi/internal/core/domain"
	"github.com/pointlab/poinavi/internal/core/ports"
)

const maxTagNameRunes = 20

// TagService manages the search tag set: built-in defaults (soft-deletable)
// plus user-defined custom tags searched as free text.
type TagService struct {
	tags ports.TagRepository
}

// NewTagService creates a new TagService.
func NewTagService(tags ports.TagRepository) *TagService {
	return &TagService{tags: tags}
}

// List returns the active tag set: defaults minus soft-deleted ones,
// followed by custom tags.
func (s *TagService) List(ctx context.Context) ([]domain.Tag, error) {
	deleted, err := s.tags.ListDeletedDefaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deleted defaults: %w", err)
	}
	deletedSet := make(map[string]struct{}, len(deleted))
	for _, id := range deleted {
		deletedSet[id] = struct{}{}
	}

	var out []domain.Tag
	for _, t := range domain.DefaultTags {
		if _, gone := deletedSet[t.ID]; !gone {
			out = append(out, t)
		}
	}

	custom, err := s.tags.ListCustom(ctx)
	if err != nil {
		return nil, fmt.Errorf("list custom tags: %w", err)
	}
	return append(out, custom...), nil
}

// Add creates a custom tag. Names are trimmed, bounded to 20 runes, and
// must be unique across the active set.
func (s *TagService) Add(ctx context.Context, name string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tag name must not be empty")
	}
	if len([]rune(name)) > maxTagNameRunes {
		return nil, fmt.Errorf("tag name must be at most %d characters", maxTagNameRunes)
	}

	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range existing {
		if t.Name == name {
			return nil, fmt.Errorf("tag %q already exists", name)
		}
	}

	tag := &domain.Tag{
		ID:        uuid.NewString(),
		Name:      name,
		IsCustom:  true,
		CreatedAt: time.Now(),
	}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

// Remove deletes a tag. Defaults are soft-deleted; custom tags are removed.
func (s *TagService) Remove(ctx context.Context, id string) error {
	for _, t := range domain.DefaultTags {
		if t.ID == id {
			return s.tags.MarkDefaultDeleted(ctx, id)
		}
	}
	return s.tags.Delete(ctx, id)
}

// Find resolves a tag by ID across defaults and custom tags.
func (s *TagService) Find(ctx context.Context, id string) (*domain.Tag, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("tag %s not found", id)
}
