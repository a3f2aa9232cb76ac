package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
	"docvault/internal/domain/services"
)

type tagResolverService struct {
	tagRepo repositories.TagRepository
}

// NewTagResolver creates a new tag resolver
func NewTagResolver(tagRepo repositories.TagRepository) services.TagResolver {
	return &tagResolverService{tagRepo: tagRepo}
}

// Resolve returns one tag per input name, in input order, creating missing tags.
// It uses whatever transaction ctx carries and never commits. Distinct names
// are looked up and created in sorted order, so two transactions creating
// overlapping tag sets wait on each other instead of deadlocking.
func (s *tagResolverService) Resolve(ctx context.Context, names []string) ([]models.Tag, error) {
	distinct := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			distinct = append(distinct, name)
		}
	}
	sort.Strings(distinct)

	byName := make(map[string]models.Tag, len(distinct))
	for _, name := range distinct {
		tag, err := s.resolveOne(ctx, name)
		if err != nil {
			return nil, err
		}
		byName[name] = *tag
	}

	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		tags = append(tags, byName[name])
	}
	return tags, nil
}

func (s *tagResolverService) resolveOne(ctx context.Context, name string) (*models.Tag, error) {
	tag, err := s.tagRepo.GetByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("look up tag %q: %w", name, err)
	}

	created := &models.Tag{Name: name}
	if err := s.tagRepo.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("create tag %q: %w", name, err)
	}
	return created, nil
}
