package service

import (
	"context"
	"time"

	"catalog-service/internal/model"
	"catalog-service/internal/repository"
	"catalog-service/internal/tagutil"
)

// TagService combines the tag repository with the fuzzy matcher.
type TagService struct {
	repos     *repository.Repositories
	opTimeout time.Duration
}

func NewTagService(repos *repository.Repositories, opTimeout time.Duration) *TagService {
	return &TagService{repos: repos, opTimeout: opTimeout}
}

func (s *TagService) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// TagWithUsage is a tag plus the number of live products carrying it.
type TagWithUsage struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	UsageCount int64  `json:"usage_count"`
}

// List returns every tag alphabetically with its usage count, zero for
// unused tags.
func (s *TagService) List(ctx context.Context) ([]TagWithUsage, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tags, err := s.repos.Tags.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.repos.Tags.UsageStats(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TagWithUsage, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagWithUsage{ID: t.ID, Name: t.Name, UsageCount: stats[t.Name]})
	}
	return out, nil
}

// Create normalizes the name and returns the existing tag or a new one.
func (s *TagService) Create(ctx context.Context, raw string) (*model.Tag, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.repos.Tags.FindOrCreateByName(ctx, raw)
}

// Delete removes an unused tag by name.
func (s *TagService) Delete(ctx context.Context, name string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.repos.Tags.DeleteByName(ctx, name)
}

// Suggest returns tags whose name contains the query, most used first. An
// empty query suggests nothing.
func (s *TagService) Suggest(ctx context.Context, query string, limit int) ([]repository.TagSuggestion, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	if limit <= 0 {
		limit = tagutil.DefaultSuggestLimit
	}
	return s.repos.Tags.Suggest(ctx, query, limit)
}

// FindSimilar ranks existing tags by similarity to the input so callers
// can offer "did you mean" matches before creating near duplicates.
func (s *TagService) FindSimilar(ctx context.Context, name string, threshold float64, limit int) ([]tagutil.Match, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	if threshold <= 0 {
		threshold = tagutil.DefaultSimilarityThreshold
	}
	if limit <= 0 {
		limit = tagutil.DefaultSimilarLimit
	}
	names, err := s.repos.Tags.AllNames(ctx)
	if err != nil {
		return nil, err
	}
	return tagutil.RankSimilar(name, names, threshold, limit), nil
}

// UsageStats maps every used tag name to its live product count.
func (s *TagService) UsageStats(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.repos.Tags.UsageStats(ctx)
}
