package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog-service/internal/apperr"
	"catalog-service/internal/model"
	"catalog-service/internal/tagutil"

	"gorm.io/gorm"
)

// TagSuggestion is a tag name with how many products currently carry it.
type TagSuggestion struct {
	Name       string `json:"name"`
	UsageCount int64  `json:"usage_count"`
}

// TagRepository reads and writes tags. Stored names are always normalized
// slugs; lookups are case-insensitive.
type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) WithTx(tx *gorm.DB) *TagRepository {
	return &TagRepository{db: tx}
}

// FindOrCreateByName normalizes the raw name and returns the matching tag,
// creating it when missing. Names that normalize to nothing are invalid.
func (r *TagRepository) FindOrCreateByName(ctx context.Context, raw string) (*model.Tag, error) {
	if !tagutil.Validate(raw) {
		return nil, fmt.Errorf("tag name %q: %w", raw, apperr.ErrInvalidArgument)
	}
	normalized := tagutil.Normalize(raw)

	var tag model.Tag
	err := r.db.WithContext(ctx).Where("LOWER(name) = ?", normalized).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tag = model.Tag{Name: normalized}
	if err := r.db.WithContext(ctx).Create(&tag).Error; err != nil {
		// Lost a race with a concurrent create of the same name.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing model.Tag
			if ferr := r.db.WithContext(ctx).Where("LOWER(name) = ?", normalized).First(&existing).Error; ferr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &tag, nil
}

// FindByIDs returns the tags matching the given IDs. Unknown IDs are simply
// absent from the result.
func (r *TagRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Tag, error) {
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *TagRepository) FindAll(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// AllNames lists every stored tag name, for fuzzy matching.
func (r *TagRepository) AllNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&model.Tag{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// UsageCount counts how many products carry the tag.
func (r *TagRepository) UsageCount(ctx context.Context, tagID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("product_tags").
		Where("tag_id = ?", tagID).
		Count(&count).Error
	return count, err
}

// DeleteByName removes a tag looked up case-insensitively. Tags still
// attached to products cannot be deleted.
func (r *TagRepository) DeleteByName(ctx context.Context, name string) error {
	var tag model.Tag
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).First(&tag).Error
	if err != nil {
		return translate(err, fmt.Sprintf("tag %q", name))
	}
	count, err := r.UsageCount(ctx, tag.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("tag %q is used by %d products: %w", tag.Name, count, apperr.ErrConflict)
	}
	return translate(r.db.WithContext(ctx).Delete(&tag).Error, "tag")
}

// Suggest returns tags whose name contains the query, most used first, ties
// alphabetical. Tags attached to no product are not suggested. An empty
// query suggests nothing.
func (r *TagRepository) Suggest(ctx context.Context, query string, limit int) ([]TagSuggestion, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []TagSuggestion{}, nil
	}
	like := "%" + strings.ToLower(q) + "%"
	suggestions := []TagSuggestion{}
	err := r.db.WithContext(ctx).Table("tags").
		Select("tags.name AS name, COUNT(product_tags.product_id) AS usage_count").
		Joins("JOIN product_tags ON product_tags.tag_id = tags.id").
		Where("LOWER(tags.name) LIKE ?", like).
		Group("tags.name").
		Order("usage_count DESC, tags.name").
		Limit(limit).
		Scan(&suggestions).Error
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

// UsageStats maps every used tag name to its product count.
func (r *TagRepository) UsageStats(ctx context.Context) (map[string]int64, error) {
	var rows []TagSuggestion
	err := r.db.WithContext(ctx).Table("tags").
		Select("tags.name AS name, COUNT(product_tags.product_id) AS usage_count").
		Joins("JOIN product_tags ON product_tags.tag_id = tags.id").
		Group("tags.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int64, len(rows))
	for _, row := range rows {
		stats[row.Name] = row.UsageCount
	}
	return stats, nil
}
