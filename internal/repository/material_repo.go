package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog-service/internal/apperr"
	"catalog-service/internal/model"

	"gorm.io/gorm"
)

// MaterialRepository reads and writes print materials. Unlike tags,
// material names keep their original casing; lookups are case-insensitive.
type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) WithTx(tx *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: tx}
}

// FindOrCreateByName returns the material with the given name, creating it
// when missing.
func (r *MaterialRepository) FindOrCreateByName(ctx context.Context, raw string) (*model.Material, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return nil, fmt.Errorf("material name is required: %w", apperr.ErrInvalidArgument)
	}

	var material model.Material
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&material).Error
	if err == nil {
		return &material, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	material = model.Material{Name: name}
	if err := r.db.WithContext(ctx).Create(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing model.Material
			if ferr := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&existing).Error; ferr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &material, nil
}

// FindByIDs returns the materials matching the given IDs. Unknown IDs are
// simply absent from the result.
func (r *MaterialRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Material, error) {
	if len(ids) == 0 {
		return []model.Material{}, nil
	}
	var materials []model.Material
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *MaterialRepository) FindAll(ctx context.Context) ([]model.Material, error) {
	var materials []model.Material
	if err := r.db.WithContext(ctx).Order("name").Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

// UsageCount counts how many products use the material.
func (r *MaterialRepository) UsageCount(ctx context.Context, materialID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("product_materials").
		Where("material_id = ?", materialID).
		Count(&count).Error
	return count, err
}

// Delete removes a material unless products still use it.
func (r *MaterialRepository) Delete(ctx context.Context, id uint) error {
	var material model.Material
	if err := r.db.WithContext(ctx).First(&material, id).Error; err != nil {
		return translate(err, fmt.Sprintf("material %d", id))
	}
	count, err := r.UsageCount(ctx, material.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("material %q is used by %d products: %w", material.Name, count, apperr.ErrConflict)
	}
	return translate(r.db.WithContext(ctx).Delete(&material).Error, "material")
}
