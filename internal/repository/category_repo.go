package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"catalog-service/internal/apperr"
	"catalog-service/internal/model"

	"gorm.io/gorm"
)

var initialsPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// NormalizeInitials uppercases the SKU initials and validates them: exactly
// three ASCII letters.
func NormalizeInitials(raw string) (string, error) {
	initials := strings.ToUpper(strings.TrimSpace(raw))
	if !initialsPattern.MatchString(initials) {
		return "", fmt.Errorf("sku initials must be exactly three letters: %w", apperr.ErrInvalidArgument)
	}
	return initials, nil
}

// CategoryRepository reads and writes categories. Deletes are refused while
// products still reference the category.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) WithTx(tx *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: tx}
}

func (r *CategoryRepository) Create(ctx context.Context, c *model.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("category name is required: %w", apperr.ErrInvalidArgument)
	}
	initials, err := NormalizeInitials(c.SKUInitials)
	if err != nil {
		return err
	}
	c.SKUInitials = initials
	return translate(r.db.WithContext(ctx).Create(c).Error, "category")
}

// Update writes the category back after the caller merged changed fields.
// Name and initials are validated the same way Create validates them.
func (r *CategoryRepository) Update(ctx context.Context, c *model.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("category name is required: %w", apperr.ErrInvalidArgument)
	}
	initials, err := NormalizeInitials(c.SKUInitials)
	if err != nil {
		return err
	}
	c.SKUInitials = initials
	return translate(r.db.WithContext(ctx).Save(c).Error, "category")
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("category %d", id))
	}
	return &c, nil
}

func (r *CategoryRepository) FindByInitials(ctx context.Context, initials string) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).
		Where("sku_initials = ?", strings.ToUpper(initials)).
		First(&c).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("category %s", initials))
	}
	return &c, nil
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		First(&c).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("category %q", name))
	}
	return &c, nil
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Delete removes the category. It fails with a conflict while live products
// still reference it.
func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	category, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	var count int64
	err = r.db.WithContext(ctx).Model(&model.Product{}).
		Where("category_id = ?", id).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("category %q is used by %d products: %w", category.Name, count, apperr.ErrConflict)
	}
	return translate(r.db.WithContext(ctx).Delete(&model.Category{}, id).Error, "category")
}
