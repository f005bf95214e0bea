package repository

import (
	"context"
	"fmt"
	"strings"

	"catalog-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository reads and writes product rows. Products are soft
// deleted: the row keeps its SKU forever so the allocator never hands the
// number out again.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns the repository bound to the given transaction.
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

// scope preloads the associations every read path needs.
func (r *ProductRepository) scope(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tags").
		Preload("Materials").
		Preload("Category")
}

// Create inserts the product row only; associations are reconciled
// separately so create and update share one code path.
func (r *ProductRepository) Create(ctx context.Context, p *model.Product) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error, "product")
}

// Save writes every column of the row. Associations are untouched.
func (r *ProductRepository) Save(ctx context.Context, p *model.Product) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error, "product")
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	if err := r.scope(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("product %d", id))
	}
	return &p, nil
}

func (r *ProductRepository) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var p model.Product
	if err := r.scope(ctx).Where("sku = ?", sku).First(&p).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("product %s", sku))
	}
	return &p, nil
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := r.scope(ctx).Order("sku").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Search matches the query case-insensitively against name, description and
// SKU.
func (r *ProductRepository) Search(ctx context.Context, query string) ([]model.Product, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var products []model.Product
	err := r.scope(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(sku) LIKE ?", like, like, like).
		Order("sku").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// SKUsWithPrefix lists every SKU starting with prefix, soft deleted rows
// included, so retired sequence numbers stay reserved.
func (r *ProductRepository) SKUsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var skus []string
	err := r.db.WithContext(ctx).Unscoped().Model(&model.Product{}).
		Where("sku LIKE ?", prefix+"%").
		Pluck("sku", &skus).Error
	if err != nil {
		return nil, err
	}
	return skus, nil
}

// SKUExists reports whether a SKU is taken, counting soft deleted rows.
func (r *ProductRepository) SKUExists(ctx context.Context, sku string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&model.Product{}).
		Where("sku = ?", sku).
		Count(&count).Error
	return count > 0, err
}

// CountByCategory counts live products referencing the category.
func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// ReplaceTags reconciles the product's tag set to the desired one: only the
// difference is applied, so join rows for tags present in both sets are
// never churned. The in-memory product is updated to match.
func (r *ProductRepository) ReplaceTags(ctx context.Context, p *model.Product, desired []model.Tag) error {
	add, remove := diffTags(p.Tags, desired)
	assoc := r.db.WithContext(ctx).Model(p).Association("Tags")
	if len(remove) > 0 {
		if err := assoc.Delete(remove); err != nil {
			return err
		}
	}
	if len(add) > 0 {
		if err := assoc.Append(add); err != nil {
			return err
		}
	}
	p.Tags = desired
	return nil
}

// ReplaceMaterials is ReplaceTags for materials.
func (r *ProductRepository) ReplaceMaterials(ctx context.Context, p *model.Product, desired []model.Material) error {
	add, remove := diffMaterials(p.Materials, desired)
	assoc := r.db.WithContext(ctx).Model(p).Association("Materials")
	if len(remove) > 0 {
		if err := assoc.Delete(remove); err != nil {
			return err
		}
	}
	if len(add) > 0 {
		if err := assoc.Append(add); err != nil {
			return err
		}
	}
	p.Materials = desired
	return nil
}

// ClearAssociations drops every tag and material join row for the product,
// so usage counts fall to zero before the row itself is deleted.
func (r *ProductRepository) ClearAssociations(ctx context.Context, p *model.Product) error {
	if err := r.db.WithContext(ctx).Model(p).Association("Tags").Clear(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(p).Association("Materials").Clear()
}

// Delete soft deletes the product row.
func (r *ProductRepository) Delete(ctx context.Context, p *model.Product) error {
	return translate(r.db.WithContext(ctx).Delete(p).Error, "product")
}

func diffTags(current, desired []model.Tag) (add, remove []model.Tag) {
	have := make(map[uint]bool, len(current))
	for _, t := range current {
		have[t.ID] = true
	}
	want := make(map[uint]bool, len(desired))
	for _, t := range desired {
		want[t.ID] = true
		if !have[t.ID] {
			add = append(add, t)
		}
	}
	for _, t := range current {
		if !want[t.ID] {
			remove = append(remove, t)
		}
	}
	return add, remove
}

func diffMaterials(current, desired []model.Material) (add, remove []model.Material) {
	have := make(map[uint]bool, len(current))
	for _, m := range current {
		have[m.ID] = true
	}
	want := make(map[uint]bool, len(desired))
	for _, m := range desired {
		want[m.ID] = true
		if !have[m.ID] {
			add = append(add, m)
		}
	}
	for _, m := range current {
		if !want[m.ID] {
			remove = append(remove, m)
		}
	}
	return add, remove
}
