// Package repository implements the catalog's data access layer on GORM.
// Every repository is constructed around an explicit database handle; WithTx
// rebinds a repository to a transaction so services can scope multi-step
// writes.
package repository

import (
	"errors"
	"fmt"

	"catalog-service/internal/apperr"

	"gorm.io/gorm"
)

// Repositories bundles the per-entity repositories around one handle.
type Repositories struct {
	db *gorm.DB

	Products   *ProductRepository
	Categories *CategoryRepository
	Tags       *TagRepository
	Materials  *MaterialRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:         db,
		Products:   NewProductRepository(db),
		Categories: NewCategoryRepository(db),
		Tags:       NewTagRepository(db),
		Materials:  NewMaterialRepository(db),
	}
}

// DB exposes the underlying handle for transaction scoping.
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// translate maps GORM's errors onto the shared taxonomy. Duplicate key
// detection relies on TranslateError being enabled on the handle.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, apperr.ErrConflict)
	default:
		return err
	}
}
