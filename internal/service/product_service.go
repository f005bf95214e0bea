// Package service sequences catalog writes across the two stores: the
// database rows that are authoritative and the filesystem mirror that
// follows them. Handlers call services; services call repositories and the
// mirror in the order the lifecycle requires.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"catalog-service/internal/apperr"
	"catalog-service/internal/mirror"
	"catalog-service/internal/model"
	"catalog-service/internal/repository"
	"catalog-service/internal/sku"
	"catalog-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// createAttempts bounds the SKU collision retry loop. Collisions only
// happen when another process allocates the same number between our scan
// and our insert, so one retry is almost always enough.
const createAttempts = 3

// ProductService owns the product lifecycle. Every write touches the
// database first or the folder first depending on the operation; the
// ordering rules live here and nowhere else.
type ProductService struct {
	db        *gorm.DB
	repos     *repository.Repositories
	allocator *sku.Allocator
	mirror    *mirror.Mirror
	opTimeout time.Duration

	// Serializes SKU allocation per category within this process. Races
	// with other processes still surface as duplicate key errors and are
	// retried.
	mu       sync.Mutex
	skuLocks map[uint]*sync.Mutex
}

func NewProductService(repos *repository.Repositories, m *mirror.Mirror, opTimeout time.Duration) *ProductService {
	return &ProductService{
		db:        repos.DB(),
		repos:     repos,
		allocator: sku.NewAllocator(repos.Categories, repos.Products),
		mirror:    m,
		opTimeout: opTimeout,
		skuLocks:  make(map[uint]*sync.Mutex),
	}
}

func (s *ProductService) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *ProductService) lockCategory(id uint) func() {
	s.mu.Lock()
	lock, ok := s.skuLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.skuLocks[id] = lock
	}
	s.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// CreateProductInput carries the fields accepted on create. Tags and
// materials are referenced by id; unknown ids are dropped silently.
type CreateProductInput struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	CategoryID    *uint   `json:"category_id"`
	TagIDs        []uint  `json:"tag_ids"`
	MaterialIDs   []uint  `json:"material_ids"`
	Production    bool    `json:"production"`
	Active        *bool   `json:"active"`
	Color         *string `json:"color"`
	PrintTime     *string `json:"print_time"`
	Weight        *int    `json:"weight"`
	Rating        *int    `json:"rating"`
	StockQuantity *int    `json:"stock_quantity"`
	ReorderPoint  *int    `json:"reorder_point"`
	UnitCost      *int    `json:"unit_cost"`
	SellingPrice  *int    `json:"selling_price"`
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("product name is required: %w", apperr.ErrInvalidArgument)
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("product name must not contain path separators: %w", apperr.ErrInvalidArgument)
	}
	return name, nil
}

func validateRating(rating *int) error {
	if rating != nil && (*rating < 0 || *rating > 5) {
		return fmt.Errorf("rating must be between 0 and 5: %w", apperr.ErrInvalidArgument)
	}
	return nil
}

// Create allocates a SKU, creates the product folder and then inserts the
// row with its associations in one transaction. The folder comes first so
// a folder can exist without a row but never the other way around; if the
// insert fails the folder is removed again. A duplicate SKU from a
// concurrent writer restarts allocation with a fresh number.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*model.Product, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}
	if in.CategoryID == nil {
		return nil, fmt.Errorf("category_id is required: %w", apperr.ErrInvalidArgument)
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	category, err := s.repos.Categories.FindByID(ctx, *in.CategoryID)
	if err != nil {
		return nil, err
	}
	tags, err := s.repos.Tags.FindByIDs(ctx, in.TagIDs)
	if err != nil {
		return nil, err
	}
	materials, err := s.repos.Materials.FindByIDs(ctx, in.MaterialIDs)
	if err != nil {
		return nil, err
	}

	unlock := s.lockCategory(category.ID)
	defer unlock()

	var product *model.Product
	for attempt := 1; ; attempt++ {
		allocated, err := s.allocator.NextSKU(ctx, category.ID)
		if err != nil {
			return nil, err
		}

		product = &model.Product{
			Name:         name,
			Description:  in.Description,
			SKU:          allocated,
			CategoryID:   in.CategoryID,
			Category:     category,
			Tags:         tags,
			Materials:    materials,
			Production:   in.Production,
			Active:       in.Active == nil || *in.Active,
			Color:        in.Color,
			PrintTime:    in.PrintTime,
			Weight:       in.Weight,
			UnitCost:     in.UnitCost,
			SellingPrice: in.SellingPrice,
		}
		if in.Rating != nil {
			product.Rating = *in.Rating
		}
		if in.StockQuantity != nil {
			product.StockQuantity = *in.StockQuantity
		}
		if in.ReorderPoint != nil {
			product.ReorderPoint = *in.ReorderPoint
		}

		folderPath, err := s.mirror.CreateProductFolder(ctx, mirror.FromProduct(product))
		if err != nil {
			return nil, err
		}
		product.FolderPath = folderPath

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			products := s.repos.Products.WithTx(tx)
			desiredTags, desiredMaterials := product.Tags, product.Materials
			product.Tags, product.Materials = nil, nil
			if err := products.Create(ctx, product); err != nil {
				return err
			}
			if err := products.ReplaceTags(ctx, product, desiredTags); err != nil {
				return err
			}
			return products.ReplaceMaterials(ctx, product, desiredMaterials)
		})
		if err == nil {
			break
		}

		// The context may be the reason the insert failed; cleanup still
		// has to run.
		if cleanupErr := s.mirror.DeleteProductFolder(context.WithoutCancel(ctx), product.FolderPath); cleanupErr != nil {
			log.Error("failed to remove folder after create failure",
				zap.String("path", product.FolderPath),
				zap.Error(cleanupErr))
		}
		if errors.Is(err, apperr.ErrConflict) && attempt < createAttempts {
			// Another writer claimed the SKU between our scan and insert.
			log.Warn("sku taken by concurrent writer, reallocating",
				zap.String("sku", allocated),
				zap.Int("attempt", attempt))
			continue
		}
		return nil, err
	}

	log.Info("product created",
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU),
		zap.String("name", product.Name),
		zap.String("folder", product.FolderPath))
	return product, nil
}

// UpdateProductInput carries optional fields; nil means leave unchanged.
// TagIDs and MaterialIDs are pointers to slices so an explicit empty list
// clears the set while an absent field keeps it.
type UpdateProductInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	CategoryID  *uint   `json:"category_id"`
	TagIDs      *[]uint `json:"tag_ids"`
	MaterialIDs *[]uint `json:"material_ids"`
	Production  *bool   `json:"production"`
	Active      *bool   `json:"active"`
	Color       *string `json:"color"`
	PrintTime   *string `json:"print_time"`
	Weight      *int    `json:"weight"`
	Rating      *int    `json:"rating"`
}

// Update merges the supplied fields into the product. A name change
// renames the folder before the row is committed, so a rename failure
// aborts the whole update; if the commit fails afterwards the rename is
// undone. The metadata file is rewritten last and a failure there is only
// logged, the database already holds the truth.
func (s *ProductService) Update(ctx context.Context, id uint, in UpdateProductInput) (*model.Product, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	product, err := s.repos.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	var newCategory *model.Category
	if in.CategoryID != nil {
		newCategory, err = s.repos.Categories.FindByID(ctx, *in.CategoryID)
		if err != nil {
			return nil, err
		}
	}
	var newTags []model.Tag
	if in.TagIDs != nil {
		if newTags, err = s.repos.Tags.FindByIDs(ctx, *in.TagIDs); err != nil {
			return nil, err
		}
	}
	var newMaterials []model.Material
	if in.MaterialIDs != nil {
		if newMaterials, err = s.repos.Materials.FindByIDs(ctx, *in.MaterialIDs); err != nil {
			return nil, err
		}
	}

	oldName := product.Name
	renamed := false
	if in.Name != nil {
		name, err := validateName(*in.Name)
		if err != nil {
			return nil, err
		}
		if name != product.Name {
			newPath, err := s.mirror.RenameProductFolder(ctx, product.FolderPath, product.SKU, name)
			if err != nil {
				return nil, err
			}
			product.FolderPath = newPath
			renamed = true
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if newCategory != nil {
		product.CategoryID = in.CategoryID
		product.Category = newCategory
	}
	if in.Production != nil {
		product.Production = *in.Production
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	if in.Color != nil {
		product.Color = in.Color
	}
	if in.PrintTime != nil {
		product.PrintTime = in.PrintTime
	}
	if in.Weight != nil {
		product.Weight = in.Weight
	}
	if in.Rating != nil {
		product.Rating = *in.Rating
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.repos.Products.WithTx(tx)
		if err := products.Save(ctx, product); err != nil {
			return err
		}
		if in.TagIDs != nil {
			if err := products.ReplaceTags(ctx, product, newTags); err != nil {
				return err
			}
		}
		if in.MaterialIDs != nil {
			if err := products.ReplaceMaterials(ctx, product, newMaterials); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if renamed {
			// Put the folder back under the name still committed in the
			// database, even when the commit failed on a dead context.
			if _, undoErr := s.mirror.RenameProductFolder(context.WithoutCancel(ctx), product.FolderPath, product.SKU, oldName); undoErr != nil {
				log.Error("failed to undo folder rename after update failure",
					zap.String("sku", product.SKU),
					zap.String("path", product.FolderPath),
					zap.Error(undoErr))
			}
		}
		return nil, err
	}

	if err := s.mirror.RewriteMetadata(ctx, product.FolderPath, mirror.FromProduct(product)); err != nil {
		// The row is committed; reconciliation picks the file up later.
		log.Error("metadata rewrite failed after update",
			zap.String("sku", product.SKU),
			zap.Error(err))
	}

	log.Info("product updated",
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU),
		zap.Bool("renamed", renamed))
	return product, nil
}

// Delete removes the product row and its association rows, then optionally
// deletes the folder. The row goes first: a leftover folder is recoverable
// from its metadata, a row without history is not. Folder removal failures
// are logged, not returned.
func (s *ProductService) Delete(ctx context.Context, id uint, deleteFiles bool) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	product, err := s.repos.Products.FindByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.repos.Products.WithTx(tx)
		if err := products.ClearAssociations(ctx, product); err != nil {
			return err
		}
		return products.Delete(ctx, product)
	})
	if err != nil {
		return err
	}

	if deleteFiles {
		if err := s.mirror.DeleteProductFolder(ctx, product.FolderPath); err != nil {
			log.Error("failed to delete product folder",
				zap.String("sku", product.SKU),
				zap.String("path", product.FolderPath),
				zap.Error(err))
		}
	}

	log.Info("product deleted",
		zap.Uint("product_id", id),
		zap.String("sku", product.SKU),
		zap.Bool("delete_files", deleteFiles))
	return nil
}

// InventoryUpdateInput carries the inventory counters; nil means leave
// unchanged.
type InventoryUpdateInput struct {
	StockQuantity *int `json:"stock_quantity"`
	ReorderPoint  *int `json:"reorder_point"`
	UnitCost      *int `json:"unit_cost"`
	SellingPrice  *int `json:"selling_price"`
}

func (in InventoryUpdateInput) validate() error {
	for _, v := range []*int{in.StockQuantity, in.ReorderPoint, in.UnitCost, in.SellingPrice} {
		if v != nil && *v < 0 {
			return fmt.Errorf("inventory values must not be negative: %w", apperr.ErrInvalidArgument)
		}
	}
	return nil
}

// UpdateInventory merges the supplied counters into the product addressed
// by SKU and rewrites its metadata file.
func (s *ProductService) UpdateInventory(ctx context.Context, skuCode string, in InventoryUpdateInput) (*model.Product, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	if err := in.validate(); err != nil {
		return nil, err
	}
	product, err := s.repos.Products.FindBySKU(ctx, skuCode)
	if err != nil {
		return nil, err
	}

	if in.StockQuantity != nil {
		product.StockQuantity = *in.StockQuantity
	}
	if in.ReorderPoint != nil {
		product.ReorderPoint = *in.ReorderPoint
	}
	if in.UnitCost != nil {
		product.UnitCost = in.UnitCost
	}
	if in.SellingPrice != nil {
		product.SellingPrice = in.SellingPrice
	}

	if err := s.repos.Products.Save(ctx, product); err != nil {
		return nil, err
	}

	if err := s.mirror.RewriteMetadata(ctx, product.FolderPath, mirror.FromProduct(product)); err != nil {
		log.Error("metadata rewrite failed after inventory update",
			zap.String("sku", product.SKU),
			zap.Error(err))
	}

	log.Info("inventory updated",
		zap.String("sku", product.SKU),
		zap.Int("stock_quantity", product.StockQuantity),
		zap.Int("reorder_point", product.ReorderPoint))
	return product, nil
}

// Get returns the product with its associations preloaded.
func (s *ProductService) Get(ctx context.Context, id uint) (*model.Product, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.repos.Products.FindByID(ctx, id)
}

// GetBySKU returns the product addressed by SKU.
func (s *ProductService) GetBySKU(ctx context.Context, skuCode string) (*model.Product, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.repos.Products.FindBySKU(ctx, skuCode)
}

// List returns every live product ordered by SKU.
func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.repos.Products.FindAll(ctx)
}

// Search matches name, description and SKU case-insensitively.
func (s *ProductService) Search(ctx context.Context, query string) ([]model.Product, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.repos.Products.Search(ctx, query)
}
