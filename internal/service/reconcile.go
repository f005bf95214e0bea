package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"catalog-service/internal/apperr"
	"catalog-service/internal/mirror"
	"catalog-service/internal/model"
	"catalog-service/internal/repository"
	"catalog-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Issue kinds reported by a reconciliation pass.
const (
	IssueFolderMissing   = "folder_missing"
	IssueMetadataMissing = "metadata_missing"
	IssueMetadataStale   = "metadata_stale"
	IssueOrphanFolder    = "orphan_folder"
)

// ReconcileIssue flags one place where the database and the filesystem
// mirror disagree.
type ReconcileIssue struct {
	SKU        string `json:"sku,omitempty"`
	FolderPath string `json:"folder_path"`
	Issue      string `json:"issue"`
}

// ReconcileReport lists every cross-store inconsistency found. Nothing is
// repaired here; operators act on the report.
type ReconcileReport struct {
	ProductsChecked int              `json:"products_checked"`
	FoldersChecked  int              `json:"folders_checked"`
	Issues          []ReconcileIssue `json:"issues"`
}

// RestoreResult summarizes one restore pass over the mirror.
type RestoreResult struct {
	Restored int `json:"restored"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// ReconcileService compares the two stores and rebuilds database rows from
// metadata documents after a database loss.
type ReconcileService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	mirror *mirror.Mirror
}

func NewReconcileService(repos *repository.Repositories, m *mirror.Mirror) *ReconcileService {
	return &ReconcileService{db: repos.DB(), repos: repos, mirror: m}
}

// Report walks every live product and every folder under the base
// directory and reports where they disagree. Folders whose metadata names
// a SKU the database knows are left to the product-side checks.
func (s *ReconcileService) Report(ctx context.Context) (*ReconcileReport, error) {
	products, err := s.repos.Products.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Issues: []ReconcileIssue{}}
	tracked := make(map[string]bool, len(products))
	for i := range products {
		p := &products[i]
		report.ProductsChecked++
		tracked[p.FolderPath] = true

		if !s.mirror.HasFolder(p.FolderPath) {
			report.Issues = append(report.Issues, ReconcileIssue{
				SKU: p.SKU, FolderPath: p.FolderPath, Issue: IssueFolderMissing,
			})
			continue
		}
		doc, err := s.mirror.ReadMetadata(p.FolderPath)
		if err != nil {
			issue := IssueMetadataStale
			if errors.Is(err, apperr.ErrNotFound) {
				issue = IssueMetadataMissing
			}
			report.Issues = append(report.Issues, ReconcileIssue{
				SKU: p.SKU, FolderPath: p.FolderPath, Issue: issue,
			})
			continue
		}
		if !metadataEqual(mirror.FromProduct(p), doc) {
			report.Issues = append(report.Issues, ReconcileIssue{
				SKU: p.SKU, FolderPath: p.FolderPath, Issue: IssueMetadataStale,
			})
		}
	}

	dirs, err := s.mirror.ProductDirs()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		report.FoldersChecked++
		if tracked[dir] {
			continue
		}
		doc, err := s.mirror.ReadMetadata(dir)
		if err != nil || doc.SKU == "" {
			report.Issues = append(report.Issues, ReconcileIssue{
				FolderPath: dir, Issue: IssueOrphanFolder,
			})
			continue
		}
		known, err := s.repos.Products.SKUExists(ctx, doc.SKU)
		if err != nil {
			return nil, err
		}
		if !known {
			report.Issues = append(report.Issues, ReconcileIssue{
				SKU: doc.SKU, FolderPath: dir, Issue: IssueOrphanFolder,
			})
		}
	}
	return report, nil
}

// metadataEqual compares two documents ignoring tag and material order and
// treating absent lists as empty.
func metadataEqual(a, b *mirror.Metadata) bool {
	ac, bc := *a, *b
	ac.Tags = sortedCopy(a.Tags)
	bc.Tags = sortedCopy(b.Tags)
	ac.Materials = sortedCopy(a.Materials)
	bc.Materials = sortedCopy(b.Materials)
	return reflect.DeepEqual(ac, bc)
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

// RestoreFromMirror rebuilds missing product rows from the metadata
// documents on disk. Folders whose SKU already exists, live or deleted,
// are skipped; a folder that cannot be restored is counted and the pass
// moves on.
func (s *ReconcileService) RestoreFromMirror(ctx context.Context) (*RestoreResult, error) {
	log := logger.FromContext(ctx)

	dirs, err := s.mirror.ProductDirs()
	if err != nil {
		return nil, err
	}

	res := &RestoreResult{}
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := s.mirror.ReadMetadata(dir)
		if err != nil {
			log.Warn("folder has no readable metadata",
				zap.String("path", dir), zap.Error(err))
			res.Failed++
			continue
		}
		if doc.SKU == "" || doc.Name == "" {
			log.Warn("metadata is missing sku or name", zap.String("path", dir))
			res.Failed++
			continue
		}
		exists, err := s.repos.Products.SKUExists(ctx, doc.SKU)
		if err != nil {
			return nil, err
		}
		if exists {
			res.Skipped++
			continue
		}
		if err := s.restoreOne(ctx, dir, doc); err != nil {
			log.Error("failed to restore product",
				zap.String("sku", doc.SKU), zap.String("path", dir), zap.Error(err))
			res.Failed++
			continue
		}
		log.Info("restored product from metadata",
			zap.String("sku", doc.SKU), zap.String("path", dir))
		res.Restored++
	}

	log.Info("restore pass finished",
		zap.Int("restored", res.Restored),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed))
	return res, nil
}

func (s *ReconcileService) restoreOne(ctx context.Context, dir string, doc *mirror.Metadata) error {
	category, err := s.restoreCategory(ctx, doc.Category)
	if err != nil {
		return err
	}

	var tags []model.Tag
	for _, name := range doc.Tags {
		tag, err := s.repos.Tags.FindOrCreateByName(ctx, name)
		if err != nil {
			if errors.Is(err, apperr.ErrInvalidArgument) {
				continue
			}
			return err
		}
		tags = append(tags, *tag)
	}

	// Early documents carried a single material string instead of a list,
	// sometimes the literal "null".
	materialNames := doc.Materials
	if len(materialNames) == 0 && doc.LegacyMaterial != nil {
		materialNames = []string{*doc.LegacyMaterial}
	}
	var materials []model.Material
	for _, name := range materialNames {
		if name == "" || strings.EqualFold(name, "null") {
			continue
		}
		material, err := s.repos.Materials.FindOrCreateByName(ctx, name)
		if err != nil {
			if errors.Is(err, apperr.ErrInvalidArgument) {
				continue
			}
			return err
		}
		materials = append(materials, *material)
	}

	printTime := doc.PrintTime
	if printTime != nil && *printTime == "__:__" {
		printTime = nil
	}

	product := &model.Product{
		Name:          doc.Name,
		Description:   doc.Description,
		SKU:           doc.SKU,
		CategoryID:    &category.ID,
		Category:      category,
		Production:    doc.Production == nil || *doc.Production,
		Active:        doc.Active == nil || *doc.Active,
		Color:         doc.Color,
		PrintTime:     printTime,
		Weight:        doc.Weight,
		Rating:        doc.Rating,
		FolderPath:    dir,
		StockQuantity: doc.StockQuantity,
		ReorderPoint:  doc.ReorderPoint,
		UnitCost:      doc.UnitCost,
		SellingPrice:  doc.SellingPrice,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.repos.Products.WithTx(tx)
		if err := products.Create(ctx, product); err != nil {
			return err
		}
		if err := products.ReplaceTags(ctx, product, tags); err != nil {
			return err
		}
		return products.ReplaceMaterials(ctx, product, materials)
	})
}

// restoreCategory resolves the document's category block to a row by SKU
// initials, creating it on first sight. Documents without a block land in
// the catch-all Uncategorized category.
func (s *ReconcileService) restoreCategory(ctx context.Context, block *mirror.MetadataCategory) (*model.Category, error) {
	if block == nil {
		return s.findOrCreateCategory(ctx, "Uncategorized", "UNC", "Products without category")
	}
	return s.findOrCreateCategory(ctx, block.Name, block.SKUInitials, block.Description)
}

func (s *ReconcileService) findOrCreateCategory(ctx context.Context, name, initials, description string) (*model.Category, error) {
	normalized, err := repository.NormalizeInitials(initials)
	if err != nil {
		return nil, fmt.Errorf("category initials %q: %w", initials, err)
	}
	category, err := s.repos.Categories.FindByInitials(ctx, normalized)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	category = &model.Category{Name: name, SKUInitials: normalized, Description: description}
	if err := s.repos.Categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}
