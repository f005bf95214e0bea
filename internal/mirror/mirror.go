// Package mirror maintains the on-disk copy of the catalog: one directory
// per product named "<SKU> - <Name>" holding a metadata.json document and
// the standard subfolders for images, models, notes and print files. The
// database is authoritative; the mirror is rebuilt from it, never the other
// way around (except through the explicit restore operation).
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catalog-service/internal/apperr"
	"catalog-service/internal/model"
	"catalog-service/prometheus"

	"go.uber.org/zap"
)

// MetadataFileName is the document kept in every product directory.
const MetadataFileName = "metadata.json"

var subfolders = []string{"images", "models", "notes", "print_files"}

// MetadataCategory is the category block nested inside a metadata document.
type MetadataCategory struct {
	Name        string `json:"name"`
	SKUInitials string `json:"sku_initials"`
	Description string `json:"description"`
}

// Metadata is the metadata.json document. Field order matches the document
// layout on disk.
type Metadata struct {
	SKU           string            `json:"sku"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Category      *MetadataCategory `json:"category"`
	Tags          []string          `json:"tags"`
	Materials     []string          `json:"materials"`
	Production    *bool             `json:"production"`
	Active        *bool             `json:"active"`
	Color         *string           `json:"color"`
	PrintTime     *string           `json:"print_time"`
	Weight        *int              `json:"weight"`
	Rating        int               `json:"rating"`
	StockQuantity int               `json:"stock_quantity"`
	ReorderPoint  int               `json:"reorder_point"`
	UnitCost      *int              `json:"unit_cost"`
	SellingPrice  *int              `json:"selling_price"`

	// Documents written by early versions carried a single material string
	// instead of a list. Read-only; never written back.
	LegacyMaterial *string `json:"material,omitempty"`
}

// FromProduct builds the metadata document for a product row. Tags,
// materials and category must already be loaded on the product.
func FromProduct(p *model.Product) *Metadata {
	production := p.Production
	active := p.Active
	doc := &Metadata{
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		Production:    &production,
		Active:        &active,
		Color:         p.Color,
		PrintTime:     p.PrintTime,
		Weight:        p.Weight,
		Rating:        p.Rating,
		StockQuantity: p.StockQuantity,
		ReorderPoint:  p.ReorderPoint,
		UnitCost:      p.UnitCost,
		SellingPrice:  p.SellingPrice,
		Tags:          make([]string, 0, len(p.Tags)),
		Materials:     make([]string, 0, len(p.Materials)),
	}
	if p.Category != nil {
		doc.Category = &MetadataCategory{
			Name:        p.Category.Name,
			SKUInitials: p.Category.SKUInitials,
			Description: p.Category.Description,
		}
	}
	for _, t := range p.Tags {
		doc.Tags = append(doc.Tags, t.Name)
	}
	for _, m := range p.Materials {
		doc.Materials = append(doc.Materials, m.Name)
	}
	return doc
}

// FolderName returns the directory name for a product, "<SKU> - <Name>".
func FolderName(sku, name string) string {
	return fmt.Sprintf("%s - %s", sku, name)
}

// Mirror manages the product directories under a single base directory.
type Mirror struct {
	baseDir string
	log     *zap.Logger
}

func New(baseDir string, log *zap.Logger) *Mirror {
	return &Mirror{baseDir: baseDir, log: log}
}

// BaseDir returns the directory products are mirrored under.
func (m *Mirror) BaseDir() string {
	return m.baseDir
}

// EnsureBaseDir creates the base directory if it does not exist yet.
func (m *Mirror) EnsureBaseDir() error {
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return fmt.Errorf("create products directory: %w", err)
	}
	return nil
}

// CreateProductFolder creates the product directory with its subfolders and
// writes the initial metadata document. Returns the folder path. An already
// existing directory is reused rather than treated as an error.
func (m *Mirror) CreateProductFolder(ctx context.Context, doc *Metadata) (dir string, err error) {
	defer func() { prometheus.RecordMirrorOperation("create_folder", err) }()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir = filepath.Join(m.baseDir, FolderName(doc.SKU, doc.Name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create product folder: %w", err)
	}
	for _, sub := range subfolders {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return "", fmt.Errorf("create %s subfolder: %w", sub, err)
		}
	}
	if err := m.writeMetadata(dir, doc); err != nil {
		return "", err
	}
	m.log.Debug("created product folder",
		zap.String("sku", doc.SKU),
		zap.String("path", dir))
	return dir, nil
}

// RewriteMetadata replaces the metadata document in an existing product
// folder with the given one.
func (m *Mirror) RewriteMetadata(ctx context.Context, folderPath string, doc *Metadata) (err error) {
	defer func() { prometheus.RecordMirrorOperation("rewrite_metadata", err) }()
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(folderPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("product folder %s: %w", folderPath, apperr.ErrNotFound)
		}
		return fmt.Errorf("stat product folder: %w", err)
	}
	return m.writeMetadata(folderPath, doc)
}

// RenameProductFolder moves a product directory to match a renamed product
// and returns the new path. Fails with a conflict when the destination
// already exists, so the caller can abort before touching the database.
func (m *Mirror) RenameProductFolder(ctx context.Context, oldPath, sku, newName string) (newPath string, err error) {
	defer func() { prometheus.RecordMirrorOperation("rename_folder", err) }()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	newPath = filepath.Join(m.baseDir, FolderName(sku, newName))
	if oldPath == newPath {
		return newPath, nil
	}
	if _, err := os.Stat(oldPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("product folder %s: %w", oldPath, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("stat product folder: %w", err)
	}
	if _, err := os.Stat(newPath); err == nil {
		return "", fmt.Errorf("folder %s already exists: %w", newPath, apperr.ErrConflict)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat rename target: %w", err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", fmt.Errorf("rename product folder: %w", err)
	}
	m.log.Info("renamed product folder",
		zap.String("sku", sku),
		zap.String("from", oldPath),
		zap.String("to", newPath))
	return newPath, nil
}

// DeleteProductFolder removes a product directory and everything inside it.
// A missing directory is not an error. Paths outside the base directory are
// refused.
func (m *Mirror) DeleteProductFolder(ctx context.Context, folderPath string) (err error) {
	defer func() { prometheus.RecordMirrorOperation("delete_folder", err) }()
	if err := ctx.Err(); err != nil {
		return err
	}
	if folderPath == "" {
		return nil
	}
	base := filepath.Clean(m.baseDir) + string(os.PathSeparator)
	if !strings.HasPrefix(filepath.Clean(folderPath), base) {
		return fmt.Errorf("folder %s is outside the products directory: %w", folderPath, apperr.ErrInvalidArgument)
	}
	if err := os.RemoveAll(folderPath); err != nil {
		return fmt.Errorf("delete product folder: %w", err)
	}
	m.log.Info("deleted product folder", zap.String("path", folderPath))
	return nil
}

// HasFolder reports whether the path exists and is a directory.
func (m *Mirror) HasFolder(folderPath string) bool {
	info, err := os.Stat(folderPath)
	return err == nil && info.IsDir()
}

// ReadMetadata loads the metadata document from a product folder.
func (m *Mirror) ReadMetadata(folderPath string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(folderPath, MetadataFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("metadata in %s: %w", folderPath, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var doc Metadata
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode metadata in %s: %w", folderPath, err)
	}
	return &doc, nil
}

// ProductDirs lists the product directories currently under the base dir.
func (m *Mirror) ProductDirs() ([]string, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read products directory: %w", err)
	}
	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(m.baseDir, e.Name()))
		}
	}
	return dirs, nil
}

// writeMetadata writes the document whole to a temp file in the same
// directory and renames it over metadata.json, so a reader never observes a
// partially written document.
func (m *Mirror) writeMetadata(dir string, doc *Metadata) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".metadata-*.json")
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	// CreateTemp files are 0600; metadata should be as readable as the
	// folders around it.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write metadata: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, MetadataFileName)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
