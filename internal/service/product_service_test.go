package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"catalog-service/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.createCategory(t, "Toys", "TOY")
	tag := f.createTag(t, "toy-car")
	material := f.createMaterial(t, "PLA")

	res, err := f.products.Create(ctx, CreateProductInput{
		Name:          "Red Car",
		Description:   "A small red car",
		CategoryID:    &cat.ID,
		TagIDs:        []uint{tag.ID, 999},
		MaterialIDs:   []uint{material.ID},
		Production:    true,
		StockQuantity: intPtr(10),
		ReorderPoint:  intPtr(5),
		UnitCost:      intPtr(1000),
		SellingPrice:  intPtr(1500),
	})
	require.NoError(t, err)
	assert.Equal(t, "TOY-0001", res.SKU)

	p, err := f.products.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Red Car", p.Name)
	assert.True(t, p.Production)
	assert.True(t, p.Active)
	require.NotNil(t, p.Category)
	assert.Equal(t, "Toys", p.Category.Name)

	// The unknown tag id is dropped, not an error.
	require.Len(t, p.Tags, 1)
	assert.Equal(t, "toy-car", p.Tags[0].Name)
	require.Len(t, p.Materials, 1)
	assert.Equal(t, "PLA", p.Materials[0].Name)

	wantDir := filepath.Join(f.baseDir, "TOY-0001 - Red Car")
	assert.Equal(t, wantDir, p.FolderPath)
	for _, sub := range []string{"images", "models", "notes", "print_files"} {
		info, err := os.Stat(filepath.Join(wantDir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	doc, err := f.mirror.ReadMetadata(wantDir)
	require.NoError(t, err)
	assert.Equal(t, "TOY-0001", doc.SKU)
	assert.Equal(t, []string{"toy-car"}, doc.Tags)
	assert.Equal(t, 10, doc.StockQuantity)
	require.NotNil(t, doc.Category)
	assert.Equal(t, "TOY", doc.Category.SKUInitials)
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.createCategory(t, "Toys", "TOY")

	cases := []struct {
		name string
		in   CreateProductInput
	}{
		{"empty name", CreateProductInput{Name: "  ", CategoryID: &cat.ID}},
		{"path separator in name", CreateProductInput{Name: "a/b", CategoryID: &cat.ID}},
		{"missing category", CreateProductInput{Name: "Car"}},
		{"rating out of range", CreateProductInput{Name: "Car", CategoryID: &cat.ID, Rating: intPtr(6)}},
	}
	for _, tc := range cases {
		_, err := f.products.Create(ctx, tc.in)
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument, tc.name)
	}

	_, err := f.products.Create(ctx, CreateProductInput{Name: "Car", CategoryID: uintPtr(999)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// No folder survives a rejected create.
	dirs, err := f.mirror.ProductDirs()
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestCreateProductSequentialSKUs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	toys := f.createCategory(t, "Toys", "TOY")
	guitars := f.createCategory(t, "Guitars", "GUI")

	first, err := f.products.Create(ctx, CreateProductInput{Name: "Car", CategoryID: &toys.ID})
	require.NoError(t, err)
	second, err := f.products.Create(ctx, CreateProductInput{Name: "Boat", CategoryID: &toys.ID})
	require.NoError(t, err)
	other, err := f.products.Create(ctx, CreateProductInput{Name: "Strat", CategoryID: &guitars.ID})
	require.NoError(t, err)

	assert.Equal(t, "TOY-0001", first.SKU)
	assert.Equal(t, "TOY-0002", second.SKU)
	assert.Equal(t, "GUI-0001", other.SKU)
}

func TestUpdateProductRenamesFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.createCategory(t, "Toys", "TOY")
	res, err := f.products.Create(ctx, CreateProductInput{Name: "Red Car", CategoryID: &cat.ID})
	require.NoError(t, err)

	updated, err := f.products.Update(ctx, res.ID, UpdateProductInput{Name: strPtr("Blue Car")})
	require.NoError(t, err)
	assert.Equal(t, "Blue Car", updated.Name)

	oldDir := filepath.Join(f.baseDir, "TOY-0001 - Red Car")
	newDir := filepath.Join(f.baseDir, "TOY-0001 - Blue Car")
	assert.NoDirExists(t, oldDir)
	assert.DirExists(t, newDir)
	assert.Equal(t, newDir, updated.FolderPath)

	doc, err := f.mirror.ReadMetadata(newDir)
	require.NoError(t, err)
	assert.Equal(t, "Blue Car", doc.Name)

	p, err := f.products.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Blue Car", p.Name)
	assert.Equal(t, newDir, p.FolderPath)
}

func TestUpdateProductPartialMerge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.createCategory(t, "Toys", "TOY")
	tag := f.createTag(t, "toy-car")
	res, err := f.products.Create(ctx, CreateProductInput{
		Name:        "Red Car",
		Description: "original",
		CategoryID:  &cat.ID,
		TagIDs:      []uint{tag.ID},
	})
	require.NoError(t, err)

	// Only the description changes; the tag set stays because it was not
	// supplied.
	updated, err := f.products.Update(ctx, res.ID, UpdateProductInput{
		Description: strPtr("updated"),
		Production:  boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Red Car", updated.Name)
	assert.Equal(t, "updated", updated.Description)
	assert.True(t, updated.Production)
	assert.Len(t, updated.Tags, 1)

	// An explicit empty list clears the set.
	empty := []uint{}
	updated, err = f.products.Update(ctx, res.ID, UpdateProductInput{TagIDs: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)

	// The tag itself survives for other products.
	_, err = f.repos.Tags.FindOrCreateByName(ctx, "toy-car")
	require.NoError(t, err)
	count, err := f.repos.Tags.UsageCount(ctx, tag.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateProductRenameConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.createCategory(t, "Toys", "TOY")
	res, err := f.products.Create(ctx, CreateProductInput{Name: "Red Car", CategoryID: &cat.ID})
	require.NoError(t, err)

	// Something already sits where the renamed folder would land.
	blocked := filepath.Join(f.baseDir, "TOY-0001 - Blue Car")
	require.NoError(t, os.MkdirAll(blocked, 0o755))

	_, err = f.products.Update(ctx, res.ID, UpdateProductInput{Name: strPtr("Blue Car")})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// Nothing was committed and the folder kept its name.
	p, err := f.products.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Red Car", p.Name)
	assert.DirExists(t, filepath.Join(f.baseDir, "TOY-0001 - Red Car"))
}

func TestUpdateProductUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.createCategory(t, "Toys", "TOY")
	res, err := f.products.Create(ctx, CreateProductInput{Name: "Red Car", CategoryID: &cat.ID})
	require.NoError(t, err)

	_, err = f.products.Update(ctx, res.ID, UpdateProductInput{CategoryID: uintPtr(999)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.products.Update(ctx, 999, UpdateProductInput{Description: strPtr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.createCategory(t, "Toys", "TOY")
	tag := f.createTag(t, "toy-car")
	res, err := f.products.Create(ctx, CreateProductInput{
		Name:       "Red Car",
		CategoryID: &cat.ID,
		TagIDs:     []uint{tag.ID},
	})
	require.NoError(t, err)
	folder := filepath.Join(f.baseDir, "TOY-0001 - Red Car")

	require.NoError(t, f.products.Delete(ctx, res.ID, true))

	_, err = f.products.Get(ctx, res.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoDirExists(t, folder)

	count, err := f.repos.Tags.UsageCount(ctx, tag.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The SKU stays burned; the next product gets a fresh number.
	next, err := f.products.Create(ctx, CreateProductInput{Name: "Boat", CategoryID: &cat.ID})
	require.NoError(t, err)
	assert.Equal(t, "TOY-0002", next.SKU)
}

func TestDeleteProductKeepsFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.createCategory(t, "Toys", "TOY")
	res, err := f.products.Create(ctx, CreateProductInput{Name: "Red Car", CategoryID: &cat.ID})
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(ctx, res.ID, false))
	assert.DirExists(t, filepath.Join(f.baseDir, "TOY-0001 - Red Car"))
}

func TestUpdateInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.createCategory(t, "Toys", "TOY")
	_, err := f.products.Create(ctx, CreateProductInput{Name: "Red Car", CategoryID: &cat.ID})
	require.NoError(t, err)

	p, err := f.products.UpdateInventory(ctx, "TOY-0001", InventoryUpdateInput{
		StockQuantity: intPtr(10),
		ReorderPoint:  intPtr(5),
		UnitCost:      intPtr(1000),
		SellingPrice:  intPtr(1500),
	})
	require.NoError(t, err)
	assert.Equal(t, 10, p.StockQuantity)
	assert.Equal(t, 5, p.ReorderPoint)

	doc, err := f.mirror.ReadMetadata(p.FolderPath)
	require.NoError(t, err)
	assert.Equal(t, 10, doc.StockQuantity)
	require.NotNil(t, doc.UnitCost)
	assert.Equal(t, 1000, *doc.UnitCost)

	// Partial update leaves the other counters alone.
	p, err = f.products.UpdateInventory(ctx, "TOY-0001", InventoryUpdateInput{StockQuantity: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, p.StockQuantity)
	assert.Equal(t, 5, p.ReorderPoint)

	_, err = f.products.UpdateInventory(ctx, "TOY-0001", InventoryUpdateInput{StockQuantity: intPtr(-1)})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.products.UpdateInventory(ctx, "ZZZ-0001", InventoryUpdateInput{StockQuantity: intPtr(1)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSearchProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.createCategory(t, "Toys", "TOY")
	_, err := f.products.Create(ctx, CreateProductInput{Name: "Red Car", Description: "fast", CategoryID: &cat.ID})
	require.NoError(t, err)
	_, err = f.products.Create(ctx, CreateProductInput{Name: "Blue Boat", Description: "slow", CategoryID: &cat.ID})
	require.NoError(t, err)

	found, err := f.products.Search(ctx, "RED")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Red Car", found[0].Name)

	found, err = f.products.Search(ctx, "toy-")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}
