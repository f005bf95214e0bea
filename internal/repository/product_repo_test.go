package repository

import (
	"context"
	"testing"

	"catalog-service/internal/apperr"
	"catalog-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductCreateAndFind(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	c := createCategory(t, repos, "Guitars", "GUI")
	created := createProduct(t, repos, "GUI-0001", "Toy Guitar", &c.ID)

	tag, err := repos.Tags.FindOrCreateByName(ctx, "instrument")
	require.NoError(t, err)
	require.NoError(t, repos.Products.ReplaceTags(ctx, created, []model.Tag{*tag}))

	byID, err := repos.Products.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "GUI-0001", byID.SKU)
	require.NotNil(t, byID.Category)
	assert.Equal(t, "Guitars", byID.Category.Name)
	require.Len(t, byID.Tags, 1)
	assert.Equal(t, "instrument", byID.Tags[0].Name)

	bySKU, err := repos.Products.FindBySKU(ctx, "GUI-0001")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySKU.ID)

	_, err = repos.Products.FindByID(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = repos.Products.FindBySKU(ctx, "GUI-9999")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProductDuplicateSKU(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	createProduct(t, repos, "GUI-0001", "First", nil)

	err := repos.Products.Create(ctx, &model.Product{SKU: "GUI-0001", Name: "Second"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSKUScanIncludesSoftDeleted(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	p := createProduct(t, repos, "GUI-0001", "Gone Soon", nil)
	createProduct(t, repos, "GUI-0002", "Still Here", nil)
	createProduct(t, repos, "GUX-0001", "Other Prefix", nil)

	require.NoError(t, repos.Products.Delete(ctx, p))

	// The deleted row is invisible to normal reads.
	_, err := repos.Products.FindBySKU(ctx, "GUI-0001")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// But its SKU stays reserved for the allocator.
	skus, err := repos.Products.SKUsWithPrefix(ctx, "GUI-")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"GUI-0001", "GUI-0002"}, skus)

	exists, err := repos.Products.SKUExists(ctx, "GUI-0001")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repos.Products.SKUExists(ctx, "GUI-0003")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReplaceTagsReconcilesTheDifference(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	p := createProduct(t, repos, "GUI-0001", "Toy Guitar", nil)

	tagA, err := repos.Tags.FindOrCreateByName(ctx, "acoustic")
	require.NoError(t, err)
	tagB, err := repos.Tags.FindOrCreateByName(ctx, "beginner")
	require.NoError(t, err)
	tagC, err := repos.Tags.FindOrCreateByName(ctx, "classic")
	require.NoError(t, err)

	require.NoError(t, repos.Products.ReplaceTags(ctx, p, []model.Tag{*tagA, *tagB}))
	require.NoError(t, repos.Products.ReplaceTags(ctx, p, []model.Tag{*tagB, *tagC}))

	got, err := repos.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	names := []string{}
	for _, tag := range got.Tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"beginner", "classic"}, names)

	countA, err := repos.Tags.UsageCount(ctx, tagA.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), countA)
	countB, err := repos.Tags.UsageCount(ctx, tagB.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), countB)

	// Replacing with an empty set clears everything.
	require.NoError(t, repos.Products.ReplaceTags(ctx, p, nil))
	got, err = repos.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestReplaceMaterials(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	p := createProduct(t, repos, "GUI-0001", "Toy Guitar", nil)

	pla, err := repos.Materials.FindOrCreateByName(ctx, "PLA")
	require.NoError(t, err)
	petg, err := repos.Materials.FindOrCreateByName(ctx, "PETG")
	require.NoError(t, err)

	require.NoError(t, repos.Products.ReplaceMaterials(ctx, p, []model.Material{*pla}))
	require.NoError(t, repos.Products.ReplaceMaterials(ctx, p, []model.Material{*petg}))

	got, err := repos.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Materials, 1)
	assert.Equal(t, "PETG", got.Materials[0].Name)
}

func TestProductSearch(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	first := createProduct(t, repos, "GUI-0001", "Toy Guitar", nil)
	first.Description = "small acoustic guitar"
	require.NoError(t, repos.Products.Save(ctx, first))
	createProduct(t, repos, "VAS-0001", "Spiral Vase", nil)

	byName, err := repos.Products.Search(ctx, "GUITAR")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "GUI-0001", byName[0].SKU)

	byDescription, err := repos.Products.Search(ctx, "acoustic")
	require.NoError(t, err)
	assert.Len(t, byDescription, 1)

	bySKU, err := repos.Products.Search(ctx, "vas-0001")
	require.NoError(t, err)
	require.Len(t, bySKU, 1)
	assert.Equal(t, "Spiral Vase", bySKU[0].Name)

	none, err := repos.Products.Search(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFindAllOrdersBySKU(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	createProduct(t, repos, "VAS-0001", "Vase", nil)
	createProduct(t, repos, "GUI-0001", "Guitar", nil)

	all, err := repos.Products.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "GUI-0001", all[0].SKU)
	assert.Equal(t, "VAS-0001", all[1].SKU)
}

func TestCountByCategoryExcludesSoftDeleted(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	c := createCategory(t, repos, "Guitars", "GUI")
	p1 := createProduct(t, repos, "GUI-0001", "One", &c.ID)
	createProduct(t, repos, "GUI-0002", "Two", &c.ID)

	count, err := repos.Products.CountByCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repos.Products.Delete(ctx, p1))
	count, err = repos.Products.CountByCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestClearAssociationsThenDelete(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	p := createProduct(t, repos, "GUI-0001", "Toy Guitar", nil)
	tag, err := repos.Tags.FindOrCreateByName(ctx, "instrument")
	require.NoError(t, err)
	require.NoError(t, repos.Products.ReplaceTags(ctx, p, []model.Tag{*tag}))

	require.NoError(t, repos.Products.ClearAssociations(ctx, p))
	require.NoError(t, repos.Products.Delete(ctx, p))

	count, err := repos.Tags.UsageCount(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// The tag itself survives and can be deleted now.
	assert.NoError(t, repos.Tags.DeleteByName(ctx, "instrument"))
}
