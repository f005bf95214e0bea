package repository

import (
	"context"
	"testing"

	"catalog-service/internal/apperr"
	"catalog-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialFindOrCreate(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	pla, err := repos.Materials.FindOrCreateByName(ctx, "  PLA  ")
	require.NoError(t, err)
	assert.Equal(t, "PLA", pla.Name)

	// Case-insensitive match reuses the row and keeps the original casing.
	same, err := repos.Materials.FindOrCreateByName(ctx, "pla")
	require.NoError(t, err)
	assert.Equal(t, pla.ID, same.ID)
	assert.Equal(t, "PLA", same.Name)

	_, err = repos.Materials.FindOrCreateByName(ctx, "   ")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestMaterialDelete(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	err := repos.Materials.Delete(ctx, 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	pla, err := repos.Materials.FindOrCreateByName(ctx, "PLA")
	require.NoError(t, err)
	p := createProduct(t, repos, "TOY-0001", "Toy Car", nil)
	require.NoError(t, repos.Products.ReplaceMaterials(ctx, p, []model.Material{*pla}))

	err = repos.Materials.Delete(ctx, pla.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, repos.Products.ReplaceMaterials(ctx, p, nil))
	assert.NoError(t, repos.Materials.Delete(ctx, pla.ID))

	all, err := repos.Materials.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
