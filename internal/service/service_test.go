package service

import (
	"context"
	"testing"

	"catalog-service/internal/mirror"
	"catalog-service/internal/model"
	"catalog-service/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fixture struct {
	repos    *repository.Repositories
	mirror   *mirror.Mirror
	products *ProductService
	tags     *TagService
	baseDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureAt(t, t.TempDir())
}

// newFixtureAt opens a fresh database over an existing products directory,
// which is how a restore after database loss looks.
func newFixtureAt(t *testing.T, baseDir string) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A second pooled connection would see its own empty in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Product{}, &model.Category{}, &model.Tag{}, &model.Material{}))

	repos := repository.NewRepositories(db)
	m := mirror.New(baseDir, zap.NewNop())
	require.NoError(t, m.EnsureBaseDir())

	return &fixture{
		repos:    repos,
		mirror:   m,
		products: NewProductService(repos, m, 0),
		tags:     NewTagService(repos, 0),
		baseDir:  baseDir,
	}
}

func (f *fixture) createCategory(t *testing.T, name, initials string) *model.Category {
	t.Helper()
	c := &model.Category{Name: name, SKUInitials: initials}
	require.NoError(t, f.repos.Categories.Create(context.Background(), c))
	return c
}

func (f *fixture) createTag(t *testing.T, name string) *model.Tag {
	t.Helper()
	tag, err := f.repos.Tags.FindOrCreateByName(context.Background(), name)
	require.NoError(t, err)
	return tag
}

func (f *fixture) createMaterial(t *testing.T, name string) *model.Material {
	t.Helper()
	material, err := f.repos.Materials.FindOrCreateByName(context.Background(), name)
	require.NoError(t, err)
	return material
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func uintPtr(v uint) *uint { return &v }

func boolPtr(v bool) *bool { return &v }
