package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phonehub/pkg/database"
	"phonehub/pkg/models"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewRepo(db)
}

func sampleDevice() models.Device {
	return models.Device{
		IdentityKey: "samsung galaxy s24",
		Brand:       "Samsung",
		Name:        "Galaxy S24",
		Slug:        "samsung-galaxy-s24",
		Price:       799,
		ShortSpecs: models.ShortSpecs{
			RAM:       "8GB",
			Processor: "Snapdragon 8 Gen 3",
		},
		Specs: []models.SpecGroup{
			{Category: "Display", Specs: []models.SpecEntry{{Feature: "Type", Value: "AMOLED"}}},
		},
		Images:      []string{"https://img.example.com/s24.jpg"},
		ReleaseDate: "2024-01-24",
		Provenance:  map[string]string{"name": "specchaser"},
	}
}

func TestUpsertAndFindDevice(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertDevice(ctx, sampleDevice()))

	got, err := repo.FindByIdentityKey(ctx, "samsung galaxy s24")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Galaxy S24", got.Name)
	assert.Equal(t, 799.0, got.Price)
	assert.Equal(t, "8GB", got.ShortSpecs.RAM)
	require.Len(t, got.Specs, 1)
	assert.Equal(t, "Display", got.Specs[0].Category)
	assert.Equal(t, map[string]string{"name": "specchaser"}, got.Provenance)

	missing, err := repo.FindByIdentityKey(ctx, "nokia 3310")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertDeviceIsIdempotent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertDevice(ctx, sampleDevice()))
	require.NoError(t, repo.UpsertDevice(ctx, sampleDevice()))

	_, devices, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, devices)
}

func TestUpsertBrandNeverDeletes(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBrand(ctx, models.Brand{Slug: "samsung", Name: "Samsung", Visible: true}))
	require.NoError(t, repo.UpsertBrand(ctx, models.Brand{Slug: "apple", Name: "Apple", Visible: true}))
	// second listing omits apple; it must survive
	require.NoError(t, repo.UpsertBrand(ctx, models.Brand{Slug: "samsung", Name: "Samsung Electronics", Visible: true}))

	brands, err := repo.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 2)

	samsung, err := repo.FindBrandBySlug(ctx, "samsung")
	require.NoError(t, err)
	require.NotNil(t, samsung)
	assert.Equal(t, "Samsung Electronics", samsung.Name)
}

func TestRecomputeBrandCounts(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBrand(ctx, models.Brand{Slug: "samsung", Name: "Samsung", Visible: true}))
	require.NoError(t, repo.UpsertBrand(ctx, models.Brand{Slug: "xiaomi", Name: "Xiaomi", Visible: true}))

	d1 := sampleDevice()
	d2 := sampleDevice()
	d2.IdentityKey = "samsung galaxy s24 ultra"
	d2.Name = "Galaxy S24 Ultra"
	d2.Slug = "samsung-galaxy-s24-ultra"
	require.NoError(t, repo.UpsertDevice(ctx, d1))
	require.NoError(t, repo.UpsertDevice(ctx, d2))

	require.NoError(t, repo.RecomputeBrandCounts(ctx))

	samsung, err := repo.FindBrandBySlug(ctx, "samsung")
	require.NoError(t, err)
	assert.Equal(t, 2, samsung.PhoneCount)

	xiaomi, err := repo.FindBrandBySlug(ctx, "xiaomi")
	require.NoError(t, err)
	assert.Equal(t, 0, xiaomi.PhoneCount)
}

func TestListDevicesFilters(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	d1 := sampleDevice()
	d2 := models.Device{
		IdentityKey: "xiaomi 14 pro",
		Brand:       "Xiaomi",
		Name:        "14 Pro",
		Slug:        "xiaomi-14-pro",
		Price:       899,
	}
	require.NoError(t, repo.UpsertDevice(ctx, d1))
	require.NoError(t, repo.UpsertDevice(ctx, d2))

	byKeyword, err := repo.ListDevices(ctx, ListQuery{Q: "galaxy", Limit: 10})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "Galaxy S24", byKeyword[0].Name)

	byBrand, err := repo.ListDevices(ctx, ListQuery{Brand: "xiaomi", Limit: 10})
	require.NoError(t, err)
	require.Len(t, byBrand, 1)
	assert.Equal(t, "14 Pro", byBrand[0].Name)

	total, err := repo.CountDevices(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}
