package service

import (
	"context"
	"testing"

	"blogicum/internal/models"
	"blogicum/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTaxonomyService(t *testing.T) *TaxonomyService {
	t.Helper()
	db := setupTestDB(t)
	return NewTaxonomyService(
		repository.NewCategoryRepository(db),
		repository.NewLocationRepository(db),
	)
}

func TestCreateCategory_SlugDerivedFromTitle(t *testing.T) {
	svc := newTestTaxonomyService(t)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, CreateCategoryInput{
		Title:       "Mountain Hiking Trails",
		IsPublished: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "mountain-hiking-trails", category.Slug)
}

func TestCreateCategory_RejectsDuplicateSlug(t *testing.T) {
	svc := newTestTaxonomyService(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, CreateCategoryInput{Title: "Travel", IsPublished: true})
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, CreateCategoryInput{Title: "Other", Slug: "travel", IsPublished: true})
	assert.True(t, models.IsValidation(err))
}

func TestCreateCategory_RejectsBadSlug(t *testing.T) {
	svc := newTestTaxonomyService(t)

	_, err := svc.CreateCategory(context.Background(), CreateCategoryInput{
		Title: "Travel", Slug: "not a slug!", IsPublished: true,
	})
	assert.True(t, models.IsValidation(err))
}

func TestCreateLocation_RequiresName(t *testing.T) {
	svc := newTestTaxonomyService(t)
	ctx := context.Background()

	_, err := svc.CreateLocation(ctx, CreateLocationInput{IsPublished: true})
	assert.True(t, models.IsValidation(err))

	location, err := svc.CreateLocation(ctx, CreateLocationInput{Name: "Lisbon", IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", location.Name)
}

func TestDeleteCategory_MissingIsNotFound(t *testing.T) {
	svc := newTestTaxonomyService(t)

	err := svc.DeleteCategory(context.Background(), 999)
	assert.True(t, models.IsNotFound(err))
}
