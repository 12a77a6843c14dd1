package service

import (
	"context"
	"errors"

	"blogicum/internal/models"
	"blogicum/internal/repository"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// TaxonomyService manages the reference data posts hang off: categories and
// locations. These were maintained through admin tooling in earlier
// generations of the app; here they are explicit admin-only operations.
type TaxonomyService struct {
	categoryRepo repository.CategoryRepository
	locationRepo repository.LocationRepository
}

type CreateCategoryInput struct {
	Title       string
	Description string
	Slug        string
	IsPublished bool
}

type CreateLocationInput struct {
	Name        string
	IsPublished bool
}

func NewTaxonomyService(
	categoryRepo repository.CategoryRepository,
	locationRepo repository.LocationRepository,
) *TaxonomyService {
	return &TaxonomyService{
		categoryRepo: categoryRepo,
		locationRepo: locationRepo,
	}
}

// CreateCategory creates a category, deriving the URL slug from the title
// when none is supplied. Slugs are globally unique.
func (s *TaxonomyService) CreateCategory(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 256 characters)")
	}

	categorySlug := in.Slug
	if categorySlug == "" {
		categorySlug = slug.Make(in.Title)
	}
	if !slug.IsSlug(categorySlug) {
		return nil, models.NewValidationError("Slug may contain only letters, numbers, hyphens, and underscores")
	}

	if _, err := s.categoryRepo.GetBySlug(ctx, categorySlug); err == nil {
		return nil, models.NewValidationError("Slug is already in use")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category := &models.Category{
		Title:       in.Title,
		Description: in.Description,
		Slug:        categorySlug,
		IsPublished: in.IsPublished,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *TaxonomyService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.categoryRepo.List(ctx)
}

// DeleteCategory removes a category; posts referencing it are detached, not
// deleted.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.categoryRepo.GetByID(ctx, id); err != nil {
		return asNotFound(err, "category", id)
	}
	return s.categoryRepo.Delete(ctx, id)
}

func (s *TaxonomyService) CreateLocation(ctx context.Context, in CreateLocationInput) (*models.Location, error) {
	if in.Name == "" {
		return nil, models.NewValidationError("Name is required")
	}
	if len(in.Name) > maxTitleLen {
		return nil, models.NewValidationError("Name too long (max 256 characters)")
	}

	location := &models.Location{
		Name:        in.Name,
		IsPublished: in.IsPublished,
	}
	if err := s.locationRepo.Create(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

func (s *TaxonomyService) ListLocations(ctx context.Context) ([]*models.Location, error) {
	return s.locationRepo.List(ctx)
}

// DeleteLocation removes a location; posts referencing it are detached.
func (s *TaxonomyService) DeleteLocation(ctx context.Context, id uint) error {
	if _, err := s.locationRepo.GetByID(ctx, id); err != nil {
		return asNotFound(err, "location", id)
	}
	return s.locationRepo.Delete(ctx, id)
}
