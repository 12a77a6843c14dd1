// Package service implements the application's business rules on top of the
// repository layer: visibility policy, ownership checks and field validation.
package service

import (
	"context"
	"errors"
	"time"

	"blogicum/internal/models"
	"blogicum/internal/observability"
	"blogicum/internal/repository"

	"gorm.io/gorm"
)

const (
	maxTitleLen = 256
	maxTextLen  = 50000
)

type PostService struct {
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
	locationRepo repository.LocationRepository
	userRepo     repository.UserRepository
}

type CreatePostInput struct {
	AuthorID    uint
	Title       string
	Text        string
	Image       string
	PubDate     time.Time
	IsPublished bool
	CategoryID  *uint
	LocationID  *uint
}

type UpdatePostInput struct {
	ActorID     uint
	PostID      uint
	Title       string
	Text        string
	Image       string
	PubDate     time.Time
	IsPublished *bool
	CategoryID  *uint
	LocationID  *uint
}

type DeletePostInput struct {
	ActorID uint
	PostID  uint
}

func NewPostService(
	postRepo repository.PostRepository,
	categoryRepo repository.CategoryRepository,
	locationRepo repository.LocationRepository,
	userRepo repository.UserRepository,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		locationRepo: locationRepo,
		userRepo:     userRepo,
	}
}

// CreatePost persists a new post. The author is always the acting user; any
// author value in the submitted form is ignored by the handlers.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 256 characters)")
	}
	if in.Text == "" {
		return nil, models.NewValidationError("Text is required")
	}
	if len(in.Text) > maxTextLen {
		return nil, models.NewValidationError("Text too long (max 50000 characters)")
	}

	pubDate := in.PubDate
	if pubDate.IsZero() {
		pubDate = time.Now().UTC()
	}

	if err := s.checkReferences(ctx, in.CategoryID, in.LocationID); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:       in.Title,
		Text:        in.Text,
		Image:       in.Image,
		PubDate:     pubDate,
		IsPublished: in.IsPublished,
		AuthorID:    in.AuthorID,
		CategoryID:  in.CategoryID,
		LocationID:  in.LocationID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.PostsCreated.Inc()

	return s.postRepo.GetByID(ctx, post.ID)
}

// GetPost resolves a post for the detail page. The visibility invariant
// applies to everyone except the owning author, who may always view their
// own post regardless of its state.
func (s *PostService) GetPost(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "post", id)
	}
	if post.AuthorID != viewerID && !post.VisibleAt(time.Now().UTC()) {
		return nil, models.NewNotFoundError("post", id)
	}
	return post, nil
}

// GetOwnedPost resolves a post for editing or deletion confirmation. A
// non-author actor gets an ownership error, which handlers turn into a
// silent redirect to the detail page.
func (s *PostService) GetOwnedPost(ctx context.Context, id uint, actorID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "post", id)
	}
	if post.AuthorID != actorID {
		return nil, models.NewOwnershipError("post")
	}
	return post, nil
}

// ListFeed returns the front-page listing: visible posts, newest publication
// first, with comment counts.
func (s *PostService) ListFeed(ctx context.Context, limit, offset int) ([]*models.Post, int64, error) {
	q := repository.PostQuery{
		VisibleOnly: true,
		Now:         time.Now().UTC(),
		Limit:       limit,
		Offset:      offset,
	}
	return s.listAndCount(ctx, q)
}

// ListByCategory returns a published category and its visible posts.
func (s *PostService) ListByCategory(ctx context.Context, slug string, limit, offset int) (*models.Category, []*models.Post, int64, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, 0, asNotFound(err, "category", slug)
	}
	if !category.IsPublished {
		return nil, nil, 0, models.NewNotFoundError("category", slug)
	}

	q := repository.PostQuery{
		CategoryID:  &category.ID,
		VisibleOnly: true,
		Now:         time.Now().UTC(),
		Limit:       limit,
		Offset:      offset,
	}
	posts, total, err := s.listAndCount(ctx, q)
	if err != nil {
		return nil, nil, 0, err
	}
	return category, posts, total, nil
}

// ListByAuthor returns a user's profile listing. The owner sees all of their
// posts, including scheduled and unpublished ones; everyone else sees only
// visible posts.
func (s *PostService) ListByAuthor(ctx context.Context, username string, viewerID uint, limit, offset int) (*models.User, []*models.Post, int64, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, 0, asNotFound(err, "profile", username)
	}

	q := repository.PostQuery{
		AuthorID:    &author.ID,
		VisibleOnly: author.ID != viewerID,
		Now:         time.Now().UTC(),
		Limit:       limit,
		Offset:      offset,
	}
	posts, total, err := s.listAndCount(ctx, q)
	if err != nil {
		return nil, nil, 0, err
	}
	return author, posts, total, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetOwnedPost(ctx, in.PostID, in.ActorID)
	if err != nil {
		return nil, err
	}

	if in.Title != "" {
		if len(in.Title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 256 characters)")
		}
		post.Title = in.Title
	}
	if in.Text != "" {
		if len(in.Text) > maxTextLen {
			return nil, models.NewValidationError("Text too long (max 50000 characters)")
		}
		post.Text = in.Text
	}
	if in.Image != "" {
		post.Image = in.Image
	}
	if !in.PubDate.IsZero() {
		post.PubDate = in.PubDate
	}
	if in.IsPublished != nil {
		post.IsPublished = *in.IsPublished
	}
	if in.CategoryID != nil || in.LocationID != nil {
		if err := s.checkReferences(ctx, in.CategoryID, in.LocationID); err != nil {
			return nil, err
		}
	}
	if in.CategoryID != nil {
		post.CategoryID = in.CategoryID
	}
	if in.LocationID != nil {
		post.LocationID = in.LocationID
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost removes the actor's post together with its comments.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	if _, err := s.GetOwnedPost(ctx, in.PostID, in.ActorID); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, in.PostID)
}

func (s *PostService) listAndCount(ctx context.Context, q repository.PostQuery) ([]*models.Post, int64, error) {
	total, err := s.postRepo.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	posts, err := s.postRepo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// checkReferences verifies that submitted category/location IDs exist.
func (s *PostService) checkReferences(ctx context.Context, categoryID, locationID *uint) error {
	if categoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewValidationError("Category does not exist")
			}
			return err
		}
	}
	if locationID != nil {
		if _, err := s.locationRepo.GetByID(ctx, *locationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewValidationError("Location does not exist")
			}
			return err
		}
	}
	return nil
}

// asNotFound converts gorm's record-not-found into the service taxonomy,
// passing other errors through unchanged.
func asNotFound(err error, resource string, key interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, key)
	}
	return err
}
