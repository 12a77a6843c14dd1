// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"time"

	"blogicum/internal/models"

	"gorm.io/gorm"
)

// PostQuery describes one listing query over posts. It is built once by the
// caller and executed once; there is no lazy composition.
type PostQuery struct {
	// AuthorID restricts the listing to one author's posts.
	AuthorID *uint
	// CategoryID restricts the listing to one category's posts.
	CategoryID *uint
	// VisibleOnly applies the public visibility invariant: pub_date has
	// passed, the post is published, and its category (if any) is published.
	VisibleOnly bool
	// Now is the instant visibility is evaluated against.
	Now    time.Time
	Limit  int
	Offset int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, q PostQuery) ([]*models.Post, error)
	Count(ctx context.Context, q PostQuery) (int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// commentCountSelect attaches the derived comment_count column so listings
// carry each post's comment total without extra queries.
const commentCountSelect = "posts.*, " +
	"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count"

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Select(commentCountSelect).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, q PostQuery) ([]*models.Post, error) {
	var posts []*models.Post
	db := r.applyQuery(ctx, q).
		Select(commentCountSelect).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		Order("posts.pub_date DESC")
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	err := db.Find(&posts).Error
	return posts, err
}

func (r *postRepository) Count(ctx context.Context, q PostQuery) (int64, error) {
	var count int64
	err := r.applyQuery(ctx, q).Count(&count).Error
	return count, err
}

// applyQuery translates a PostQuery into WHERE clauses. The category join is
// only added when visibility filtering needs the category's published flag.
func (r *postRepository) applyQuery(ctx context.Context, q PostQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&models.Post{})

	if q.AuthorID != nil {
		db = db.Where("posts.author_id = ?", *q.AuthorID)
	}
	if q.CategoryID != nil {
		db = db.Where("posts.category_id = ?", *q.CategoryID)
	}
	if q.VisibleOnly {
		now := q.Now
		if now.IsZero() {
			now = time.Now().UTC()
		}
		db = db.
			Joins("LEFT JOIN categories ON categories.id = posts.category_id").
			Where("posts.pub_date <= ?", now).
			Where("posts.is_published = ?", true).
			Where("(posts.category_id IS NULL OR categories.is_published = ?)", true)
	}
	return db
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

// Delete removes the post and its comments in one transaction. The cascade
// lives here instead of an FK constraint so it behaves identically on
// Postgres and the SQLite test driver.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
}
