package service

import (
	"context"
	"time"

	"blogicum/internal/models"
	"blogicum/internal/observability"
	"blogicum/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type AddCommentInput struct {
	ActorID uint
	PostID  uint
	Text    string
}

type UpdateCommentInput struct {
	ActorID   uint
	PostID    uint
	CommentID uint
	Text      string
}

type DeleteCommentInput struct {
	ActorID   uint
	PostID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// AddComment attaches a comment to a post, owned by the acting user. The
// target post must be visible to the actor under the same policy as the
// detail page.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, asNotFound(err, "post", in.PostID)
	}
	if post.AuthorID != in.ActorID && !post.VisibleAt(time.Now().UTC()) {
		return nil, models.NewNotFoundError("post", in.PostID)
	}

	if in.Text == "" {
		return nil, models.NewValidationError("Text is required")
	}
	if len(in.Text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment := &models.Comment{
		Text:     in.Text,
		AuthorID: in.ActorID,
		PostID:   in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// ListComments returns a post's comments oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

// GetOwnedComment resolves a comment for editing or deletion. The comment
// must belong to the post named in the URL and to the acting user.
func (s *CommentService) GetOwnedComment(ctx context.Context, postID, commentID, actorID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, asNotFound(err, "comment", commentID)
	}
	if comment.PostID != postID {
		return nil, models.NewNotFoundError("comment", commentID)
	}
	if comment.AuthorID != actorID {
		return nil, models.NewOwnershipError("comment")
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.GetOwnedComment(ctx, in.PostID, in.CommentID, in.ActorID)
	if err != nil {
		return nil, err
	}

	if in.Text == "" {
		return nil, models.NewValidationError("Text is required")
	}
	if len(in.Text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment.Text = in.Text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	if _, err := s.GetOwnedComment(ctx, in.PostID, in.CommentID, in.ActorID); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, in.CommentID)
}
