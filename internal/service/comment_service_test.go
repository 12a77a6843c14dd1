package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"blogicum/internal/models"
	"blogicum/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestCommentService(t *testing.T) (*CommentService, *PostService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	postSvc := NewPostService(
		repository.NewPostRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewLocationRepository(db),
		repository.NewUserRepository(db),
	)
	commentSvc := NewCommentService(
		repository.NewCommentRepository(db),
		repository.NewPostRepository(db),
	)
	return commentSvc, postSvc, db
}

func TestAddComment_Validation(t *testing.T) {
	svc, postSvc, db := newTestCommentService(t)
	author := mustCreateUser(t, db, "alice")
	ctx := context.Background()

	post, err := postSvc.CreatePost(ctx, CreatePostInput{
		AuthorID: author.ID, Title: "title", Text: "body", IsPublished: true,
	})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, AddCommentInput{ActorID: author.ID, PostID: post.ID, Text: ""})
	assert.True(t, models.IsValidation(err))

	_, err = svc.AddComment(ctx, AddCommentInput{
		ActorID: author.ID, PostID: post.ID, Text: strings.Repeat("x", maxCommentLen+1),
	})
	assert.True(t, models.IsValidation(err))

	// Nothing was persisted by the refused attempts.
	comments, err := svc.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestAddComment_HiddenPostNotFoundForOthers(t *testing.T) {
	svc, postSvc, db := newTestCommentService(t)
	author := mustCreateUser(t, db, "alice")
	stranger := mustCreateUser(t, db, "bob")
	ctx := context.Background()

	post, err := postSvc.CreatePost(ctx, CreatePostInput{
		AuthorID: author.ID, Title: "scheduled", Text: "body",
		PubDate: time.Now().UTC().Add(24 * time.Hour), IsPublished: true,
	})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, AddCommentInput{ActorID: stranger.ID, PostID: post.ID, Text: "hi"})
	assert.True(t, models.IsNotFound(err))

	// The author may comment on their own scheduled post.
	comment, err := svc.AddComment(ctx, AddCommentInput{ActorID: author.ID, PostID: post.ID, Text: "note to self"})
	require.NoError(t, err)
	assert.Equal(t, author.ID, comment.AuthorID)
}

func TestGetOwnedComment_ChecksPostAndOwnership(t *testing.T) {
	svc, postSvc, db := newTestCommentService(t)
	author := mustCreateUser(t, db, "alice")
	commenter := mustCreateUser(t, db, "bob")
	ctx := context.Background()

	post, err := postSvc.CreatePost(ctx, CreatePostInput{
		AuthorID: author.ID, Title: "title", Text: "body", IsPublished: true,
	})
	require.NoError(t, err)
	otherPost, err := postSvc.CreatePost(ctx, CreatePostInput{
		AuthorID: author.ID, Title: "other", Text: "body", IsPublished: true,
	})
	require.NoError(t, err)

	comment, err := svc.AddComment(ctx, AddCommentInput{ActorID: commenter.ID, PostID: post.ID, Text: "hi"})
	require.NoError(t, err)

	// Comment addressed under the wrong post is a 404, not an ownership issue.
	_, err = svc.GetOwnedComment(ctx, otherPost.ID, comment.ID, commenter.ID)
	assert.True(t, models.IsNotFound(err))

	// Even the post's author may not edit someone else's comment.
	_, err = svc.GetOwnedComment(ctx, post.ID, comment.ID, author.ID)
	assert.True(t, models.IsNotOwner(err))

	got, err := svc.GetOwnedComment(ctx, post.ID, comment.ID, commenter.ID)
	require.NoError(t, err)
	assert.Equal(t, comment.ID, got.ID)
}

func TestUpdateAndDeleteComment(t *testing.T) {
	svc, postSvc, db := newTestCommentService(t)
	author := mustCreateUser(t, db, "alice")
	commenter := mustCreateUser(t, db, "bob")
	ctx := context.Background()

	post, err := postSvc.CreatePost(ctx, CreatePostInput{
		AuthorID: author.ID, Title: "title", Text: "body", IsPublished: true,
	})
	require.NoError(t, err)

	comment, err := svc.AddComment(ctx, AddCommentInput{ActorID: commenter.ID, PostID: post.ID, Text: "before"})
	require.NoError(t, err)

	_, err = svc.UpdateComment(ctx, UpdateCommentInput{
		ActorID: author.ID, PostID: post.ID, CommentID: comment.ID, Text: "hacked",
	})
	assert.True(t, models.IsNotOwner(err))

	updated, err := svc.UpdateComment(ctx, UpdateCommentInput{
		ActorID: commenter.ID, PostID: post.ID, CommentID: comment.ID, Text: "after",
	})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Text)

	err = svc.DeleteComment(ctx, DeleteCommentInput{ActorID: author.ID, PostID: post.ID, CommentID: comment.ID})
	assert.True(t, models.IsNotOwner(err))

	require.NoError(t, svc.DeleteComment(ctx, DeleteCommentInput{
		ActorID: commenter.ID, PostID: post.ID, CommentID: comment.ID,
	}))

	comments, err := svc.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
