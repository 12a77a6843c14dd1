package server

import (
	"blogicum/internal/models"
	"blogicum/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentForm struct {
	Text string `json:"text" form:"text"`
}

// AddComment handles POST /posts/:id/comment. A comment that fails
// validation is not stored; the flow lands back on the detail page either
// way, matching the edit/delete flows.
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req commentForm
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return redirectToPost(c, postID)
	}

	if _, err := s.commentService.AddComment(c.Context(), service.AddCommentInput{
		ActorID: actorID(c),
		PostID:  postID,
		Text:    req.Text,
	}); err != nil {
		if models.IsValidation(err) {
			return redirectToPost(c, postID)
		}
		return respondServiceError(c, err)
	}

	return redirectToPost(c, postID)
}

// GetCommentEditForm handles GET /posts/:id/comment/:commentId/edit
func (s *Server) GetCommentEditForm(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.GetOwnedComment(c.Context(), postID, commentID, actorID(c))
	if err != nil {
		if models.IsNotOwner(err) {
			return redirectToPost(c, postID)
		}
		return respondServiceError(c, err)
	}
	return c.JSON(comment)
}

// UpdateComment handles POST /posts/:id/comment/:commentId/edit
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	// Ownership first: a non-author is redirected before the body is read.
	if _, err := s.commentService.GetOwnedComment(c.Context(), postID, commentID, actorID(c)); err != nil {
		if models.IsNotOwner(err) {
			return redirectToPost(c, postID)
		}
		return respondServiceError(c, err)
	}

	var req commentForm
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if _, err := s.commentService.UpdateComment(c.Context(), service.UpdateCommentInput{
		ActorID:   actorID(c),
		PostID:    postID,
		CommentID: commentID,
		Text:      req.Text,
	}); err != nil {
		if models.IsNotOwner(err) {
			return redirectToPost(c, postID)
		}
		return respondServiceError(c, err)
	}

	return redirectToPost(c, postID)
}

// GetCommentDeleteForm handles GET /posts/:id/comment/:commentId/delete —
// the comment shown on the confirmation page.
func (s *Server) GetCommentDeleteForm(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.GetOwnedComment(c.Context(), postID, commentID, actorID(c))
	if err != nil {
		if models.IsNotOwner(err) {
			return redirectToPost(c, postID)
		}
		return respondServiceError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles POST /posts/:id/comment/:commentId/delete
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.Context(), service.DeleteCommentInput{
		ActorID:   actorID(c),
		PostID:    postID,
		CommentID: commentID,
	}); err != nil {
		if models.IsNotOwner(err) {
			return redirectToPost(c, postID)
		}
		return respondServiceError(c, err)
	}

	return redirectToPost(c, postID)
}
