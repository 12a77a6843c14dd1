package server

import (
	"os"
	"path"
	"path/filepath"
	"time"

	"blogicum/internal/models"
	"blogicum/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// postForm is the submitted shape for post create/edit, accepted as JSON or
// form fields. The author is never read from the form.
type postForm struct {
	Title       string `json:"title" form:"title"`
	Text        string `json:"text" form:"text"`
	PubDate     string `json:"pub_date" form:"pub_date"`
	IsPublished *bool  `json:"is_published" form:"is_published"`
	CategoryID  *uint  `json:"category_id" form:"category_id"`
	LocationID  *uint  `json:"location_id" form:"location_id"`
}

// parsePubDate reads the optional publication timestamp. A future value
// schedules the post.
func parsePubDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// saveImage stores an uploaded image (multipart field "image") under the
// media directory and returns its stored path, or "" when none was sent.
func (s *Server) saveImage(c *fiber.Ctx) (string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return "", nil
	}

	name := uuid.NewString() + filepath.Ext(file.Filename)
	dir := filepath.Join(s.config.MediaDir, "post_images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := c.SaveFile(file, filepath.Join(dir, name)); err != nil {
		return "", err
	}
	return path.Join("post_images", name), nil
}

// GetPostForm handles GET /posts/create — the data the creation form needs.
func (s *Server) GetPostForm(c *fiber.Ctx) error {
	categories, err := s.taxonomyService.ListCategories(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	locations, err := s.taxonomyService.ListLocations(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{
		"categories": categories,
		"locations":  locations,
	})
}

// CreatePost handles POST /posts/create
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := actorID(c)

	var req postForm
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	pubDate, err := parsePubDate(req.PubDate)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("pub_date must be an RFC 3339 timestamp"))
	}
	image, err := s.saveImage(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	isPublished := true
	if req.IsPublished != nil {
		isPublished = *req.IsPublished
	}

	if _, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		AuthorID:    userID,
		Title:       req.Title,
		Text:        req.Text,
		Image:       image,
		PubDate:     pubDate,
		IsPublished: isPublished,
		CategoryID:  req.CategoryID,
		LocationID:  req.LocationID,
	}); err != nil {
		return respondServiceError(c, err)
	}

	actor, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return redirectToProfile(c, actor.Username)
}

// PostDetail handles GET /posts/:id — the post with its comments. An
// author always sees their own post; everyone else only visible ones.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), id, viewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	comments, err := s.commentService.ListComments(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"post":     post,
		"comments": comments,
	})
}

// GetPostEditForm handles GET /posts/:id/edit — current values for the edit
// form. Non-authors are silently sent to the detail page.
func (s *Server) GetPostEditForm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetOwnedPost(c.Context(), id, actorID(c))
	if err != nil {
		if models.IsNotOwner(err) {
			return redirectToPost(c, id)
		}
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles POST /posts/:id/edit. Ownership is resolved before the
// body is looked at: a non-author is redirected silently no matter what they
// submitted.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.postService.GetOwnedPost(c.Context(), id, actorID(c)); err != nil {
		if models.IsNotOwner(err) {
			return redirectToPost(c, id)
		}
		return respondServiceError(c, err)
	}

	var req postForm
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	pubDate, err := parsePubDate(req.PubDate)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("pub_date must be an RFC 3339 timestamp"))
	}
	image, err := s.saveImage(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if _, err := s.postService.UpdatePost(c.Context(), service.UpdatePostInput{
		ActorID:     actorID(c),
		PostID:      id,
		Title:       req.Title,
		Text:        req.Text,
		Image:       image,
		PubDate:     pubDate,
		IsPublished: req.IsPublished,
		CategoryID:  req.CategoryID,
		LocationID:  req.LocationID,
	}); err != nil {
		if models.IsNotOwner(err) {
			return redirectToPost(c, id)
		}
		return respondServiceError(c, err)
	}

	return redirectToPost(c, id)
}

// GetPostDeleteForm handles GET /posts/:id/delete — the deletion
// confirmation pre-filled with the post's current field values.
func (s *Server) GetPostDeleteForm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetOwnedPost(c.Context(), id, actorID(c))
	if err != nil {
		if models.IsNotOwner(err) {
			return redirectToPost(c, id)
		}
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles POST /posts/:id/delete
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := actorID(c)

	if err := s.postService.DeletePost(c.Context(), service.DeletePostInput{
		ActorID: userID,
		PostID:  id,
	}); err != nil {
		if models.IsNotOwner(err) {
			return redirectToPost(c, id)
		}
		return respondServiceError(c, err)
	}

	actor, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return redirectToProfile(c, actor.Username)
}
