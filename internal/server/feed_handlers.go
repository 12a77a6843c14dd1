package server

import (
	"blogicum/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET / — the front page: visible posts, newest first,
// paginated.
func (s *Server) Index(c *fiber.Ctx) error {
	page := parsePage(c)

	posts, total, err := s.postService.ListFeed(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"posts":       posts,
		"page":        page.Number,
		"total_pages": totalPages(total),
		"count":       total,
	})
}

// CategoryPosts handles GET /category/:slug — a published category's
// visible posts.
func (s *Server) CategoryPosts(c *fiber.Ctx) error {
	slug := c.Params("slug")
	page := parsePage(c)

	category, posts, total, err := s.postService.ListByCategory(c.Context(), slug, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"category":    category,
		"posts":       posts,
		"page":        page.Number,
		"total_pages": totalPages(total),
		"count":       total,
	})
}

// ProfilePosts handles GET /profile/:username — a user's posts. The profile
// owner sees everything they wrote; other viewers only visible posts.
func (s *Server) ProfilePosts(c *fiber.Ctx) error {
	username := c.Params("username")
	page := parsePage(c)

	profile, posts, total, err := s.postService.ListByAuthor(c.Context(), username, viewerID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"profile":     profile,
		"posts":       posts,
		"page":        page.Number,
		"total_pages": totalPages(total),
		"count":       total,
	})
}

// ListCategories handles GET /categories
func (s *Server) ListCategories(c *fiber.Ctx) error {
	categories, err := s.taxonomyService.ListCategories(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(categories)
}

// ListLocations handles GET /locations
func (s *Server) ListLocations(c *fiber.Ctx) error {
	locations, err := s.taxonomyService.ListLocations(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(locations)
}
