package server

import (
	"blogicum/internal/models"
	"blogicum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateCategory handles POST /categories (admin only).
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title" form:"title"`
		Description string `json:"description" form:"description"`
		Slug        string `json:"slug" form:"slug"`
		IsPublished *bool  `json:"is_published" form:"is_published"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	isPublished := true
	if req.IsPublished != nil {
		isPublished = *req.IsPublished
	}

	category, err := s.taxonomyService.CreateCategory(c.Context(), service.CreateCategoryInput{
		Title:       req.Title,
		Description: req.Description,
		Slug:        req.Slug,
		IsPublished: isPublished,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(category)
}

// DeleteCategory handles DELETE /categories/:id (admin only). Posts in the
// category are detached, never deleted.
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.taxonomyService.DeleteCategory(c.Context(), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateLocation handles POST /locations (admin only).
func (s *Server) CreateLocation(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name" form:"name"`
		IsPublished *bool  `json:"is_published" form:"is_published"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	isPublished := true
	if req.IsPublished != nil {
		isPublished = *req.IsPublished
	}

	location, err := s.taxonomyService.CreateLocation(c.Context(), service.CreateLocationInput{
		Name:        req.Name,
		IsPublished: isPublished,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(location)
}

// DeleteLocation handles DELETE /locations/:id (admin only).
func (s *Server) DeleteLocation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.taxonomyService.DeleteLocation(c.Context(), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
