package server

import (
	"blogicum/internal/models"
	"blogicum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetOwnProfile handles GET /profile/edit — the acting user's editable
// fields.
func (s *Server) GetOwnProfile(c *fiber.Ctx) error {
	user, err := s.userRepo.GetByID(c.Context(), actorID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(user)
}

// UpdateOwnProfile handles POST /profile/edit. The record edited is always
// the authenticated user's own; nothing in the request selects a target.
func (s *Server) UpdateOwnProfile(c *fiber.Ctx) error {
	var req struct {
		Username  *string `json:"username" form:"username"`
		Email     *string `json:"email" form:"email"`
		FirstName *string `json:"first_name" form:"first_name"`
		LastName  *string `json:"last_name" form:"last_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:    actorID(c),
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return redirectToProfile(c, user.Username)
}
