package server

import (
	"errors"
	"fmt"

	"blogicum/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// the ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// defaultPageSize is the listing page size.
const defaultPageSize = 10

// Page holds a parsed page-number query parameter translated into
// limit/offset form.
type Page struct {
	Number int
	Limit  int
	Offset int
}

// parsePage extracts the ?page= query parameter (1-based, default 1).
func parsePage(c *fiber.Ctx) Page {
	number := c.QueryInt("page", 1)
	if number < 1 {
		number = 1
	}
	return Page{
		Number: number,
		Limit:  defaultPageSize,
		Offset: (number - 1) * defaultPageSize,
	}
}

// totalPages converts a record count into a page count (at least one page).
func totalPages(count int64) int {
	pages := int((count + defaultPageSize - 1) / defaultPageSize)
	if pages < 1 {
		pages = 1
	}
	return pages
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 404 response and returns errResponseWritten;
// callers should check: if err != nil { return nil }.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("page", c.Path()))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// actorID returns the authenticated user's ID. Valid only behind AuthRequired.
func actorID(c *fiber.Ctx) uint {
	return c.Locals("userID").(uint)
}

// viewerID returns the user ID when the request carries a valid token, or
// zero for anonymous viewers.
func viewerID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return 0
}

// redirectToPost answers a flow with the post's detail page. Ownership
// failures use this as the silent fallback: no error is revealed.
func redirectToPost(c *fiber.Ctx, postID uint) error {
	return c.Redirect(fmt.Sprintf("/posts/%d/", postID), fiber.StatusSeeOther)
}

// redirectToProfile answers a flow with the user's profile page.
func redirectToProfile(c *fiber.Ctx, username string) error {
	return c.Redirect(fmt.Sprintf("/profile/%s/", username), fiber.StatusSeeOther)
}

// respondServiceError maps service-layer errors onto the response taxonomy.
// Ownership errors must be handled (redirected) by the caller before this.
func respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case models.IsNotFound(err):
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	case models.IsValidation(err):
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	default:
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
}
