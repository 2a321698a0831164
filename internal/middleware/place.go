package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
	"github.com/localnerve/voternet/internal/types"
)

// Place resolves the place key in the wildcard path segment, so "/api/places/KA/AC001"
// loads the place "KA/AC001", and stores it in context.
func Place(places *services.PlaceStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := strings.Trim(c.Params("*"), "/")
		if key == "" {
			return &types.CustomError{Code: fiber.StatusNotFound, Message: "Place key is missing", Type: "place"}
		}

		p, err := places.FindByKey(c.UserContext(), key)
		if errors.Is(err, services.ErrNotFound) {
			return types.NewError(fiber.StatusNotFound, "place", "Place '%s' not found", key)
		}
		if err != nil {
			return err
		}
		c.Locals(localPlace, &p)

		return c.Next()
	}
}

// PlaceFrom returns the place resolved by Place.
func PlaceFrom(c *fiber.Ctx) *models.Place {
	p, _ := c.Locals(localPlace).(*models.Place)
	return p
}
