package viewer

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserID extracts the user UUID from JWT claims in context. Errors when the
// request carries no valid token; use OptionalUserID on routes that serve
// anonymous viewers.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// OptionalUserID returns the viewer's id, or nil for anonymous requests.
func OptionalUserID(c *fiber.Ctx) *uuid.UUID {
	id, err := UserID(c)
	if err != nil {
		return nil
	}
	return &id
}
