package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Config holds configuration for the auth middleware.
type Config struct {
	// ApiKey is the shared secret expected on every request.
	// An empty key disables authentication.
	ApiKey string
}

// New returns a middleware validating the API key on every request.
// The key is accepted either as an "Authorization: Bearer <key>" header
// or an "X-Api-Key" header.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.ApiKey == "" {
			return c.Next()
		}

		key := c.Get("X-Api-Key")
		if key == "" {
			header := c.Get(fiber.HeaderAuthorization)
			key = strings.TrimPrefix(header, "Bearer ")
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.ApiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status": "error",
				"errors": "invalid or missing API key",
			})
		}
		return c.Next()
	}
}
