package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

// LocalOperator is set to true once a request carried a valid operator key
const LocalOperator = "operator"

// apiKeyQueryParam carries the key for websocket upgrades, where browsers
// cannot set headers.
const apiKeyQueryParam = "api_key"

// Auth checks the Bearer token against the configured SHA-256 hash. An empty
// hash disables authentication, for kiosks on a trusted network.
func Auth(apiKeyHash string) fiber.Handler {
	apiKeyHash = strings.TrimSpace(apiKeyHash)

	return func(c *fiber.Ctx) error {
		if apiKeyHash == "" {
			return c.Next()
		}

		// 1. Extract Bearer token, or the query fallback
		apiKey := extractBearerToken(c)
		if apiKey == "" {
			apiKey = strings.TrimSpace(c.Query(apiKeyQueryParam))
		}
		if apiKey == "" {
			return domain.ErrUnauthorized
		}

		// 2. Compare hashes in constant time
		if !domain.MatchesHash(apiKey, apiKeyHash) {
			return domain.ErrUnauthorized
		}

		c.Locals(LocalOperator, true)
		return c.Next()
	}
}

// extractBearerToken extracts token from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if auth == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
