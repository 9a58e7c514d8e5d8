package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SecurityHeaders adds security headers to all responses.
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Prevent MIME type sniffing
		c.Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		c.Set("X-Frame-Options", "DENY")

		// Control referrer information
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// The API serves JSON only; nothing should embed or script it.
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		// Remove server header
		c.Set("Server", "")

		return c.Next()
	}
}

// ValidateContentType rejects mutating requests whose body does not
// declare a supported content type. Email bodies and assistant queries
// arrive as JSON; form encodings are accepted for compatibility.
func ValidateContentType() fiber.Handler {
	allowedTypes := []string{
		"application/json",
		"application/x-www-form-urlencoded",
	}

	return func(c *fiber.Ctx) error {
		method := c.Method()
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch {
			return c.Next()
		}
		if len(c.Body()) == 0 {
			return c.Next()
		}

		contentType := c.Get("Content-Type")
		if contentType == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "content-type header required",
				"code":  "MISSING_CONTENT_TYPE",
			})
		}
		for _, t := range allowedTypes {
			if strings.HasPrefix(contentType, t) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"error": "unsupported content type",
			"code":  "UNSUPPORTED_CONTENT_TYPE",
		})
	}
}
