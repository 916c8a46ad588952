package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"storefront-api/responses"
)

// AuthRequired validates the bearer token and stores the caller's user id
// and type in Locals.
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(responses.Fail("No auth token, access denied"))
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(responses.Fail("Invalid authorization header format"))
		}

		claims := &jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(bearerToken[1], claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(responses.Fail("Token verification failed, access denied"))
		}

		userId, ok := (*claims)["id"].(string)
		if !ok || userId == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(responses.Fail("User ID not found in token"))
		}

		c.Locals("userId", userId)
		if userType, ok := (*claims)["type"].(string); ok {
			c.Locals("userType", userType)
		}

		return c.Next()
	}
}

// AdminRequired must run after AuthRequired; it gates admin-only routes on
// the token's type claim.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userType, _ := c.Locals("userType").(string)
		if userType != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(responses.Fail("Admin access required"))
		}
		return c.Next()
	}
}
