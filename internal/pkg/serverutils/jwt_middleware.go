// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// BearerToken returns the token from the Authorization header, or from the
// "token" query parameter for browser WebSocket handshakes.
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ctx.Query("token")
}

// VerifyToken checks an HMAC-signed token against secret.
func VerifyToken(tokenStr, secret string) bool {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	return err == nil && token.Valid
}

// JwtMiddleware guards the local API when a secret is configured. Without one
// the API is open, which is the default for a loopback-only companion.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Next()
		}
		tokenStr := BearerToken(ctx)
		if tokenStr == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing token")
		}
		if !VerifyToken(tokenStr, secret) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}
		return ctx.Next()
	}
}
