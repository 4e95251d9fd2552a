// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	helper "attendance_backend/internals/helpers"
)

// Public paths that never need a token.
var skipPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

const expirySkew = 30 * time.Second

// AuthMiddleware verifies an HS256 bearer token (header or access_token cookie)
// and stores the owning user id in c.Locals("user_id").
func AuthMiddleware(secret string, log *zap.Logger) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		if _, ok := skipPaths[c.Path()]; ok {
			return c.Next()
		}
		if len(key) == 0 {
			log.Error("JWT secret is empty")
			return fiber.NewError(fiber.StatusInternalServerError, "authentication is not configured")
		}

		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return key, nil
		}); err != nil {
			log.Debug("token rejected", zap.Error(err))
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized - invalid token")
		}

		if err := validateTokenExpiry(claims, expirySkew); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized - token expired")
		}

		userID, err := extractUserID(claims)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized - invalid or missing user id")
		}
		c.Locals(helper.LocUserID, userID.String())
		return c.Next()
	}
}
