// internals/middlewares/auth/claim_utils.go
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	helper "attendance_backend/internals/helpers"
)

/* ======== Extractors ======== */

func extractBearerToken(c *fiber.Ctx) (string, error) {
	tok := strings.Trim(helper.GetRawAccessToken(c), "\"'")
	if tok == "" {
		if strings.TrimSpace(c.Get(fiber.HeaderAuthorization)) != "" {
			return "", errors.New("unauthorized - invalid token format")
		}
		return "", errors.New("unauthorized - no token provided")
	}
	return tok, nil
}

func validateTokenExpiry(claims jwt.MapClaims, skew time.Duration) error {
	expVal, ok := claims["exp"]
	if !ok {
		return errors.New("token has no exp")
	}

	var expUnix int64
	switch t := expVal.(type) {
	case float64:
		expUnix = int64(t)
	case int64:
		expUnix = t
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return errors.New("invalid exp format")
		}
		expUnix = n
	default:
		return errors.New("invalid exp type")
	}

	expTime := time.Unix(expUnix, 0).UTC()
	if time.Now().UTC().After(expTime.Add(skew)) {
		return fmt.Errorf("token expired at %v", expTime)
	}
	return nil
}

// extractUserID accepts the owning user under "id", "sub" or "user_id".
func extractUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	for _, k := range []string{"id", "sub", "user_id"} {
		raw, ok := claims[k]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return uuid.Nil, fmt.Errorf("claim %q is not a string", k)
		}
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil || id == uuid.Nil {
			return uuid.Nil, fmt.Errorf("claim %q is not a user id", k)
		}
		return id, nil
	}
	return uuid.Nil, errors.New("no user id")
}
