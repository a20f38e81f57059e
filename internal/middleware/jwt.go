package middleware // middleware contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the attendant's id and email into the request
// context.  The provided secret must match the one used when issuing
// tokens.  Handlers behind this middleware can read the values via
// c.Get("attendant_id") and c.Get("email").
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with an explicit method check so a token signed
			// with a different algorithm is rejected outright.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set("attendant_id", claims["sub"])
			c.Set("email", claims["email"])
			return next(c)
		}
	}
}

// attendantKey extracts an identifier for rate-limit bucketing from
// the JWT claims stored in context.  Unauthenticated requests share
// the "guest" bucket.
func attendantKey(c echo.Context) string {
	v := c.Get("email")
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return "guest"
}
