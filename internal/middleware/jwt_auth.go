package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// UserContextKey is where the verified claims are stored on echo.Context
const UserContextKey = "user"

var errNoToken = errors.New("no bearer token")

// JWTAuthMiddleware checks for a valid JWT and extracts user claims.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseBearer(c.Request().Header.Get("Authorization"), secret)
			if errors.Is(err, errNoToken) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}
			if err != nil {
				return err
			}
			c.Set(UserContextKey, claims)
			return next(c)
		}
	}
}

// OptionalJWTAuthMiddleware lets anonymous requests through. A token that is
// present must still be valid.
func OptionalJWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseBearer(c.Request().Header.Get("Authorization"), secret)
			if errors.Is(err, errNoToken) {
				return next(c)
			}
			if err != nil {
				return err
			}
			c.Set(UserContextKey, claims)
			return next(c)
		}
	}
}

func parseBearer(header, secret string) (*models.JwtCustomClaims, error) {
	if header == "" {
		return nil, errNoToken
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
		}
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	return claims, nil
}

// UserIDFromContext returns the authenticated user's ID, or 0 for anonymous requests
func UserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get(UserContextKey).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}
