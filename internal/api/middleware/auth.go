package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by Auth.
const (
	CtxUsername   = "username"
	CtxRole       = "role"
	CtxMustChange = "must_change_pw"
)

// Auth validates the JWT and injects its claims into the context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			username, _ := claims["username"].(string)
			if username == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing username")
			}
			role, _ := claims["role"].(string)
			mustChange, _ := claims["must_change_pw"].(bool)

			c.Set(CtxUsername, username)
			c.Set(CtxRole, role)
			c.Set(CtxMustChange, mustChange)

			return next(c)
		}
	}
}

// RequirePasswordChanged rejects sessions that still carry the must-change
// flag. Only the password change route may be reached with such a token.
func RequirePasswordChanged() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if mustChange, _ := c.Get(CtxMustChange).(bool); mustChange {
				return echo.NewHTTPError(http.StatusForbidden, "password change required")
			}
			return next(c)
		}
	}
}
