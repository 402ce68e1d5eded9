package middleware

import (
	"sync"

	"github.com/labstack/echo/v4"
)

// Serialize admits one request at a time through every route it wraps.
// The service layer assumes a single caller, like the console front end.
func Serialize() echo.MiddlewareFunc {
	var mu sync.Mutex
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			mu.Lock()
			defer mu.Unlock()
			return next(c)
		}
	}
}
