package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const userIDContextKey = "userID"

// requireAuth validates the Bearer access token, expiry enforced, and puts
// the caller's user id into the Echo context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return fail(c, http.StatusUnauthorized, "Missing bearer token.")
		}

		claims, err := s.tokens.Parse(strings.TrimPrefix(header, "Bearer "), true)
		if err != nil {
			return fail(c, http.StatusUnauthorized, "Invalid Token")
		}
		userID, err := claims.UserID()
		if err != nil {
			return fail(c, http.StatusUnauthorized, "Invalid Token")
		}

		c.Set(userIDContextKey, userID)
		return next(c)
	}
}

func currentUserID(c echo.Context) int64 {
	id, _ := c.Get(userIDContextKey).(int64)
	return id
}
