package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"sharedshoppinglist/internal/common"
)

// response is the envelope the mobile client expects on every endpoint.
type response struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
}

const (
	msgSomethingWentWrong = "Something went wrong!"
	msgNotMemberOfList    = "User is not part of list."
	msgInvalidRequest     = "Invalid request body."
)

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, response{IsSuccess: true, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, response{IsSuccess: false, Message: message})
}

// errorMessage translates service errors into client-facing strings. The
// session strings are fixed: the client matches on them.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return "Invalid Username or Password."
	case errors.Is(err, common.ErrEmailTaken):
		return "Email already registered!"
	case errors.Is(err, common.ErrInvalidToken):
		return "Invalid Token"
	case errors.Is(err, common.ErrTokenNotExpiredYet):
		return "This token hasn't expired yet"
	case errors.Is(err, common.ErrRefreshTokenNotFound):
		return "This refresh token does not exist"
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return "This refresh token has expired"
	case errors.Is(err, common.ErrRefreshTokenUsed):
		return "This refresh token has been used"
	case errors.Is(err, common.ErrTokenMismatch):
		return "This refresh token does not match this JWT"
	case errors.Is(err, common.ErrUserNotFound):
		return "User Not Found"
	case errors.Is(err, common.ErrInvalidArgument):
		return strings.TrimPrefix(err.Error(), common.ErrInvalidArgument.Error()+": ")
	case errors.Is(err, common.ErrorNotFound):
		return strings.TrimPrefix(err.Error(), common.ErrorNotFound.Error()+": ") + " not found"
	}
	return msgSomethingWentWrong
}
