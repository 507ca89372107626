package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"sharedshoppinglist/internal/common"
	"sharedshoppinglist/internal/server/services"
)

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPairRequest struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type tokenPairResponse struct {
	Token               string    `json:"token"`
	TokenExpiresAt      time.Time `json:"tokenExpiresAt"`
	RefreshToken        string    `json:"refreshToken"`
	RefreshTokenExpires time.Time `json:"refreshTokenExpiresAt"`
}

func newTokenPairResponse(p *services.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		Token:               p.AccessToken,
		TokenExpiresAt:      p.AccessExpiresAt,
		RefreshToken:        p.RefreshToken,
		RefreshTokenExpires: p.RefreshExpiresAt,
	}
}

// Auth endpoints answer 200 with isSuccess=false on rejection; the client
// reads the envelope, not the status code.

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}

	ctx := c.Request().Context()
	user, err := s.identity.Register(ctx, req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		return fail(c, http.StatusOK, errorMessage(err))
	}

	s.logger.Info(ctx, "user registered", "email", req.Email)
	return ok(c, user.ID)
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}

	pair, err := s.identity.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, http.StatusOK, errorMessage(err))
	}
	return ok(c, newTokenPairResponse(pair))
}

func (s *Server) refresh(c echo.Context) error {
	var req tokenPairRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}

	ctx := c.Request().Context()
	pair, err := s.identity.Refresh(ctx, req.Token, req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenUsed) {
			s.logger.Warn(ctx, "refresh token replay rejected")
		}
		return fail(c, http.StatusOK, errorMessage(err))
	}
	return ok(c, newTokenPairResponse(pair))
}
