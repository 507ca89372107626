// Package services contains server-side business logic. This file implements
// IdentityService, which handles registration, login, and issuing/rotating
// JWTs plus server-stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sharedshoppinglist/internal/common"
	"sharedshoppinglist/internal/dbx"
	"sharedshoppinglist/internal/logging"
	"sharedshoppinglist/internal/server/auth"
	"sharedshoppinglist/internal/server/config"
	"sharedshoppinglist/internal/server/models"
	"sharedshoppinglist/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token
// together with their expiries.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// IdentityService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - Refresh: rotate refresh tokens and mint new access tokens
type IdentityService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	tokens                       *auth.TokenManager
	refreshTokenValidityDuration time.Duration
	bcryptCost                   int
	log                          logging.Logger
}

// NewIdentityService constructs an IdentityService using repositories and
// server config.
func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *IdentityService {
	return &IdentityService{
		db:                           db,
		repomanager:                  m,
		tokens:                       auth.NewTokenManager([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration),
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		bcryptCost:                   cfg.BcryptCost,
		log:                          log,
	}
}

// Tokens exposes the token manager for the HTTP auth middleware.
func (s *IdentityService) Tokens() *auth.TokenManager {
	return s.tokens
}

// Register creates a new user account. The password is hashed with bcrypt; a
// taken email yields ErrEmailTaken.
func (s *IdentityService) Register(ctx context.Context, firstName, lastName, email, password string) (*models.User, error) {
	if firstName == "" || lastName == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: all fields are required", common.ErrInvalidArgument)
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.EmailExists(ctx, email)
	if err != nil {
		s.log.Error(ctx, "email lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if exists {
		return nil, common.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		s.log.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	user := &models.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	u, err := repo.Create(ctx, user)
	if err != nil {
		// The unique index closes the race the EmailExists check leaves open.
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, common.ErrEmailTaken
		}
		s.log.Error(ctx, "user insert failed", "error", err)
		return nil, common.ErrorInternal
	}
	return u, nil
}

// Login verifies the email and password and, on success, returns a new
// TokenPair. Unknown emails, wrong passwords, and deactivated accounts all
// collapse into ErrInvalidCredentials.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		s.log.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if !user.IsActive {
		return nil, common.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrInvalidCredentials
	}
	return s.generateTokenPair(ctx, user, s.db)
}

// Refresh validates the expired access token together with its refresh token,
// rotates the refresh token transactionally, and returns a fresh TokenPair.
//
// Rejections are checked in a fixed order: invalid access token, access token
// not yet expired, unknown refresh token, expired refresh token, already used
// refresh token, and finally a jti mismatch between the two tokens. Every
// rejection leaves the stored token untouched.
func (s *IdentityService) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Parse(accessToken, false)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return nil, common.ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	if claims.ExpiresAt.After(time.Now()) {
		return nil, common.ErrTokenNotExpiredYet
	}

	stored, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRefreshTokenNotFound
		}
		s.log.Error(ctx, "refresh token lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if stored.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}
	if stored.IsUsed() {
		return nil, common.ErrRefreshTokenUsed
	}
	if stored.JwtID != claims.ID {
		return nil, common.ErrTokenMismatch
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// The conditional update arbitrates concurrent redeems of the same
		// token: exactly one caller flips the flag, the rest roll back.
		won, err := s.repomanager.RefreshTokens(tx).MarkUsed(ctx, refreshToken)
		if err != nil {
			s.log.Error(ctx, "marking refresh token used failed", "error", err)
			return common.ErrorInternal
		}
		if !won {
			return common.ErrRefreshTokenUsed
		}

		user, err := s.repomanager.Users(tx).GetActiveByID(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUserNotFound
			}
			s.log.Error(ctx, "user lookup failed", "error", err)
			return common.ErrorInternal
		}

		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *IdentityService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	access, jti, accessExpires, err := s.tokens.Issue(user)
	if err != nil {
		s.log.Error(ctx, "access token signing failed", "error", err)
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}

	now := time.Now()
	refreshExpires := now.Add(s.refreshTokenValidityDuration)
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, &models.RefreshToken{
		Token:     refresh,
		JwtID:     jti,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: refreshExpires,
	}); err != nil {
		s.log.Error(ctx, "refresh token insert failed", "error", err)
		return nil, common.ErrorInternal
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpires,
	}, nil
}
