// Package refreshtokens provides a PostgreSQL-backed repository for managing
// refresh tokens used in the server's authentication flow.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sharedshoppinglist/internal/common"
	"sharedshoppinglist/internal/dbx"
	"sharedshoppinglist/internal/server/models"
)

// PostgresRepository implements refresh token operations over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new refresh token row with the used flag cleared.
func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, jwt_id, user_id, created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.Token, token.JwtID, token.UserID, token.CreatedAt, token.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the refresh token row for the given token string.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, token, jwt_id, user_id, created_at, expires_at, used
		FROM refresh_tokens
		WHERE token = $1
	`
	refreshToken := &models.RefreshToken{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(
		&refreshToken.ID, &refreshToken.Token, &refreshToken.JwtID, &refreshToken.UserID,
		&refreshToken.CreatedAt, &refreshToken.ExpiresAt, &refreshToken.Used); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return refreshToken, nil
}

// MarkUsed sets used = TRUE only when the flag is still NULL or FALSE, so the
// row update doubles as a compare-and-swap. Returns false when another redeem
// got there first.
func (r *PostgresRepository) MarkUsed(ctx context.Context, token string) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET used = TRUE
		WHERE token = $1 AND (used IS NULL OR used = FALSE)
	`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected == 1, nil
}
