// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"

	"sharedshoppinglist/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and consuming
// refresh tokens.
type Repository interface {
	// Create stores a new refresh token row.
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find looks up a refresh token by its opaque token string and returns its
	// metadata. Implementations should return a not-found error when the token
	// is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// MarkUsed flips the used flag to true if and only if it is not already
	// set. It reports whether this call won the flip, so concurrent redeems of
	// the same token resolve to exactly one winner.
	MarkUsed(ctx context.Context, token string) (bool, error)
}
