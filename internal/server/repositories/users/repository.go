// Package users declares the server-side repository contract for user
// accounts.
package users

import (
	"context"

	"sharedshoppinglist/internal/server/models"
)

type Repository interface {
	// Create inserts a new user and returns it with the assigned ID.
	// A duplicate email returns common.ErrEmailTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the user with the given email, active or not.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetActiveByID returns the active user with the given ID.
	GetActiveByID(ctx context.Context, id int64) (*models.User, error)

	// EmailExists reports whether any account already uses the email.
	EmailExists(ctx context.Context, email string) (bool, error)
}
