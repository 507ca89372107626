// Package products declares the repository contract for products on shopping
// lists.
package products

import (
	"context"
	"time"

	"sharedshoppinglist/internal/server/models"
)

type Repository interface {
	// Create inserts a product and returns it with the assigned ID.
	Create(ctx context.Context, p *models.Product) (*models.Product, error)

	// GetActiveByID returns the active product with the given ID.
	GetActiveByID(ctx context.Context, id int64) (*models.Product, error)

	// GetByID returns the product regardless of the active flag, which the
	// undo-delete flow needs.
	GetByID(ctx context.Context, id int64) (*models.Product, error)

	// View returns the product row with the adder's name resolved.
	View(ctx context.Context, id int64) (*models.ProductView, error)

	// ListForList returns active products of a list, newest first.
	ListForList(ctx context.Context, listID int64) ([]models.ProductView, error)

	// Update changes name, price and shared flag.
	Update(ctx context.Context, id int64, name string, price int64, isShared bool) error

	// SetActive soft-deletes or revives a product.
	SetActive(ctx context.Context, id int64, active bool) error

	// SetBought marks a product bought by userID at the given time.
	SetBought(ctx context.Context, id, userID int64, at time.Time) error

	// ClearBought reverts a purchase.
	ClearBought(ctx context.Context, id int64) error

	// DeactivateForUserAndList soft-deletes the unbought products a leaving
	// member had added to the list.
	DeactivateForUserAndList(ctx context.Context, userID, listID int64) error

	// BoughtBetween returns active products of a list bought inside the
	// window, bounds inclusive.
	BoughtBetween(ctx context.Context, listID int64, from, to time.Time) ([]models.Product, error)
}
