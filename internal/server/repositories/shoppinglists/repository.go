// Package shoppinglists declares the repository contract for shopping lists
// and their memberships.
package shoppinglists

import (
	"context"

	"sharedshoppinglist/internal/server/models"
)

type Repository interface {
	// Create inserts a new list and returns it with the assigned ID.
	Create(ctx context.Context, list *models.ShoppingList) (*models.ShoppingList, error)

	// SetShareCode stores the join code generated for a freshly created list.
	SetShareCode(ctx context.Context, listID int64, code string) error

	// GetActiveByID returns the active list with the given ID.
	GetActiveByID(ctx context.Context, id int64) (*models.ShoppingList, error)

	// GetByShareCode resolves a join code to its list, active or not. Joining
	// an inactive list revives it, so the lookup must not filter.
	GetByShareCode(ctx context.Context, code string) (*models.ShoppingList, error)

	Rename(ctx context.Context, listID int64, name string) error

	// SetActive soft-deletes or revives a list.
	SetActive(ctx context.Context, listID int64, active bool) error

	// Summary returns the overview row for a single list.
	Summary(ctx context.Context, listID int64) (*models.ShoppingListSummary, error)

	// ListForUser returns overview rows for every active list the user is an
	// active member of, most recently joined first.
	ListForUser(ctx context.Context, userID int64) ([]models.ShoppingListSummary, error)

	// AddMember inserts a membership row.
	AddMember(ctx context.Context, m *models.Membership) error

	// FindMembership returns the membership row for (listID, userID) whether
	// active or not.
	FindMembership(ctx context.Context, listID, userID int64) (*models.Membership, error)

	// SetMembershipActive revives or deactivates a membership.
	SetMembershipActive(ctx context.Context, membershipID int64, active bool) error

	// IsActiveMember reports whether the user is an active member of the list.
	IsActiveMember(ctx context.Context, listID, userID int64) (bool, error)

	ActiveMemberCount(ctx context.Context, listID int64) (int64, error)

	// Members returns the active members of a list with the owner flag set.
	Members(ctx context.Context, listID int64) ([]models.Member, error)

	// MemberIDs returns the user IDs of all active members.
	MemberIDs(ctx context.Context, listID int64) ([]int64, error)
}
