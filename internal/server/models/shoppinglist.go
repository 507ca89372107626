package models

import "time"

type ShoppingList struct {
	ID              int64
	Name            string
	CreatedByUserID int64
	ShareCode       string
	CreatedAt       time.Time
	IsActive        bool
}

// ShoppingListSummary is the list-overview row returned to clients.
type ShoppingListSummary struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	ShareCode        string     `json:"shareCode"`
	CreatedAt        time.Time  `json:"createdAt"`
	ProductCount     int64      `json:"numberOfProducts"`
	LastProductAdded *time.Time `json:"lastProductAddedAt,omitempty"`
}

// Membership links a user to a shopping list. Leaving a list deactivates the
// row instead of deleting it so a rejoin can revive it.
type Membership struct {
	ID             int64
	UserID         int64
	ShoppingListID int64
	JoinedAt       time.Time
	IsActive       bool
}

// Member is the member-view row with the owner flag resolved.
type Member struct {
	UserID    int64     `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	JoinedAt  time.Time `json:"joinedAt"`
	IsOwner   bool      `json:"isOwner"`
}

// ExportEntry is one member's settlement balance for an export window.
// Money is in minor currency units; positive means the group owes the member.
type ExportEntry struct {
	UserID    int64  `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Money     int64  `json:"money"`
}
