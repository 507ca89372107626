package models

import (
	"database/sql"
	"time"
)

// Product belongs to a shopping list. Price is in minor currency units.
// Shared products are split across active members on export; personal ones
// are owed by the adder to whoever bought them.
type Product struct {
	ID             int64
	ShoppingListID int64
	Name           string
	Price          int64
	IsShared       bool
	AddedByUserID  int64
	BoughtByUserID sql.NullInt64
	CreatedAt      time.Time
	BoughtAt       sql.NullTime
	IsActive       bool
}

func (p *Product) IsBought() bool {
	return p.BoughtByUserID.Valid
}

// ProductView is the product row shown in list views, with the adder's name
// resolved.
type ProductView struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Price            int64     `json:"price"`
	IsShared         bool      `json:"isShared"`
	IsBought         bool      `json:"isBought"`
	AddedByFirstName string    `json:"addedByFirstName"`
	AddedByLastName  string    `json:"addedByLastName"`
	CreatedAt        time.Time `json:"createdAt"`
}
