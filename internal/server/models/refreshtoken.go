package models

import (
	"database/sql"
	"time"
)

// RefreshToken is a single-use token bound to the access token it was issued
// with via JwtID. Used is nullable: rows written before the used flag existed
// carry NULL, which reads as "not used".
type RefreshToken struct {
	ID        int64
	Token     string
	JwtID     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      sql.NullBool
}

// IsUsed treats NULL as not used.
func (t *RefreshToken) IsUsed() bool {
	return t.Used.Valid && t.Used.Bool
}
