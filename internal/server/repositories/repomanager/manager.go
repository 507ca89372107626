package repomanager

import (
	"context"
	"database/sql"

	"sharedshoppinglist/internal/dbx"
	"sharedshoppinglist/internal/server/repositories/products"
	"sharedshoppinglist/internal/server/repositories/refreshtokens"
	"sharedshoppinglist/internal/server/repositories/shoppinglists"
	"sharedshoppinglist/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	ShoppingLists(db dbx.DBTX) shoppinglists.Repository
	Products(db dbx.DBTX) products.Repository
}
