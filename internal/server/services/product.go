package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sharedshoppinglist/internal/common"
	"sharedshoppinglist/internal/logging"
	"sharedshoppinglist/internal/server/cache"
	"sharedshoppinglist/internal/server/models"
	"sharedshoppinglist/internal/server/repositories/repomanager"
)

const maxProductNameLength = 30

// ProductService implements product management on shopping lists: create,
// update, soft delete with undo, and buy with undo.
type ProductService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       *cache.ListCache
	log         logging.Logger
}

func NewProductService(db *sql.DB, m repomanager.RepositoryManager, c *cache.ListCache, log logging.Logger) *ProductService {
	return &ProductService{db: db, repomanager: m, cache: c, log: log}
}

// Get returns a single product view.
func (s *ProductService) Get(ctx context.Context, productID int64) (*models.ProductView, error) {
	view, err := s.repomanager.Products(s.db).View(ctx, productID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: product", common.ErrorNotFound)
		}
		s.log.Error(ctx, "product query failed", "error", err)
		return nil, common.ErrorInternal
	}
	return view, nil
}

// Create adds a product to a list on behalf of userID.
func (s *ProductService) Create(ctx context.Context, userID, listID int64, name string, price int64, isShared bool) (*models.ProductView, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxProductNameLength {
		return nil, fmt.Errorf("%w: product name must be 1-%d characters", common.ErrInvalidArgument, maxProductNameLength)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", common.ErrInvalidArgument)
	}

	if _, err := s.repomanager.ShoppingLists(s.db).GetActiveByID(ctx, listID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: shopping list", common.ErrorNotFound)
		}
		s.log.Error(ctx, "list lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Products(s.db)
	p, err := repo.Create(ctx, &models.Product{
		ShoppingListID: listID,
		Name:           name,
		Price:          price,
		IsShared:       isShared,
		AddedByUserID:  userID,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		s.log.Error(ctx, "product insert failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.invalidateListMembers(ctx, listID)
	return repo.View(ctx, p.ID)
}

// GetAllForList returns the active products of a list.
func (s *ProductService) GetAllForList(ctx context.Context, listID int64) ([]models.ProductView, error) {
	views, err := s.repomanager.Products(s.db).ListForList(ctx, listID)
	if err != nil {
		s.log.Error(ctx, "product list query failed", "error", err)
		return nil, common.ErrorInternal
	}
	return views, nil
}

// Update changes name, price and shared flag of a product that has not been
// bought yet.
func (s *ProductService) Update(ctx context.Context, productID int64, name string, price int64, isShared bool) (*models.ProductView, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxProductNameLength {
		return nil, fmt.Errorf("%w: product name must be 1-%d characters", common.ErrInvalidArgument, maxProductNameLength)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", common.ErrInvalidArgument)
	}

	repo := s.repomanager.Products(s.db)
	p, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.IsBought() {
		return nil, fmt.Errorf("%w: bought products cannot be changed", common.ErrInvalidArgument)
	}
	if err := repo.Update(ctx, p.ID, name, price, isShared); err != nil {
		s.log.Error(ctx, "product update failed", "error", err)
		return nil, common.ErrorInternal
	}
	return repo.View(ctx, p.ID)
}

// Delete soft-deletes a product that has not been bought yet.
func (s *ProductService) Delete(ctx context.Context, productID int64) error {
	p, err := s.activeProduct(ctx, productID)
	if err != nil {
		return err
	}
	if p.IsBought() {
		return fmt.Errorf("%w: bought products cannot be deleted", common.ErrInvalidArgument)
	}
	if err := s.repomanager.Products(s.db).SetActive(ctx, p.ID, false); err != nil {
		s.log.Error(ctx, "product delete failed", "error", err)
		return common.ErrorInternal
	}
	s.invalidateListMembers(ctx, p.ShoppingListID)
	return nil
}

// UndoDelete revives a soft-deleted product.
func (s *ProductService) UndoDelete(ctx context.Context, productID int64) (*models.ProductView, error) {
	repo := s.repomanager.Products(s.db)
	p, err := repo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: product", common.ErrorNotFound)
		}
		s.log.Error(ctx, "product lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if err := repo.SetActive(ctx, p.ID, true); err != nil {
		s.log.Error(ctx, "product undelete failed", "error", err)
		return nil, common.ErrorInternal
	}
	s.invalidateListMembers(ctx, p.ShoppingListID)
	return repo.View(ctx, p.ID)
}

// Buy marks a product bought by userID.
func (s *ProductService) Buy(ctx context.Context, userID, productID int64) (*models.ProductView, error) {
	repo := s.repomanager.Products(s.db)
	p, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.IsBought() {
		return nil, fmt.Errorf("%w: product already bought", common.ErrInvalidArgument)
	}
	if err := repo.SetBought(ctx, p.ID, userID, time.Now()); err != nil {
		s.log.Error(ctx, "product buy failed", "error", err)
		return nil, common.ErrorInternal
	}
	return repo.View(ctx, p.ID)
}

// UndoBuy reverts a purchase. Only the user who bought the product may undo
// it.
func (s *ProductService) UndoBuy(ctx context.Context, userID, productID int64) (*models.ProductView, error) {
	repo := s.repomanager.Products(s.db)
	p, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsBought() {
		return nil, fmt.Errorf("%w: product is not bought", common.ErrInvalidArgument)
	}
	if p.BoughtByUserID.Int64 != userID {
		return nil, common.ErrorUnauthorized
	}
	if err := repo.ClearBought(ctx, p.ID); err != nil {
		s.log.Error(ctx, "product unbuy failed", "error", err)
		return nil, common.ErrorInternal
	}
	return repo.View(ctx, p.ID)
}

// ListIDOf resolves which list a product belongs to, active or not. The HTTP
// layer uses it for membership guards on product routes.
func (s *ProductService) ListIDOf(ctx context.Context, productID int64) (int64, error) {
	p, err := s.repomanager.Products(s.db).GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, fmt.Errorf("%w: product", common.ErrorNotFound)
		}
		s.log.Error(ctx, "product lookup failed", "error", err)
		return 0, common.ErrorInternal
	}
	return p.ShoppingListID, nil
}

// AddedBy resolves who put a product on the list, active or not.
func (s *ProductService) AddedBy(ctx context.Context, productID int64) (int64, error) {
	p, err := s.repomanager.Products(s.db).GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, fmt.Errorf("%w: product", common.ErrorNotFound)
		}
		s.log.Error(ctx, "product lookup failed", "error", err)
		return 0, common.ErrorInternal
	}
	return p.AddedByUserID, nil
}

func (s *ProductService) activeProduct(ctx context.Context, productID int64) (*models.Product, error) {
	p, err := s.repomanager.Products(s.db).GetActiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: product", common.ErrorNotFound)
		}
		s.log.Error(ctx, "product lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	return p, nil
}

func (s *ProductService) invalidateListMembers(ctx context.Context, listID int64) {
	if !s.cache.Enabled() {
		return
	}
	ids, err := s.repomanager.ShoppingLists(s.db).MemberIDs(ctx, listID)
	if err != nil {
		s.log.Warn(ctx, "cache invalidation skipped", "error", err)
		return
	}
	s.cache.Invalidate(ctx, ids...)
}
