// Package products provides a PostgreSQL-backed repository for products.
package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sharedshoppinglist/internal/common"
	"sharedshoppinglist/internal/dbx"
	"sharedshoppinglist/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (shopping_list_id, name, price, is_shared, added_by_user_id, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ShoppingListID, p.Name, p.Price, p.IsShared, p.AddedByUserID, p.CreatedAt).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.IsActive = true
	return p, nil
}

func (r *PostgresRepository) GetActiveByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `
		SELECT id, shopping_list_id, name, price, is_shared, added_by_user_id,
		       bought_by_user_id, created_at, bought_at, is_active
		FROM products
		WHERE id = $1 AND is_active = TRUE
	`
	p := &models.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.ShoppingListID, &p.Name, &p.Price, &p.IsShared, &p.AddedByUserID,
		&p.BoughtByUserID, &p.CreatedAt, &p.BoughtAt, &p.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `
		SELECT id, shopping_list_id, name, price, is_shared, added_by_user_id,
		       bought_by_user_id, created_at, bought_at, is_active
		FROM products
		WHERE id = $1
	`
	p := &models.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.ShoppingListID, &p.Name, &p.Price, &p.IsShared, &p.AddedByUserID,
		&p.BoughtByUserID, &p.CreatedAt, &p.BoughtAt, &p.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) View(ctx context.Context, id int64) (*models.ProductView, error) {
	query := `
		SELECT p.id, p.name, p.price, p.is_shared, (p.bought_by_user_id IS NOT NULL),
		       u.first_name, u.last_name, p.created_at
		FROM products p
		JOIN users u ON u.id = p.added_by_user_id
		WHERE p.id = $1 AND p.is_active = TRUE
	`
	v := &models.ProductView{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.Name, &v.Price, &v.IsShared, &v.IsBought,
		&v.AddedByFirstName, &v.AddedByLastName, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) ListForList(ctx context.Context, listID int64) ([]models.ProductView, error) {
	query := `
		SELECT p.id, p.name, p.price, p.is_shared, (p.bought_by_user_id IS NOT NULL),
		       u.first_name, u.last_name, p.created_at
		FROM products p
		JOIN users u ON u.id = p.added_by_user_id
		WHERE p.shopping_list_id = $1 AND p.is_active = TRUE
		ORDER BY p.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.ProductView{}
	for rows.Next() {
		v := models.ProductView{}
		if err := rows.Scan(&v.ID, &v.Name, &v.Price, &v.IsShared, &v.IsBought,
			&v.AddedByFirstName, &v.AddedByLastName, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, name string, price int64, isShared bool) error {
	query := `
		UPDATE products
		SET name = $2, price = $3, is_shared = $4
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, name, price, isShared); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `
		UPDATE products
		SET is_active = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, active); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetBought(ctx context.Context, id, userID int64, at time.Time) error {
	query := `
		UPDATE products
		SET bought_by_user_id = $2, bought_at = $3
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, userID, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ClearBought(ctx context.Context, id int64) error {
	query := `
		UPDATE products
		SET bought_by_user_id = NULL, bought_at = NULL
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeactivateForUserAndList(ctx context.Context, userID, listID int64) error {
	query := `
		UPDATE products
		SET is_active = FALSE
		WHERE shopping_list_id = $1 AND added_by_user_id = $2 AND bought_by_user_id IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, listID, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) BoughtBetween(ctx context.Context, listID int64, from, to time.Time) ([]models.Product, error) {
	query := `
		SELECT id, shopping_list_id, name, price, is_shared, added_by_user_id,
		       bought_by_user_id, created_at, bought_at, is_active
		FROM products
		WHERE shopping_list_id = $1 AND is_active = TRUE
		  AND bought_at >= $2 AND bought_at <= $3
	`
	rows, err := r.db.QueryContext(ctx, query, listID, from, to)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Product{}
	for rows.Next() {
		p := models.Product{}
		if err := rows.Scan(&p.ID, &p.ShoppingListID, &p.Name, &p.Price, &p.IsShared, &p.AddedByUserID,
			&p.BoughtByUserID, &p.CreatedAt, &p.BoughtAt, &p.IsActive); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
