// Package shoppinglists provides a PostgreSQL-backed repository for shopping
// lists and memberships.
package shoppinglists

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, list *models.ShoppingList) (*models.ShoppingList, error) {
	query := `
		INSERT INTO shopping_lists (name, created_by_user_id, created_at, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		list.Name, list.CreatedByUserID, list.CreatedAt).Scan(&list.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	list.IsActive = true
	return list, nil
}

func (r *PostgresRepository) SetShareCode(ctx context.Context, listID int64, code string) error {
	query := `
		UPDATE shopping_lists
		SET share_code = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, listID, code); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetActiveByID(ctx context.Context, id int64) (*models.ShoppingList, error) {
	query := `
		SELECT id, name, created_by_user_id, share_code, created_at, is_active
		FROM shopping_lists
		WHERE id = $1 AND is_active = TRUE
	`
	return r.scanList(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByShareCode(ctx context.Context, code string) (*models.ShoppingList, error) {
	query := `
		SELECT id, name, created_by_user_id, share_code, created_at, is_active
		FROM shopping_lists
		WHERE share_code = $1
	`
	return r.scanList(r.db.QueryRowContext(ctx, query, code))
}

func (r *PostgresRepository) scanList(row *sql.Row) (*models.ShoppingList, error) {
	list := &models.ShoppingList{}
	var shareCode sql.NullString
	err := row.Scan(&list.ID, &list.Name, &list.CreatedByUserID, &shareCode, &list.CreatedAt, &list.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	list.ShareCode = shareCode.String
	return list, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, listID int64, name string) error {
	query := `
		UPDATE shopping_lists
		SET name = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, listID, name); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, listID int64, active bool) error {
	query := `
		UPDATE shopping_lists
		SET is_active = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, listID, active); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Summary(ctx context.Context, listID int64) (*models.ShoppingListSummary, error) {
	query := `
		SELECT l.id, l.name, l.share_code, l.created_at,
		       COUNT(p.id), MAX(p.created_at)
		FROM shopping_lists l
		LEFT JOIN products p ON p.shopping_list_id = l.id AND p.is_active = TRUE
		WHERE l.id = $1
		GROUP BY l.id, l.name, l.share_code, l.created_at
	`
	s := models.ShoppingListSummary{}
	var shareCode sql.NullString
	var lastAdded sql.NullTime
	err := r.db.QueryRowContext(ctx, query, listID).Scan(
		&s.ID, &s.Name, &shareCode, &s.CreatedAt, &s.ProductCount, &lastAdded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.ShareCode = shareCode.String
	if lastAdded.Valid {
		s.LastProductAdded = &lastAdded.Time
	}
	return &s, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID int64) ([]models.ShoppingListSummary, error) {
	query := `
		SELECT l.id, l.name, l.share_code, l.created_at,
		       COUNT(p.id), MAX(p.created_at)
		FROM shopping_lists l
		JOIN user_shopping_lists m ON m.shopping_list_id = l.id
		LEFT JOIN products p ON p.shopping_list_id = l.id AND p.is_active = TRUE
		WHERE m.user_id = $1 AND m.is_active = TRUE AND l.is_active = TRUE
		GROUP BY l.id, l.name, l.share_code, l.created_at, m.joined_at
		ORDER BY m.joined_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.ShoppingListSummary{}
	for rows.Next() {
		s := models.ShoppingListSummary{}
		var shareCode sql.NullString
		var lastAdded sql.NullTime
		if err := rows.Scan(&s.ID, &s.Name, &shareCode, &s.CreatedAt, &s.ProductCount, &lastAdded); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		s.ShareCode = shareCode.String
		if lastAdded.Valid {
			s.LastProductAdded = &lastAdded.Time
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, m *models.Membership) error {
	query := `
		INSERT INTO user_shopping_lists (user_id, shopping_list_id, joined_at, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, m.UserID, m.ShoppingListID, m.JoinedAt).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	m.IsActive = true
	return nil
}

func (r *PostgresRepository) FindMembership(ctx context.Context, listID, userID int64) (*models.Membership, error) {
	query := `
		SELECT id, user_id, shopping_list_id, joined_at, is_active
		FROM user_shopping_lists
		WHERE shopping_list_id = $1 AND user_id = $2
	`
	m := &models.Membership{}
	err := r.db.QueryRowContext(ctx, query, listID, userID).Scan(
		&m.ID, &m.UserID, &m.ShoppingListID, &m.JoinedAt, &m.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) SetMembershipActive(ctx context.Context, membershipID int64, active bool) error {
	query := `
		UPDATE user_shopping_lists
		SET is_active = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, membershipID, active); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IsActiveMember(ctx context.Context, listID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_shopping_lists
			WHERE shopping_list_id = $1 AND user_id = $2 AND is_active = TRUE
		)
	`
	var member bool
	if err := r.db.QueryRowContext(ctx, query, listID, userID).Scan(&member); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return member, nil
}

func (r *PostgresRepository) ActiveMemberCount(ctx context.Context, listID int64) (int64, error) {
	query := `
		SELECT COUNT(*) FROM user_shopping_lists
		WHERE shopping_list_id = $1 AND is_active = TRUE
	`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, listID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Members(ctx context.Context, listID int64) ([]models.Member, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, m.joined_at,
		       (l.created_by_user_id = u.id)
		FROM user_shopping_lists m
		JOIN users u ON u.id = m.user_id
		JOIN shopping_lists l ON l.id = m.shopping_list_id
		WHERE m.shopping_list_id = $1 AND m.is_active = TRUE AND u.is_active = TRUE
		ORDER BY m.joined_at
	`
	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Member{}
	for rows.Next() {
		m := models.Member{}
		if err := rows.Scan(&m.UserID, &m.FirstName, &m.LastName, &m.JoinedAt, &m.IsOwner); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) MemberIDs(ctx context.Context, listID int64) ([]int64, error) {
	query := `
		SELECT user_id FROM user_shopping_lists
		WHERE shopping_list_id = $1 AND is_active = TRUE
	`
	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}
