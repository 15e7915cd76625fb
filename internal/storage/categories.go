package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/InyerM/spends-assistant-web-sub000/internal/common"
	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

// GetCategories returns all active categories.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCategoriesTx(ctx, s.db)
}

func (s *SQLiteStorage) getCategoriesTx(ctx context.Context, q queryable) ([]model.Category, error) {
	query := `
		SELECT id, name, type, created_at, is_active
		FROM categories
		WHERE is_active = 1
		ORDER BY name`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	categories := []model.Category{}
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Type, &cat.CreatedAt, &cat.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategory returns a category by ID.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getCategoryTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getCategoryTx(ctx context.Context, q queryable, id string) (*model.Category, error) {
	query := `
		SELECT id, name, type, created_at, is_active
		FROM categories
		WHERE id = ?`

	var cat model.Category
	err := q.QueryRowContext(ctx, query, id).Scan(
		&cat.ID, &cat.Name, &cat.Type, &cat.CreatedAt, &cat.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return &cat, nil
}

// CreateCategory creates a new category. Creating a category whose name
// belongs to an inactive one reactivates it instead.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}
	return s.createCategoryTx(ctx, s.db, category)
}

func (s *SQLiteStorage) createCategoryTx(ctx context.Context, q queryable, category *model.Category) error {
	existingQuery := `
		SELECT id, name, type, created_at, is_active
		FROM categories
		WHERE name = ?`

	var existing model.Category
	err := q.QueryRowContext(ctx, existingQuery, category.Name).Scan(
		&existing.ID, &existing.Name, &existing.Type, &existing.CreatedAt, &existing.IsActive,
	)

	switch {
	case err == nil:
		if existing.IsActive {
			return fmt.Errorf("category %q: %w", category.Name, common.ErrDuplicateEntry)
		}
		if _, err := q.ExecContext(ctx, `UPDATE categories SET is_active = 1 WHERE id = ?`, existing.ID); err != nil {
			return fmt.Errorf("failed to reactivate category: %w", err)
		}
		existing.IsActive = true
		*category = existing
		slog.Info("reactivated existing category", "name", category.Name)
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to check existing category: %w", err)
	}

	if category.ID == "" {
		category.ID = s.newID()
	}
	category.CreatedAt = time.Now().UTC()
	category.IsActive = true

	insertQuery := `
		INSERT INTO categories (id, name, type, created_at, is_active)
		VALUES (?, ?, ?, ?, 1)`

	if _, err := q.ExecContext(ctx, insertQuery, category.ID, category.Name, category.Type, category.CreatedAt); err != nil {
		return fmt.Errorf("failed to create category: %w", classifyError(err))
	}

	slog.Info("created new category", "name", category.Name, "id", category.ID)
	return nil
}
