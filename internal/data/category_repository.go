package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// CategoryRepository handles database operations for categories.
type CategoryRepository struct {
	DB *sqlx.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

const categoryColumns = `id, title, description, slug, is_published, created_at`

// Create inserts a category and returns its ID.
func (r *CategoryRepository) Create(ctx context.Context, category *Category) (int64, error) {
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO categories (title, description, slug, is_published, created_at)
		VALUES (:title, :description, :slug, :is_published, :created_at)`
	res, err := r.DB.NamedExecContext(ctx, query, category)
	if err != nil {
		return 0, fmt.Errorf("failed to create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	category.ID = id
	return id, nil
}

// GetBySlug finds a category by its slug, published or not.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	var category Category
	err := r.DB.GetContext(ctx, &category, `SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}
	return &category, nil
}

// GetByID finds a category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*Category, error) {
	var category Category
	err := r.DB.GetContext(ctx, &category, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("failed to get category by id: %w", err)
	}
	return &category, nil
}

// GetAll retrieves all categories ordered by title.
func (r *CategoryRepository) GetAll(ctx context.Context, onlyPublished bool) ([]*Category, error) {
	var categories []*Category
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if onlyPublished {
		query += ` WHERE is_published = 1`
	}
	query += ` ORDER BY title, id`
	if err := r.DB.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// SetPublished toggles the publication flag of the category with the given slug.
func (r *CategoryRepository) SetPublished(ctx context.Context, slug string, published bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE categories SET is_published = ? WHERE slug = ?`, published, slug)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return expectRow(res)
}

// Delete removes a category. Posts referencing it keep existing with a NULL category.
func (r *CategoryRepository) Delete(ctx context.Context, slug string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM categories WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return expectRow(res)
}

// expectRow maps a statement that touched nothing to ErrNoRecord.
func expectRow(res sql.Result) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNoRecord
	}
	return nil
}
