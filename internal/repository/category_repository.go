package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/tour-booking-api/internal/model"
)

// ErrCategoryNotFound indicates that a category was not located in the DB.
var ErrCategoryNotFound = errors.New("category not found")

// ErrCategoryExists indicates that a category with the same name
// already exists.
var ErrCategoryExists = errors.New("category already exists")

// CategoryRepo manages persistence for tour categories.
type CategoryRepo struct {
	db *sql.DB
}

// NewCategoryRepo constructs a CategoryRepo with the given DB handle.
func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// Create inserts a category and assigns the generated ID back to the
// struct.  The unique key on name turns duplicates into
// ErrCategoryExists.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	const q = `INSERT INTO categories (name, description) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.Name, c.Description)
	if err != nil {
		if isDuplicateErr(err) {
			return ErrCategoryExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	const sel = `SELECT id, name, description, created_at, updated_at FROM categories WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, c.ID).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID retrieves a category by its ID.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*model.Category, error) {
	const q = `SELECT id, name, description, created_at, updated_at FROM categories WHERE id = ?`
	var c model.Category
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	const q = `SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update changes a category's name and description.
func (r *CategoryRepo) Update(ctx context.Context, c *model.Category) error {
	const q = `UPDATE categories SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, c.Name, c.Description, c.ID)
	if err != nil {
		if isDuplicateErr(err) {
			return ErrCategoryExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = ? LIMIT 1`, c.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCategoryNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a category.  Categories still referenced by tours
// are protected by a foreign key and reported as ErrConflict.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) error {
	const q = `DELETE FROM categories WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		if isFKConstraintErr(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
