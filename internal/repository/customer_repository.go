package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/tour-booking-api/internal/model"
)

// ErrCustomerNotFound indicates that no customer profile exists for
// the given user or id.
var ErrCustomerNotFound = errors.New("customer not found")

// CustomerRepo manages persistence for customer profiles.
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo constructs a CustomerRepo with the given DB handle.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

// CreateTx inserts a customer profile inside the caller's transaction.
// Registration pairs this with UserRepo.CreateTx so an account never
// exists without its profile.  On success the generated ID and
// timestamps are populated on the given Customer.
func (r *CustomerRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *model.Customer) error {
	const q = `INSERT INTO customers (user_id, full_name, phone) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, c.UserID, c.FullName, c.Phone)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	const sel = `SELECT id, user_id, full_name, phone, created_at, updated_at FROM customers WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, c.ID).Scan(&c.ID, &c.UserID, &c.FullName, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
}

// GetByUserID returns the customer profile owned by a user account.
// It returns ErrCustomerNotFound when the user has no profile, which
// is the case for ADMIN accounts.
func (r *CustomerRepo) GetByUserID(ctx context.Context, userID uint64) (*model.Customer, error) {
	const q = `SELECT id, user_id, full_name, phone, created_at, updated_at FROM customers WHERE user_id = ?`
	var c model.Customer
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&c.ID, &c.UserID, &c.FullName, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByID returns a customer profile by its primary key.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (*model.Customer, error) {
	const q = `SELECT id, user_id, full_name, phone, created_at, updated_at FROM customers WHERE id = ?`
	var c model.Customer
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.UserID, &c.FullName, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

// UpdateProfile changes the display name and phone of the customer
// owned by the given user.
func (r *CustomerRepo) UpdateProfile(ctx context.Context, userID uint64, fullName string, phone *string) error {
	const q = `UPDATE customers SET full_name = ?, phone = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`
	res, err := r.db.ExecContext(ctx, q, fullName, phone, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM customers WHERE user_id = ? LIMIT 1`, userID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCustomerNotFound
			}
			return err
		}
	}
	return nil
}
