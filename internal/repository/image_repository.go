package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/tour-booking-api/internal/model"
)

// ErrImageNotFound indicates that a tour image was not located in the DB.
var ErrImageNotFound = errors.New("image not found")

// ImageRepo manages persistence for tour gallery images.
type ImageRepo struct {
	db *sql.DB
}

// NewImageRepo constructs an ImageRepo with the given DB handle.
func NewImageRepo(db *sql.DB) *ImageRepo {
	return &ImageRepo{db: db}
}

// CreateBulk inserts a batch of images for one tour in a single
// multi-row statement.  IDs are not read back; callers list the
// gallery afterwards if they need the stored rows.
func (r *ImageRepo) CreateBulk(ctx context.Context, tourID uint64, images []model.TourImage) error {
	if len(images) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO tour_images (tour_id, url, alt_text, is_primary) VALUES `)
	args := make([]any, 0, len(images)*4)
	for i, img := range images {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?)")
		args = append(args, tourID, img.URL, img.AltText, img.IsPrimary)
	}
	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	if err != nil && isFKMissingErr(err) {
		return ErrTourNotFound
	}
	return err
}

// ListByTour returns a tour's gallery, primary image first.
func (r *ImageRepo) ListByTour(ctx context.Context, tourID uint64) ([]model.TourImage, error) {
	const q = `SELECT id, tour_id, url, alt_text, is_primary, created_at
	           FROM tour_images
	           WHERE tour_id = ?
	           ORDER BY is_primary DESC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.TourImage{}
	for rows.Next() {
		var img model.TourImage
		if err := rows.Scan(&img.ID, &img.TourID, &img.URL, &img.AltText, &img.IsPrimary, &img.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetPrimary flags one image as the tour's cover and clears the flag
// on its siblings.  Both updates run in one transaction so the gallery
// never has two primaries.
func (r *ImageRepo) SetPrimary(ctx context.Context, tourID, imageID uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	res, err := tx.ExecContext(ctx,
		`UPDATE tour_images SET is_primary = 1 WHERE id = ? AND tour_id = ?`, imageID, tourID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM tour_images WHERE id = ? AND tour_id = ? LIMIT 1`, imageID, tourID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = ErrImageNotFound
			}
			return err
		}
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE tour_images SET is_primary = 0 WHERE tour_id = ? AND id <> ?`, tourID, imageID)
	return err
}

// Delete removes one image from a tour's gallery.
func (r *ImageRepo) Delete(ctx context.Context, tourID, imageID uint64) error {
	const q = `DELETE FROM tour_images WHERE id = ? AND tour_id = ?`
	res, err := r.db.ExecContext(ctx, q, imageID, tourID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrImageNotFound
	}
	return nil
}
