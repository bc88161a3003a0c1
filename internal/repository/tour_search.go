package repository

import (
	"context"
	"strings"
)

// TourSearchQuery defines filters & pagination for searching tours.
// DateFrom/DateTo ("YYYY-MM-DD") and MaxPriceCents narrow the open
// future departures a hit must have; they never match tours with no
// bookable schedule in range.
type TourSearchQuery struct {
	Name          string
	Category      string
	Location      string
	Country       string
	DateFrom      string
	DateTo        string
	MaxPriceCents uint64
	Page          int
	PageSize      int
}

// PublicTourRow is a search hit shaped for the public API.  Prices are
// summarized from the tour's open future schedules; tours without any
// bookable departure report zero.
type PublicTourRow struct {
	ID            uint64  `json:"id"`
	Name          string  `json:"name"`
	CategoryID    uint64  `json:"category_id"`
	Category      string  `json:"category"`
	LocationID    uint64  `json:"location_id"`
	Location      string  `json:"location"`
	Country       string  `json:"country"`
	DurationDays  uint32  `json:"duration_days"`
	FromCents     uint64  `json:"from_cents"`
	FromPrice     float64 `json:"from_price"`
	NextDeparture string  `json:"next_departure,omitempty"`
}

// SearchActive returns active tours matching the query together with
// the total number of hits for pagination.
func (r *TourRepo) SearchActive(ctx context.Context, q TourSearchQuery) ([]PublicTourRow, int64, error) {
	where := []string{"t.is_active = 1"}
	args := []any{}

	if q.Name != "" {
		where = append(where, "LOWER(t.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
	}
	if q.Category != "" {
		where = append(where, "LOWER(cat.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Category)+"%")
	}
	if q.Location != "" {
		where = append(where, "LOWER(l.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Location)+"%")
	}
	if q.Country != "" {
		where = append(where, "LOWER(l.country) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Country)+"%")
	}

	// Schedule filters narrow both the hit set (via EXISTS, so the
	// count matches) and the joined schedule aggregate below.
	schedCond := ""
	schedArgs := []any{}
	if q.DateFrom != "" {
		schedCond += " AND %s.departs_on >= ?"
		schedArgs = append(schedArgs, q.DateFrom)
	}
	if q.DateTo != "" {
		schedCond += " AND %s.departs_on <= ?"
		schedArgs = append(schedArgs, q.DateTo)
	}
	if q.MaxPriceCents > 0 {
		schedCond += " AND %s.adult_price_cents <= ?"
		schedArgs = append(schedArgs, q.MaxPriceCents)
	}
	if len(schedArgs) > 0 {
		where = append(where, `EXISTS (SELECT 1 FROM schedules sx
			WHERE sx.tour_id = t.id AND sx.status = 1 AND sx.departs_on >= CURDATE()`+
			strings.ReplaceAll(schedCond, "%s", "sx")+`)`)
		args = append(args, schedArgs...)
	}

	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM tours t
		JOIN categories cat ON cat.id = t.category_id
		JOIN locations l    ON l.id = t.location_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT
			t.id,
			t.name,
			cat.id  AS category_id,
			cat.name AS category_name,
			l.id    AS location_id,
			l.name  AS location_name,
			l.country,
			t.duration_days,
			COALESCE(MIN(s.adult_price_cents), 0) AS from_cents,
			COALESCE(DATE_FORMAT(MIN(s.departs_on), '%Y-%m-%d'), '') AS next_departure
		FROM tours t
		JOIN categories cat ON cat.id = t.category_id
		JOIN locations l    ON l.id = t.location_id
		LEFT JOIN schedules s ON s.tour_id = t.id AND s.status = 1 AND s.departs_on >= CURDATE()` +
		strings.ReplaceAll(schedCond, "%s", "s") + `
		WHERE ` + cond + `
		GROUP BY t.id, t.name, cat.id, cat.name, l.id, l.name, l.country, t.duration_days
		ORDER BY t.name ASC
		LIMIT ? OFFSET ?`

	// Join placeholders precede the WHERE clause placeholders.
	argsData := append(append(append([]any{}, schedArgs...), args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]PublicTourRow, 0, limit)
	for rows.Next() {
		var d PublicTourRow
		if err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.CategoryID,
			&d.Category,
			&d.LocationID,
			&d.Location,
			&d.Country,
			&d.DurationDays,
			&d.FromCents,
			&d.NextDeparture,
		); err != nil {
			return nil, 0, err
		}
		d.FromPrice = float64(d.FromCents) / 100.0
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
