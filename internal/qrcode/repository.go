package qrcode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound covers both a missing record and one owned by someone else.
var ErrNotFound = errors.New("qr code not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create always inserts a new row; identical options are not deduplicated.
func (r *Repository) Create(ctx context.Context, record Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO qr_codes (id, owner_id, url, dot_style, eye_style, fill_color, back_color, image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, record.ID, record.OwnerID, record.URL, record.DotStyle, record.EyeStyle,
		record.FillColor, record.BackColor, record.Image, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert qr code: %w", err)
	}

	return nil
}

func (r *Repository) List(ctx context.Context, ownerID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, url, dot_style, eye_style, fill_color, back_color, image, created_at
		FROM qr_codes
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query qr codes: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.URL, &rec.DotStyle, &rec.EyeStyle,
			&rec.FillColor, &rec.BackColor, &rec.Image, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan qr code: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate qr codes: %w", err)
	}

	return records, nil
}

func (r *Repository) Get(ctx context.Context, ownerID, id string) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}

	var rec Record
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, url, dot_style, eye_style, fill_color, back_color, image, created_at
		FROM qr_codes
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID).Scan(&rec.ID, &rec.OwnerID, &rec.URL, &rec.DotStyle, &rec.EyeStyle,
		&rec.FillColor, &rec.BackColor, &rec.Image, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("query qr code: %w", err)
	}

	return rec, nil
}

// Delete removes the record only when ownerID owns it.
func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM qr_codes WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete qr code: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
