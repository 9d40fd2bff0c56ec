package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jask/foodswipe/internal/database"
)

// SlotRepo handles slots. It satisfies liked.Slot.
type SlotRepo struct {
	db *sql.DB
	// Clock stamps updated_at.
	Clock func() time.Time
}

func NewSlotRepo(db *sql.DB) *SlotRepo {
	return &SlotRepo{db: db, Clock: database.Now}
}

// Load returns the blob stored under key, or nil when nothing was stored.
func (r *SlotRepo) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM slots WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Store replaces the blob under key.
func (r *SlotRepo) Store(ctx context.Context, key string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO slots(key, data, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
	 data=excluded.data,
	 updated_at=excluded.updated_at;
	`, key, data, r.Clock())
	return err
}

func (r *SlotRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key)
	return err
}

func (r *SlotRepo) List(ctx context.Context) ([]Slot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, data, updated_at FROM slots ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.Key, &s.Data, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
