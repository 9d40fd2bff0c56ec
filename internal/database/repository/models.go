package repository

import "time"

// Slot represents a slots row: an opaque blob persisted under a key.
type Slot struct {
	Key       string
	Data      []byte
	UpdatedAt time.Time
}
