// Package store keeps form definitions as canonical JSON keyed by form id.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no definition is stored under an id.
var ErrNotFound = errors.New("form definition not found")

// Record is a stored definition.
type Record struct {
	ID         string    `json:"id"`
	Definition []byte    `json:"-"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store persists form definitions.
type Store interface {
	Put(ctx context.Context, id string, definition []byte) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
