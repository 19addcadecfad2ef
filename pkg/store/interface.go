package store

import (
	"context"
	"errors"
	"time"

	"github.com/mcclellann/fredBalances/pkg/models"
)

var (
	// ErrDatabaseNotFound is returned when an operation needs an existing event store.
	ErrDatabaseNotFound = errors.New("database not found")
	// ErrDatabaseExists is returned when creating a store over an existing one.
	ErrDatabaseExists = errors.New("database already exists")
)

// Storage defines the event repository the balance calculation reads from.
type Storage interface {
	// CreateEvents stores all records or none of them and returns how many were written.
	CreateEvents(ctx context.Context, records []models.Record) (int, error)
	// GetEventsUpTo returns every record dated on or before cutoff, ordered by
	// date ascending with payments ahead of advances on the same date, then by id.
	GetEventsUpTo(ctx context.Context, cutoff time.Time) ([]models.Record, error)
	CountEvents(ctx context.Context) (int, error)

	Close() error
}
