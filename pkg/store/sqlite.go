package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/mcclellann/fredBalances/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db      *sql.DB
	builder squirrel.StatementBuilderType
}

// NewSQLiteStore opens (creating if needed) the database at dataSourceName and
// makes sure the events table exists.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	log.Debug().Str("path", dataSourceName).Msg("event store opened")
	return s, nil
}

// CreateSQLiteStore initializes a brand new database file at path.
func CreateSQLiteStore(path string) (*SQLiteStore, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, ErrDatabaseExists
	}
	return NewSQLiteStore(path)
}

// OpenSQLiteStore opens an existing database file at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrDatabaseNotFound
	}
	return NewSQLiteStore(path)
}

// DropSQLiteStore deletes the database file at path along with its WAL side files.
func DropSQLiteStore(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return ErrDatabaseNotFound
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete database %s file: %w", suffix, err)
		}
	}
	return nil
}

// initSchema creates the events table if it doesn't already exist.
// Amounts are TEXT so no decimal precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		type VARCHAR(32) NOT NULL,
		amount TEXT NOT NULL,
		date_created DATE NOT NULL,
		CHECK (type IN ('advance', 'payment'))
	);
	CREATE INDEX IF NOT EXISTS idx_events_date_type ON events (date_created, type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateEvents inserts records within a single transaction.
func (s *SQLiteStore) CreateEvents(ctx context.Context, records []models.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, r := range records {
		query, args, err := s.builder.
			Insert("events").
			Columns("type", "amount", "date_created").
			Values(string(r.Kind), r.Amount.String(), r.Date.Format(models.DateLayout)).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("failed to create event %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit events: %w", err)
	}
	return len(records), nil
}

// GetEventsUpTo retrieves all events dated on or before cutoff.
func (s *SQLiteStore) GetEventsUpTo(ctx context.Context, cutoff time.Time) ([]models.Record, error) {
	query, args, err := s.builder.
		Select("id", "type", "amount", "date_created").
		From("events").
		Where(squirrel.LtOrEq{"date_created": cutoff.Format(models.DateLayout)}).
		OrderBy("date_created ASC", "type DESC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get events up to %s: %w", cutoff.Format(models.DateLayout), err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var (
			r       models.Record
			kind    string
			amount  decimal.Decimal
			created time.Time
		)
		if err := rows.Scan(&r.ID, &kind, &amount, &created); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		r.Kind = models.EventKind(kind)
		r.Amount = amount
		r.Date = time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, time.UTC)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return records, nil
}

// CountEvents returns the number of stored events.
func (s *SQLiteStore) CountEvents(ctx context.Context) (int, error) {
	query, args, err := s.builder.Select("COUNT(*)").From("events").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
