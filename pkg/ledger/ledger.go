package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/fredBalances/pkg/models"
	"github.com/mcclellann/fredBalances/pkg/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Ledger handles balance calculations over an event store.
type Ledger struct {
	storage store.Storage
	rate    decimal.Decimal
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithDailyRate overrides DefaultDailyRate.
func WithDailyRate(rate decimal.Decimal) Option {
	return func(l *Ledger) { l.rate = rate }
}

// WithClock sets the source of "today" used to cap the cutoff date.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger runs report to; the default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage, opts ...Option) *Ledger {
	l := &Ledger{
		storage: s,
		rate:    DefaultDailyRate,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Today returns the current calendar date at midnight UTC.
func (l *Ledger) Today() time.Time {
	n := l.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// ResolveCutoff caps the requested end date at today. A nil end means today.
func (l *Ledger) ResolveCutoff(end *time.Time) time.Time {
	today := l.Today()
	if end == nil {
		return today
	}
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(today) {
		return e
	}
	return today
}

// Calculate computes balance statistics as of end (capped at today).
func (l *Ledger) Calculate(ctx context.Context, end *time.Time) (*models.Statement, error) {
	runID := uuid.New()
	cutoff := l.ResolveCutoff(end)
	logger := l.logger.With().
		Str("run_id", runID.String()).
		Str("cutoff", cutoff.Format(models.DateLayout)).
		Logger()

	records, err := l.storage.GetEventsUpTo(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	logger.Debug().Int("events", len(records)).Msg("events loaded")

	engine, err := NewEngine(records, cutoff, l.rate)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare run: %w", err)
	}
	engine.Run()

	st := buildStatement(runID, cutoff, engine)
	logger.Info().
		Int("advances", len(st.Advances)).
		Int("payments", len(st.Payments)).
		Str("outstanding_principal", st.Totals.OutstandingPrincipal.StringFixed(2)).
		Str("interest_payable", st.Totals.InterestPayable.StringFixed(2)).
		Msg("balance statistics calculated")
	return st, nil
}

// LoadRecords persists parsed records in one batch.
func (l *Ledger) LoadRecords(ctx context.Context, records []models.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	n, err := l.storage.CreateEvents(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("failed to store events: %w", err)
	}
	l.logger.Info().Int("events", n).Msg("events loaded into store")
	return n, nil
}

func buildStatement(runID uuid.UUID, cutoff time.Time, e *Engine) *models.Statement {
	st := &models.Statement{
		RunID:    runID,
		Cutoff:   cutoff,
		Advances: make([]models.AdvanceLine, 0, len(e.Advances())),
		Payments: make([]models.PaymentLine, 0, len(e.Payments())),
		Totals:   e.Statistics().Totals(),
	}
	for i, a := range e.Advances() {
		st.Advances = append(st.Advances, models.AdvanceLine{
			Index:           i + 1,
			Date:            a.Date,
			OriginalAmount:  a.OriginalAmount,
			RemainingAmount: a.RemainingAmount,
			InterestPayable: a.InterestPayable,
		})
	}
	for i, p := range e.Payments() {
		st.Payments = append(st.Payments, models.PaymentLine{
			Index:           i + 1,
			Date:            p.Date,
			OriginalAmount:  p.OriginalAmount,
			RemainingAmount: p.RemainingAmount,
		})
	}
	return st
}
