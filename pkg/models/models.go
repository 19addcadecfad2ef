package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used by the event store and the CLI.
const DateLayout = "2006-01-02"

type EventKind string

const (
	EventKindAdvance EventKind = "advance"
	EventKindPayment EventKind = "payment"
)

// Valid reports whether k is one of the two kinds the store accepts.
func (k EventKind) Valid() bool {
	return k == EventKindAdvance || k == EventKindPayment
}

// Record is one persisted ledger row as the event store hands it out.
type Record struct {
	ID     int64           `json:"id"`
	Kind   EventKind       `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

// Event is a Record loaded for a single calculation run. RemainingAmount and
// InterestPayable are mutated in place while the run allocates funds.
type Event struct {
	ID              int64           `json:"id"`
	Kind            EventKind       `json:"kind"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	InterestPayable decimal.Decimal `json:"interest_payable"` // advances only
	Date            time.Time       `json:"date"`
}

// NewEvent builds a fresh run-scoped event from a stored record.
func NewEvent(r Record) Event {
	return Event{
		ID:              r.ID,
		Kind:            r.Kind,
		OriginalAmount:  r.Amount,
		RemainingAmount: r.Amount,
		InterestPayable: decimal.Zero,
		Date:            r.Date,
	}
}

// Totals are the run-wide figures, always reported as absolute magnitudes.
type Totals struct {
	OutstandingPrincipal  decimal.Decimal `json:"outstanding_principal"`
	InterestPayable       decimal.Decimal `json:"interest_payable"`
	InterestCollected     decimal.Decimal `json:"interest_collected"`
	UnappliedPaymentFunds decimal.Decimal `json:"unapplied_payment_funds"`
}

type AdvanceLine struct {
	Index           int             `json:"index"` // 1-based, in processing order
	Date            time.Time       `json:"date"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	InterestPayable decimal.Decimal `json:"interest_payable"`
}

type PaymentLine struct {
	Index           int             `json:"index"`
	Date            time.Time       `json:"date"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// Statement is the result of one balance calculation run.
type Statement struct {
	RunID    uuid.UUID     `json:"run_id"`
	Cutoff   time.Time     `json:"cutoff"`
	Advances []AdvanceLine `json:"advances"`
	Payments []PaymentLine `json:"payments"`
	Totals   Totals        `json:"totals"`
}
