package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mcclellann/fredBalances/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var day0 = time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

func dayN(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func advance(n int, amount string) models.Record {
	return models.Record{Kind: models.EventKindAdvance, Amount: decimal.RequireFromString(amount), Date: dayN(n)}
}

func payment(n int, amount string) models.Record {
	return models.Record{Kind: models.EventKindPayment, Amount: decimal.RequireFromString(amount), Date: dayN(n)}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "%s: expected %s, got %s", field, want, got)
}

func assertTotals(t *testing.T, got models.Totals, principal, payable, collected, unapplied string) {
	t.Helper()
	assertDecimal(t, principal, got.OutstandingPrincipal, "outstanding principal")
	assertDecimal(t, payable, got.InterestPayable, "interest payable")
	assertDecimal(t, collected, got.InterestCollected, "interest collected")
	assertDecimal(t, unapplied, got.UnappliedPaymentFunds, "unapplied payment funds")
}

// MockStore is a simple in-memory implementation of the Storage interface for testing.
// Records are expected in store order already.
type MockStore struct {
	records []models.Record
	err     error
	nextID  int64
}

func NewMockStore(records ...models.Record) *MockStore {
	m := &MockStore{}
	m.CreateEvents(context.Background(), records)
	return m
}

func (m *MockStore) CreateEvents(_ context.Context, records []models.Record) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	for _, r := range records {
		m.nextID++
		r.ID = m.nextID
		m.records = append(m.records, r)
	}
	return len(records), nil
}

func (m *MockStore) GetEventsUpTo(_ context.Context, cutoff time.Time) ([]models.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Record
	for _, r := range m.records {
		if !r.Date.After(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockStore) CountEvents(context.Context) (int, error) {
	return len(m.records), m.err
}

func (m *MockStore) Close() error {
	return nil
}

func runEngine(t *testing.T, cutoff int, records ...models.Record) *Engine {
	t.Helper()
	e, err := NewEngine(records, dayN(cutoff), DefaultDailyRate)
	if err != nil {
		t.Fatalf("Failed to build engine: %v", err)
	}
	e.Run()
	return e
}

func describe(events []models.Event) string {
	s := ""
	for _, e := range events {
		s += fmt.Sprintf("[%s %s rem=%s ipb=%s] ", e.Kind, e.Date.Format(models.DateLayout), e.RemainingAmount, e.InterestPayable)
	}
	return s
}
