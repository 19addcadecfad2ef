package ledger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestResolveCutoff(t *testing.T) {
	today := time.Date(2021, time.June, 1, 15, 30, 0, 0, time.UTC)
	l := NewLedger(NewMockStore(), WithClock(fixedClock(today)))

	midnight := time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, midnight, l.ResolveCutoff(nil))

	later := time.Date(2021, time.July, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, midnight, l.ResolveCutoff(&later), "future end dates are capped at today")

	earlier := time.Date(2021, time.May, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, earlier, l.ResolveCutoff(&earlier))
}

func TestCalculate(t *testing.T) {
	store := NewMockStore(advance(0, "1000"), payment(5, "1000"), advance(20, "50"))
	l := NewLedger(store, WithClock(fixedClock(dayN(30))))

	end := dayN(5)
	st, err := l.Calculate(context.Background(), &end)
	require.NoError(t, err)

	assert.Equal(t, dayN(5), st.Cutoff)
	require.Len(t, st.Advances, 1)
	require.Len(t, st.Payments, 1)
	assert.Equal(t, 1, st.Advances[0].Index)
	assertDecimal(t, "1000", st.Advances[0].OriginalAmount, "original")
	assertDecimal(t, "1.75", st.Advances[0].RemainingAmount, "remaining")
	assertTotals(t, st.Totals, "1.75", "0.0006125", "1.75", "0")
}

func TestCalculate_IsIdempotent(t *testing.T) {
	store := NewMockStore(randomLedger(7, 60)...)
	l := NewLedger(store, WithClock(fixedClock(dayN(365))))

	first, err := l.Calculate(context.Background(), nil)
	require.NoError(t, err)
	second, err := l.Calculate(context.Background(), nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Totals, second.Totals)
	assert.Equal(t, first.Advances, second.Advances)
	assert.Equal(t, first.Payments, second.Payments)
}

func TestCalculate_StoreFailure(t *testing.T) {
	store := NewMockStore()
	store.err = errors.New("disk on fire")
	l := NewLedger(store)

	st, err := l.Calculate(context.Background(), nil)
	assert.Nil(t, st)
	assert.ErrorIs(t, err, store.err)
}

func TestLoadRecords(t *testing.T) {
	store := NewMockStore()
	l := NewLedger(store)

	n, err := l.LoadRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = l.LoadRecords(context.Background(), randomLedger(3, 10))
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	count, _ := store.CountEvents(context.Background())
	assert.Equal(t, 10, count)
}

func TestCalculate_LogsRunToConfiguredLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLedger(NewMockStore(advance(0, "1000")),
		WithClock(fixedClock(dayN(10))),
		WithLogger(zerolog.New(&buf)),
	)

	st, err := l.Calculate(context.Background(), nil)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"run_id":"`+st.RunID.String()+`"`)
	assert.Contains(t, buf.String(), `"cutoff":"2021-01-11"`)
	assert.Contains(t, buf.String(), "balance statistics calculated")
}
