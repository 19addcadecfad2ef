package ledger

import (
	"time"

	"github.com/mcclellann/fredBalances/pkg/models"
)

// timeline merges the advance and payment sequences into one chronological
// processing order without materializing a combined list. Both sequences are
// already sorted by date. It never moves the cursors it is given.
type timeline struct {
	advances []models.Event
	payments []models.Event
	cutoff   time.Time
}

// horizon is the date interest accrues up to once no events remain:
// the day after the cutoff, so the cutoff day itself accrues.
func (t timeline) horizon() time.Time {
	return t.cutoff.AddDate(0, 0, 1)
}

// nextDate returns the date of the earliest event at or after the given
// cursors, or the horizon when both sequences are exhausted or past the cutoff.
func (t timeline) nextDate(adv, pay int) time.Time {
	next := t.horizon()
	if adv < len(t.advances) && !t.advances[adv].Date.After(t.cutoff) {
		next = t.advances[adv].Date
	}
	if pay < len(t.payments) && !t.payments[pay].Date.After(t.cutoff) && !t.payments[pay].Date.After(next) {
		next = t.payments[pay].Date
	}
	return next
}

// next returns which sequence holds the next event to process and its index.
// On a shared date the payment comes first.
func (t timeline) next(adv, pay int) (models.EventKind, int, bool) {
	date := t.nextDate(adv, pay)
	if date.After(t.cutoff) {
		return "", 0, false
	}
	if pay < len(t.payments) && t.payments[pay].Date.Equal(date) {
		return models.EventKindPayment, pay, true
	}
	if adv < len(t.advances) && t.advances[adv].Date.Equal(date) {
		return models.EventKindAdvance, adv, true
	}
	return "", 0, false
}
