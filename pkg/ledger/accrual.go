package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDailyRate is the interest charged per day on outstanding principal.
var DefaultDailyRate = decimal.RequireFromString("0.00035")

const day = 24 * time.Hour

// accrue books the interest the current outstanding principal earns from
// since until the next pending event (or the day after the cutoff). The
// result replaces the anchor advance's interest payable.
func (e *Engine) accrue(anchor int, since time.Time) {
	next := e.timeline.nextDate(e.nextAdv, e.nextPay)
	interest := forwardInterest(e.rate, e.stats.Principal(), daysBetween(since, next))

	e.advances[anchor].InterestPayable = interest
	e.stats.bookInterest(interest)
}

// forwardInterest is rate x principal x days.
func forwardInterest(rate, principal decimal.Decimal, days int64) decimal.Decimal {
	return rate.Mul(principal).Mul(decimal.NewFromInt(days))
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int64 {
	return int64(b.Sub(a) / day)
}
