package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/mcclellann/fredBalances/pkg/models"
	"github.com/shopspring/decimal"
)

// Engine runs the balance allocation for one snapshot of events. Each event
// lives exactly once in the advances or payments slice; every cursor and the
// date bucket map refer to events by index.
type Engine struct {
	rate     decimal.Decimal
	advances []models.Event
	payments []models.Event
	timeline timeline

	// first advance index per calendar date; that advance carries the
	// interest of the whole date tranche
	buckets map[string]int

	nextAdv int // next advance to process
	nextPay int // next payment to process

	oldestAdv int // oldest advance still owing principal or interest
	oldestPay int // oldest payment that may still hold funds

	stats Statistics

	afterEvent func(*Engine)
}

// NewEngine builds a run from records. Records dated after cutoff are dropped.
func NewEngine(records []models.Record, cutoff time.Time, rate decimal.Decimal) (*Engine, error) {
	e := &Engine{
		rate:    rate,
		buckets: make(map[string]int),
	}
	for _, r := range records {
		if r.Date.After(cutoff) {
			continue
		}
		switch r.Kind {
		case models.EventKindAdvance:
			e.advances = append(e.advances, models.NewEvent(r))
		case models.EventKindPayment:
			e.payments = append(e.payments, models.NewEvent(r))
		default:
			return nil, fmt.Errorf("event %d: unknown kind %q", r.ID, r.Kind)
		}
	}

	byDate := func(a, b models.Event) int { return a.Date.Compare(b.Date) }
	slices.SortStableFunc(e.advances, byDate)
	slices.SortStableFunc(e.payments, byDate)

	for i, a := range e.advances {
		key := a.Date.Format(models.DateLayout)
		if _, ok := e.buckets[key]; !ok {
			e.buckets[key] = i
		}
	}

	e.timeline = timeline{advances: e.advances, payments: e.payments, cutoff: cutoff}
	return e, nil
}

// Run processes every event up to the cutoff in chronological order.
func (e *Engine) Run() {
	for {
		kind, idx, ok := e.timeline.next(e.nextAdv, e.nextPay)
		if !ok {
			break
		}
		switch kind {
		case models.EventKindPayment:
			e.applyPayment(idx)
		case models.EventKindAdvance:
			e.applyAdvance(idx)
		}
		if e.afterEvent != nil {
			e.afterEvent(e)
		}
	}
	e.stats.settle(e.payments)
}

// applyPayment retires interest and then principal of strictly older
// advances, oldest first, until the payment runs out.
func (e *Engine) applyPayment(idx int) {
	p := &e.payments[idx]

	// Interest payoff walks its own cursor; only principal payoff moves oldestAdv.
	for i := e.oldestAdv; i < len(e.advances) && p.RemainingAmount.IsPositive() && e.advances[i].Date.Before(p.Date); {
		a := &e.advances[i]
		if p.RemainingAmount.GreaterThanOrEqual(a.InterestPayable) {
			e.stats.collectInterest(a.InterestPayable)
			p.RemainingAmount = p.RemainingAmount.Sub(a.InterestPayable)
			a.InterestPayable = decimal.Zero
			i++
		} else {
			e.stats.collectInterest(p.RemainingAmount)
			a.InterestPayable = a.InterestPayable.Sub(p.RemainingAmount)
			p.RemainingAmount = decimal.Zero
		}
	}

	for e.oldestAdv < len(e.advances) && p.RemainingAmount.IsPositive() && e.advances[e.oldestAdv].Date.Before(p.Date) {
		a := &e.advances[e.oldestAdv]
		if p.RemainingAmount.GreaterThan(a.RemainingAmount) {
			e.stats.retirePrincipal(a.RemainingAmount)
			p.RemainingAmount = p.RemainingAmount.Sub(a.RemainingAmount)
			a.RemainingAmount = decimal.Zero
		} else {
			e.stats.retirePrincipal(p.RemainingAmount)
			a.RemainingAmount = a.RemainingAmount.Sub(p.RemainingAmount)
			p.RemainingAmount = decimal.Zero
		}
		if !a.RemainingAmount.IsZero() || !a.InterestPayable.IsZero() {
			break
		}
		e.oldestAdv++
	}

	e.nextPay++
	if anchor, ok := e.oldestUnsettled(); ok {
		e.accrue(anchor, p.Date)
	}
}

// applyAdvance offsets the advance against unconsumed payment money dated on
// or before it, oldest payment first, and books what is left as principal.
func (e *Engine) applyAdvance(idx int) {
	a := &e.advances[idx]

	for e.oldestPay < len(e.payments) && a.RemainingAmount.IsPositive() {
		q := &e.payments[e.oldestPay]
		if q.Date.After(a.Date) {
			break
		}
		if !q.RemainingAmount.IsPositive() {
			e.oldestPay++
			continue
		}
		if a.RemainingAmount.GreaterThan(q.RemainingAmount) {
			a.RemainingAmount = a.RemainingAmount.Sub(q.RemainingAmount)
			q.RemainingAmount = decimal.Zero
			e.oldestPay++
		} else {
			q.RemainingAmount = q.RemainingAmount.Sub(a.RemainingAmount)
			a.RemainingAmount = decimal.Zero
			if q.RemainingAmount.IsZero() {
				e.oldestPay++
			} else {
				// payment still holds funds; interest booked on advances
				// behind the new position is no longer collected
				e.oldestAdv++
			}
		}
	}

	e.stats.addPrincipal(a.RemainingAmount)
	e.nextAdv++
	e.accrue(e.buckets[a.Date.Format(models.DateLayout)], a.Date)
}

// oldestUnsettled is the advance that carries interest booked after a payment.
// Once every advance is settled the last one is used; principal is zero then.
func (e *Engine) oldestUnsettled() (int, bool) {
	switch {
	case len(e.advances) == 0:
		return 0, false
	case e.oldestAdv < len(e.advances):
		return e.oldestAdv, true
	default:
		return len(e.advances) - 1, true
	}
}

// Advances returns the advance events in processing order.
func (e *Engine) Advances() []models.Event {
	return e.advances
}

// Payments returns the payment events in processing order.
func (e *Engine) Payments() []models.Event {
	return e.payments
}

// Statistics returns the run totals accumulated so far.
func (e *Engine) Statistics() *Statistics {
	return &e.stats
}
