package ledger

import (
	"github.com/mcclellann/fredBalances/pkg/models"
	"github.com/shopspring/decimal"
)

// Statistics accumulates the run-wide totals. The running sums are signed;
// Totals reports magnitudes only.
type Statistics struct {
	principal         decimal.Decimal
	interestPayable   decimal.Decimal
	interestCollected decimal.Decimal
	unapplied         decimal.Decimal
}

func (s *Statistics) addPrincipal(amount decimal.Decimal) {
	s.principal = s.principal.Add(amount)
}

func (s *Statistics) retirePrincipal(amount decimal.Decimal) {
	s.principal = s.principal.Sub(amount)
}

func (s *Statistics) bookInterest(amount decimal.Decimal) {
	s.interestPayable = s.interestPayable.Add(amount)
}

// collectInterest moves amount from payable to collected.
func (s *Statistics) collectInterest(amount decimal.Decimal) {
	s.interestCollected = s.interestCollected.Add(amount)
	s.interestPayable = s.interestPayable.Sub(amount)
}

// settle records the payment money left over once every event is processed.
func (s *Statistics) settle(payments []models.Event) {
	s.unapplied = decimal.Zero
	for _, p := range payments {
		s.unapplied = s.unapplied.Add(p.RemainingAmount)
	}
}

// Principal is the signed outstanding principal at the current point of the run.
func (s *Statistics) Principal() decimal.Decimal {
	return s.principal
}

// Totals returns the four run totals as absolute magnitudes.
func (s *Statistics) Totals() models.Totals {
	return models.Totals{
		OutstandingPrincipal:  s.principal.Abs(),
		InterestPayable:       s.interestPayable.Abs(),
		InterestCollected:     s.interestCollected.Abs(),
		UnappliedPaymentFunds: s.unapplied.Abs(),
	}
}
