// Package report renders balance statements as the fixed-width text table
// printed by the CLI.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mcclellann/fredBalances/pkg/models"
	"github.com/shopspring/decimal"
)

var rule = strings.Repeat("-", 58)

// Render writes the per-advance table followed by the summary totals.
func Render(w io.Writer, st *models.Statement) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "Advances:")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "%10s%11s%17s%20s\n", "Identifier", "Date", "Initial Amt", "Current Balance")
	for _, a := range st.Advances {
		fmt.Fprintf(bw, "%10d%11s%17s%20s\n",
			a.Index,
			a.Date.Format(models.DateLayout),
			money(a.OriginalAmount),
			money(a.RemainingAmount),
		)
	}

	fmt.Fprintln(bw, "\nSummary Statistics:")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Aggregate Advance Balance: %31s\n", money(st.Totals.OutstandingPrincipal))
	fmt.Fprintf(bw, "Interest Payable Balance: %32s\n", money(st.Totals.InterestPayable))
	fmt.Fprintf(bw, "Total Interest Paid: %37s\n", money(st.Totals.InterestCollected))
	fmt.Fprintf(bw, "Balance Applicable to Future Advances: %19s\n", money(st.Totals.UnappliedPaymentFunds))

	return bw.Flush()
}

// money formats to cents with half-even rounding.
func money(d decimal.Decimal) string {
	return d.StringFixedBank(2)
}
