package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mcclellann/fredBalances/pkg/models"
	"github.com/shopspring/decimal"
)

// ErrMalformedRecord marks an input row that cannot become a ledger event.
var ErrMalformedRecord = errors.New("malformed record")

// ParseRecords reads headerless kind,date,amount rows. The first bad row
// aborts the whole load.
func ParseRecords(r io.Reader) ([]models.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	var records []models.Record
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, line, err)
		}
		rec, err := ParseRecord(row[0], row[1], row[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseRecord validates a single kind/date/amount triple.
func ParseRecord(kind, date, amount string) (models.Record, error) {
	k := models.EventKind(strings.TrimSpace(kind))
	if !k.Valid() {
		return models.Record{}, fmt.Errorf("%w: unknown event kind %q", ErrMalformedRecord, kind)
	}

	d, err := time.Parse(models.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: invalid date %q", ErrMalformedRecord, date)
	}

	amt, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: invalid amount %q", ErrMalformedRecord, amount)
	}
	if amt.IsNegative() {
		return models.Record{}, fmt.Errorf("%w: negative amount %s", ErrMalformedRecord, amt)
	}

	return models.Record{Kind: k, Amount: amt, Date: d}, nil
}
