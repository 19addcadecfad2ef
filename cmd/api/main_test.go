package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mcclellann/fredBalances/pkg/ledger"
	"github.com/mcclellann/fredBalances/pkg/models"
	"github.com/mcclellann/fredBalances/pkg/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) *Server {
	dbFile := filepath.Join(t.TempDir(), "test_api.db")

	s, err := store.NewSQLiteStore(dbFile)
	require.NoError(t, err, "Failed to create store")
	today := time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)
	server := NewServer(s, ledger.WithClock(func() time.Time { return today }))
	t.Cleanup(func() { server.Close() })
	return server
}

func postEvents(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/events", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestAPI_LoadAndGetBalances(t *testing.T) {
	server := setupTestServer(t)
	router := server.Router()

	rr := postEvents(t, router, `[
		{"kind": "payment", "date": "2021-01-01", "amount": "500"},
		{"kind": "advance", "date": "2021-01-04", "amount": 300}
	]`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	req := httptest.NewRequest("GET", "/balances/2021-01-10", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var st models.Statement
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, time.Date(2021, time.January, 10, 0, 0, 0, 0, time.UTC), st.Cutoff)
	require.Len(t, st.Advances, 1)
	assert.True(t, st.Advances[0].RemainingAmount.IsZero())
	assert.True(t, st.Totals.OutstandingPrincipal.IsZero())
	assert.True(t, decimal.NewFromInt(200).Equal(st.Totals.UnappliedPaymentFunds), "got %s", st.Totals.UnappliedPaymentFunds)
}

func TestAPI_Report(t *testing.T) {
	server := setupTestServer(t)
	router := server.Router()

	rr := postEvents(t, router, `[{"kind": "advance", "date": "2021-01-01", "amount": "1000"}]`)
	require.Equal(t, http.StatusCreated, rr.Code)

	req := httptest.NewRequest("GET", "/balances/2021-01-11/report", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "Advances:\n"))
	assert.Contains(t, rr.Body.String(), "Interest Payable Balance:                             3.85\n")
}

func TestAPI_RejectsBadInput(t *testing.T) {
	server := setupTestServer(t)
	router := server.Router()

	rr := postEvents(t, router, `[{"kind": "refund", "date": "2021-01-01", "amount": "1"}]`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postEvents(t, router, `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	for _, body := range []string{
		`[{"kind": "advance", "date": "2021-01-01"}]`,
		`[{"kind": "advance", "date": "2021-01-01", "amount": null}]`,
		`[{"kind": "payment", "date": "2021-01-01", "amount": "-5"}]`,
	} {
		rr = postEvents(t, router, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}

	count, err := server.storage.CountEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count, "rejected events must not be stored")

	req := httptest.NewRequest("GET", "/balances/yesterday", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
