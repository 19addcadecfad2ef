package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mcclellann/fredBalances/pkg/config"
	"github.com/mcclellann/fredBalances/pkg/ledger"
	"github.com/mcclellann/fredBalances/pkg/logger"
	"github.com/mcclellann/fredBalances/pkg/models"
	"github.com/mcclellann/fredBalances/pkg/report"
	"github.com/mcclellann/fredBalances/pkg/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Server holds the ledger instance.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage
	logger  zerolog.Logger
}

func NewServer(s store.Storage, opts ...ledger.Option) *Server {
	return &Server{
		ledger:  ledger.NewLedger(s, opts...),
		storage: s,
		logger:  log.Logger,
	}
}

// Close releases the underlying event store.
func (s *Server) Close() error {
	return s.storage.Close()
}

// Router registers all handlers.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/events", s.createEventsHandler).Methods("POST")
	router.HandleFunc("/balances", s.balancesHandler).Methods("GET")
	router.HandleFunc("/balances/{end_date}", s.balancesHandler).Methods("GET")
	router.HandleFunc("/balances/{end_date}/report", s.reportHandler).Methods("GET")
	return router
}

func (s *Server) createEventsHandler(w http.ResponseWriter, r *http.Request) {
	var req []struct {
		Kind   string           `json:"kind"`
		Date   string           `json:"date"`
		Amount *decimal.Decimal `json:"amount"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records := make([]models.Record, 0, len(req))
	for i, e := range req {
		if e.Amount == nil {
			http.Error(w, fmt.Sprintf("event %d: %v: missing amount", i+1, store.ErrMalformedRecord), http.StatusBadRequest)
			return
		}
		rec, err := store.ParseRecord(e.Kind, e.Date, e.Amount.String())
		if err != nil {
			http.Error(w, fmt.Sprintf("event %d: %v", i+1, err), http.StatusBadRequest)
			return
		}
		records = append(records, rec)
	}

	n, err := s.ledger.LoadRecords(r.Context(), records)
	if err != nil {
		s.logger.Error().Err(err).Msg("error loading events")
		http.Error(w, fmt.Sprintf("Failed to load events: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int{"loaded": n})
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) (*models.Statement, bool) {
	var end *time.Time
	if raw, ok := mux.Vars(r)["end_date"]; ok {
		t, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			http.Error(w, "Invalid end date", http.StatusBadRequest)
			return nil, false
		}
		end = &t
	}

	st, err := s.ledger.Calculate(r.Context(), end)
	if err != nil {
		s.logger.Error().Err(err).Msg("error calculating balances")
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrDatabaseNotFound) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return nil, false
	}
	return st, true
}

func (s *Server) balancesHandler(w http.ResponseWriter, r *http.Request) {
	st, ok := s.calculate(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(st)
}

func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	st, ok := s.calculate(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := report.Render(w, st); err != nil {
		s.logger.Error().Err(err).Msg("error rendering report")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.SetGlobalLogger(logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty}))

	// Initialize SQLite Store
	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize SQLite store")
	}
	server := NewServer(sqliteStore,
		ledger.WithDailyRate(cfg.DailyRate),
		ledger.WithLogger(log.Logger),
	)
	defer server.Close()

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Msg("Server starting")
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
