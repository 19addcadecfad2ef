package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mcclellann/fredBalances/pkg/config"
	"github.com/mcclellann/fredBalances/pkg/ledger"
	"github.com/mcclellann/fredBalances/pkg/logger"
	"github.com/mcclellann/fredBalances/pkg/models"
	"github.com/mcclellann/fredBalances/pkg/report"
	"github.com/mcclellann/fredBalances/pkg/store"
	"github.com/rs/zerolog"
)

const usage = `Ledger balance calculator.

Usage:
  ledger [--debug] <command> [args]

Commands:
  create-db            Initialize sqlite3 database.
  drop-db              Delete sqlite3 database.
  load FILE            Load events with data from csv file.
  balances [END_DATE]  Display balance statistics as of END_DATE (YYYY-MM-DD).
`

// CLI wires the commands to their output streams and settings.
type CLI struct {
	cfg    *config.Config
	out    io.Writer
	now    func() time.Time
	logger zerolog.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cli := &CLI{cfg: cfg, out: os.Stdout, now: time.Now}
	os.Exit(cli.Run(context.Background(), os.Args[1:]))
}

// Run executes one command and returns the process exit code.
func (c *CLI) Run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	fs.SetOutput(c.out)
	debug := fs.Bool("debug", false, "Debug output, or no debug output.")
	fs.Usage = func() { fmt.Fprint(c.out, usage) }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := c.cfg.LogLevel
	if *debug {
		level = "debug"
		fmt.Fprintln(c.out, "[Debug mode is on]")
	}
	c.logger = logger.New(logger.Config{Level: level, Pretty: c.cfg.LogPretty})
	logger.SetGlobalLogger(c.logger)

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}

	var err error
	switch rest[0] {
	case "create-db":
		err = c.createDB()
	case "drop-db":
		err = c.dropDB()
	case "load":
		if len(rest) != 2 {
			fs.Usage()
			return 2
		}
		err = c.load(ctx, rest[1])
	case "balances":
		end := ""
		if len(rest) > 1 {
			end = rest[1]
		}
		err = c.balances(ctx, end)
	default:
		fmt.Fprintf(c.out, "Error: unknown command %q\n", rest[0])
		fs.Usage()
		return 2
	}

	if err != nil {
		c.logger.Error().Err(err).Str("command", rest[0]).Msg("command failed")
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (c *CLI) createDB() error {
	s, err := store.CreateSQLiteStore(c.cfg.DBPath)
	if errors.Is(err, store.ErrDatabaseExists) {
		fmt.Fprintln(c.out, "Database already exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to create sqlite3 db file: %w", err)
	}
	defer s.Close()

	fmt.Fprintf(c.out, "Initialized database at %s\n", c.cfg.DBPath)
	return nil
}

func (c *CLI) dropDB() error {
	err := store.DropSQLiteStore(c.cfg.DBPath)
	if errors.Is(err, store.ErrDatabaseNotFound) {
		fmt.Fprintf(c.out, "SQLite database does not exist at %s\n", c.cfg.DBPath)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted SQLite database at %s\n", c.cfg.DBPath)
	return nil
}

func (c *CLI) load(ctx context.Context, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", filename, err)
	}
	defer f.Close()

	s, err := store.OpenSQLiteStore(c.cfg.DBPath)
	if errors.Is(err, store.ErrDatabaseNotFound) {
		fmt.Fprintf(c.out, "Database does not exist at %s, please create it using `create-db` command\n", c.cfg.DBPath)
		return nil
	}
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := store.ParseRecords(f)
	if err != nil {
		return fmt.Errorf("could not load %s: %w", filename, err)
	}

	n, err := c.ledger(s).LoadRecords(ctx, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Loaded %d events from %s\n", n, filename)
	return nil
}

func (c *CLI) balances(ctx context.Context, endDate string) error {
	var end *time.Time
	if endDate != "" {
		t, err := time.Parse(models.DateLayout, endDate)
		if err != nil {
			return fmt.Errorf("invalid end date %q, expected YYYY-MM-DD", endDate)
		}
		end = &t
	}

	s, err := store.OpenSQLiteStore(c.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("could not open database at %s: %w", c.cfg.DBPath, err)
	}
	defer s.Close()

	st, err := c.ledger(s).Calculate(ctx, end)
	if err != nil {
		return err
	}
	return report.Render(c.out, st)
}

func (c *CLI) ledger(s store.Storage) *ledger.Ledger {
	return ledger.NewLedger(s,
		ledger.WithDailyRate(c.cfg.DailyRate),
		ledger.WithClock(c.now),
		ledger.WithLogger(c.logger),
	)
}
