package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"investormate/fetcher"
)

// DefaultInitialCapital is used when Options.InitialCapital is zero.
const DefaultInitialCapital = 10000

// Options tunes a backtest. The zero value means: $10,000 starting capital,
// no commission, Yahoo Finance data, default logger.
type Options struct {
	InitialCapital float64
	Commission     float64
	Source         fetcher.Source
	Logger         *slog.Logger
}

// Backtest binds a strategy factory, a ticker, and a date range into one
// runnable simulation.
type Backtest struct {
	newStrategy func() Strategy
	ticker      string
	start, end  time.Time
	opts        Options
}

// New validates the configuration and returns a runnable backtest.
// startDate and endDate are ISO dates (YYYY-MM-DD); validation happens
// here, before any data is fetched.
func New(newStrategy func() Strategy, ticker, startDate, endDate string, opts Options) (*Backtest, error) {
	if newStrategy == nil {
		return nil, fmt.Errorf("strategy factory is required")
	}
	sym, err := fetcher.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if start.After(end) {
		return nil, fmt.Errorf("start date %s is after end date %s", startDate, endDate)
	}

	if opts.InitialCapital == 0 {
		opts.InitialCapital = DefaultInitialCapital
	}
	if opts.InitialCapital < 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %v", opts.InitialCapital)
	}
	if opts.Commission < 0 || opts.Commission >= 1 {
		return nil, fmt.Errorf("commission must be in [0, 1), got %v", opts.Commission)
	}
	if opts.Source == nil {
		opts.Source = fetcher.NewYahooSource()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Backtest{
		newStrategy: newStrategy,
		ticker:      sym,
		start:       start,
		end:         end,
		opts:        opts,
	}, nil
}

// Run executes the simulation and wraps its raw output in Results.
func (b *Backtest) Run(ctx context.Context) (*Results, error) {
	engine := NewEngine(
		b.newStrategy, b.opts.Source,
		b.ticker, b.start, b.end,
		b.opts.InitialCapital, b.opts.Commission,
		b.opts.Logger,
	)
	run, err := engine.Run(ctx)
	if err != nil {
		return nil, err
	}
	return NewResults(run), nil
}

// String describes the configured backtest.
func (b *Backtest) String() string {
	return fmt.Sprintf("Backtest(ticker=%s, period=%s to %s)",
		b.ticker, b.start.Format("2006-01-02"), b.end.Format("2006-01-02"))
}
