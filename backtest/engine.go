package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"investormate/fetcher"
)

// Engine simulates the passage of time over one symbol's historical bars,
// offering order-execution primitives that a Strategy calls synchronously
// from its per-bar callback. All fills happen at the current bar's close.
//
// Each Engine owns its own cash/position/trade-log state; concurrent runs
// must use independent instances.
type Engine struct {
	newStrategy    func() Strategy
	source         fetcher.Source
	ticker         string
	start, end     time.Time
	initialCapital float64
	commission     float64
	log            *slog.Logger

	cash          float64
	positionSize  int
	avgEntryPrice float64
	trades        []Trade
	equityHistory []EquityPoint
	currentDate   time.Time
	currentPrice  float64
}

// NewEngine creates an engine for one run. commission is a proportional
// rate applied to both buy and sell notional value (0.001 = 0.1%).
func NewEngine(newStrategy func() Strategy, source fetcher.Source, ticker string, start, end time.Time, initialCapital, commission float64, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		newStrategy:    newStrategy,
		source:         source,
		ticker:         ticker,
		start:          start,
		end:            end,
		initialCapital: initialCapital,
		commission:     commission,
		log:            logger,
		cash:           initialCapital,
	}
}

func (e *Engine) hasPosition() bool {
	return e.positionSize > 0
}

// equity is cash plus the mark-to-market value of any open position at the
// current bar's close.
func (e *Engine) equity() float64 {
	return e.cash + float64(e.positionSize)*e.currentPrice
}

// buyShares executes a buy at the current close. Orders that exceed
// available cash are clipped to the maximum affordable whole-share
// quantity; if that is zero the order is silently dropped.
func (e *Engine) buyShares(shares int) {
	if shares <= 0 || e.currentPrice <= 0 {
		return
	}

	cost := float64(shares) * e.currentPrice
	commission := cost * e.commission
	total := cost + commission

	if total > e.cash {
		affordable := int(e.cash / (e.currentPrice * (1 + e.commission)))
		if affordable <= 0 {
			return
		}
		shares = affordable
		cost = float64(shares) * e.currentPrice
		commission = cost * e.commission
		total = cost + commission
	}

	if e.positionSize > 0 {
		// Merge into the existing position at weighted-average cost.
		totalShares := e.positionSize + shares
		basis := float64(e.positionSize)*e.avgEntryPrice + cost
		e.avgEntryPrice = basis / float64(totalShares)
		e.positionSize = totalShares
	} else {
		e.positionSize = shares
		e.avgEntryPrice = e.currentPrice
	}

	e.cash -= total
	e.trades = append(e.trades, Trade{
		Date:       e.currentDate,
		Type:       TradeBuy,
		Shares:     shares,
		Price:      e.currentPrice,
		Commission: commission,
		TotalCost:  total,
	})
}

// buyPercent spends the given fraction of available cash, commission
// included, rounded down to whole shares.
func (e *Engine) buyPercent(percent float64) error {
	if percent < 0 || percent > 1 {
		return fmt.Errorf("percent must be between 0 and 1, got %v", percent)
	}
	if e.currentPrice <= 0 {
		return nil
	}
	shares := int(e.cash * percent / (e.currentPrice * (1 + e.commission)))
	if shares > 0 {
		e.buyShares(shares)
	}
	return nil
}

// sellShares executes a sell at the current close. The quantity is clamped
// to the current position; selling with no position is a no-op.
func (e *Engine) sellShares(shares int) {
	if !e.hasPosition() || shares <= 0 {
		return
	}
	if shares > e.positionSize {
		shares = e.positionSize
	}

	proceeds := float64(shares) * e.currentPrice
	commission := proceeds * e.commission
	net := proceeds - commission
	costBasis := float64(shares) * e.avgEntryPrice
	pnl := proceeds - costBasis - commission

	e.cash += net
	e.positionSize -= shares
	if e.positionSize == 0 {
		e.avgEntryPrice = 0
	}

	e.trades = append(e.trades, Trade{
		Date:        e.currentDate,
		Type:        TradeSell,
		Shares:      shares,
		Price:       e.currentPrice,
		Commission:  commission,
		NetProceeds: net,
		PnL:         pnl,
	})
}

// sellPercent sells the given fraction of the current position, rounded
// down to whole shares.
func (e *Engine) sellPercent(percent float64) error {
	if percent < 0 || percent > 1 {
		return fmt.Errorf("percent must be between 0 and 1, got %v", percent)
	}
	shares := int(float64(e.positionSize) * percent)
	if shares > 0 {
		e.sellShares(shares)
	}
	return nil
}

func (e *Engine) sellAll() {
	if e.hasPosition() {
		e.sellShares(e.positionSize)
	}
}

// Run executes the simulation: fetch bars, initialize the strategy, walk
// the bars chronologically invoking the per-bar callback, then force-close
// any open position at the last close so the final equity is fully cash.
//
// Missing data is fatal; an error from a single bar's callback is logged
// with the offending date and the loop continues.
func (e *Engine) Run(ctx context.Context) (*Run, error) {
	bars, err := e.source.History(ctx, e.ticker, e.start, e.end)
	if err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", e.ticker, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w for %s between %s and %s",
			ErrNoData, e.ticker, e.start.Format("2006-01-02"), e.end.Format("2006-01-02"))
	}

	strat := e.newStrategy()
	binder, ok := strat.(engineBinder)
	if !ok {
		return nil, fmt.Errorf("strategy %T must embed backtest.Base", strat)
	}
	binder.bindEngine(e)
	strat.Initialize()

	for i := range bars {
		e.currentDate = bars[i].Date
		e.currentPrice = bars[i].Close

		// The strategy sees history truncated at the current bar,
		// inclusive of its close.
		if err := strat.OnData(bars[:i+1]); err != nil {
			e.log.Warn("strategy error, skipping bar",
				"ticker", e.ticker,
				"date", e.currentDate.Format("2006-01-02"),
				"err", err,
			)
		}

		e.equityHistory = append(e.equityHistory, EquityPoint{
			Date:          e.currentDate,
			Equity:        e.equity(),
			Cash:          e.cash,
			PositionValue: float64(e.positionSize) * e.currentPrice,
			PositionSize:  e.positionSize,
		})
	}

	e.sellAll()

	return &Run{
		Ticker:         e.ticker,
		StartDate:      e.start.Format("2006-01-02"),
		EndDate:        e.end.Format("2006-01-02"),
		InitialCapital: e.initialCapital,
		FinalEquity:    e.equity(),
		Trades:         e.trades,
		EquityHistory:  e.equityHistory,
	}, nil
}
