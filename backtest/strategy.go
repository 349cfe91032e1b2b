package backtest

import (
	"fmt"

	"investormate/model"
)

// Strategy is the capability contract a trading strategy implements.
// Implementations must embed Base, which carries the engine binding and
// exposes the trading and account methods.
type Strategy interface {
	// Initialize is called exactly once, before the first bar is
	// processed. Use it to set up parameters and thresholds.
	Initialize()

	// OnData is called once per simulated bar with the bar history
	// truncated at the current bar (inclusive of its close). An error
	// aborts this bar only, never the run.
	OnData(bars []model.Bar) error
}

// engineBinder is satisfied by embedding Base; it keeps binding internal to
// this package.
type engineBinder interface {
	bindEngine(*Engine)
}

// Size specifies an order quantity: exactly one of Shares or Percent must
// be set. Percent is a fraction in [0, 1] of available cash (buys) or of
// the current position (sells).
type Size struct {
	Shares  int
	Percent float64
}

func (s Size) validate() error {
	if s.Shares != 0 && s.Percent != 0 {
		return fmt.Errorf("specify either Shares or Percent, not both")
	}
	if s.Shares == 0 && s.Percent == 0 {
		return fmt.Errorf("must specify either Shares or Percent")
	}
	if s.Shares < 0 {
		return fmt.Errorf("shares must be positive, got %d", s.Shares)
	}
	return nil
}

// Base is the engine-facing half of a strategy. Embed it in a strategy
// struct to get trading methods and read-only account state. Accessing any
// of these before the strategy is bound to a running engine is a programmer
// error and panics.
type Base struct {
	engine *Engine
}

func (b *Base) bindEngine(e *Engine) {
	b.engine = e
}

func (b *Base) mustEngine() *Engine {
	if b.engine == nil {
		panic("backtest: strategy is not bound to an engine; run it through Backtest")
	}
	return b.engine
}

// HasPosition reports whether the strategy currently holds shares.
func (b *Base) HasPosition() bool {
	return b.mustEngine().hasPosition()
}

// PositionSize returns the current position size in shares.
func (b *Base) PositionSize() int {
	return b.mustEngine().positionSize
}

// Cash returns the current cash balance.
func (b *Base) Cash() float64 {
	return b.mustEngine().cash
}

// Equity returns cash plus the mark-to-market value of the open position.
func (b *Base) Equity() float64 {
	return b.mustEngine().equity()
}

// Ticker returns the symbol being simulated.
func (b *Base) Ticker() string {
	return b.mustEngine().ticker
}

// InitialCapital returns the starting capital of the run.
func (b *Base) InitialCapital() float64 {
	return b.mustEngine().initialCapital
}

// Buy places a buy order at the current bar's close. Unaffordable orders
// are clipped to the maximum affordable whole-share quantity; if that is
// zero the order is silently dropped.
func (b *Base) Buy(size Size) error {
	e := b.mustEngine()
	if err := size.validate(); err != nil {
		return err
	}
	if size.Shares > 0 {
		e.buyShares(size.Shares)
		return nil
	}
	return e.buyPercent(size.Percent)
}

// Sell places a sell order at the current bar's close. The quantity is
// clamped to the current position; selling while flat is a no-op.
func (b *Base) Sell(size Size) error {
	e := b.mustEngine()
	if err := size.validate(); err != nil {
		return err
	}
	if size.Shares > 0 {
		e.sellShares(size.Shares)
		return nil
	}
	return e.sellPercent(size.Percent)
}

// SellAll closes the entire position; a no-op while flat.
func (b *Base) SellAll() {
	b.mustEngine().sellAll()
}

// ClosePosition is an alias for SellAll.
func (b *Base) ClosePosition() {
	b.SellAll()
}
