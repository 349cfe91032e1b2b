// Package backtest simulates trading strategies over historical daily bars
// and derives performance metrics from the simulated run.
package backtest

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"time"
)

// ErrNoData is returned by Engine.Run when the data source has no bars for
// the requested symbol and date range.
var ErrNoData = errors.New("no historical data")

// TradeType distinguishes buy and sell executions.
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// Trade is one executed order. Records are appended to the trade log in
// execution order and never mutated.
type Trade struct {
	Date       time.Time `json:"date"`
	Type       TradeType `json:"type"`
	Shares     int       `json:"shares"`
	Price      float64   `json:"price"`
	Commission float64   `json:"commission"`

	// BUY only.
	TotalCost float64 `json:"total_cost,omitempty"`

	// SELL only.
	NetProceeds float64 `json:"net_proceeds,omitempty"`
	PnL         float64 `json:"pnl,omitempty"`
}

// EquityPoint is one equity-curve entry, recorded once per simulated bar
// marked at that bar's close.
type EquityPoint struct {
	Date          time.Time `json:"date"`
	Equity        float64   `json:"equity"`
	Cash          float64   `json:"cash"`
	PositionValue float64   `json:"position_value"`
	PositionSize  int       `json:"position_size"`
}

// Run is the raw result bundle of one completed simulation. It is created
// once by Engine.Run and consumed read-only by Results.
type Run struct {
	Ticker         string        `json:"ticker"`
	StartDate      string        `json:"start_date"`
	EndDate        string        `json:"end_date"`
	InitialCapital float64       `json:"initial_capital"`
	FinalEquity    float64       `json:"final_equity"`
	Trades         []Trade       `json:"trades"`
	EquityHistory  []EquityPoint `json:"equity_history"`
}

// WriteRunJSON writes a run as indented JSON.
func WriteRunJSON(w io.Writer, run *Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
