package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkRun(capital float64, equities []float64, pnls []float64) *Run {
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	run := &Run{
		Ticker:         "TEST",
		StartDate:      "2024-01-02",
		EndDate:        "2024-12-31",
		InitialCapital: capital,
	}
	for i, eq := range equities {
		run.EquityHistory = append(run.EquityHistory, EquityPoint{
			Date:   date.AddDate(0, 0, i),
			Equity: eq,
			Cash:   eq,
		})
	}
	if len(equities) > 0 {
		run.FinalEquity = equities[len(equities)-1]
	} else {
		run.FinalEquity = capital
	}
	for _, pnl := range pnls {
		run.Trades = append(run.Trades,
			Trade{Date: date, Type: TradeBuy, Shares: 1, Price: 100},
			Trade{Date: date, Type: TradeSell, Shares: 1, Price: 100, PnL: pnl},
		)
	}
	return run
}

func TestMetricsMemoized(t *testing.T) {
	r := NewResults(mkRun(10000, []float64{10000, 10100}, nil))
	first := r.Metrics()
	second := r.Metrics()
	assert.Same(t, first, second)
}

func TestMetricsKnownValues(t *testing.T) {
	// +10% then -5%: ends at 10450, deepest drawdown is the -5% day.
	r := NewResults(mkRun(10000, []float64{10000, 11000, 10450}, []float64{100, -50}))
	m := r.Metrics()

	assert.InDelta(t, 4.5, m.TotalReturn, 1e-9)
	assert.InDelta(t, -5.0, m.MaxDrawdown, 1e-9)
	assert.Greater(t, m.Volatility, 0.0)
	assert.Greater(t, m.CAGR, 0.0)

	assert.Equal(t, 2, m.TotalTrades)
	assert.Equal(t, 1, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.InDelta(t, 50.0, m.WinRate, 1e-9)
	assert.InDelta(t, 100.0, m.AvgWin, 1e-9)
	assert.InDelta(t, 50.0, m.AvgLoss, 1e-9)
	assert.InDelta(t, 2.0, m.ProfitFactor, 1e-9)
	assert.InDelta(t, 50.0, m.TotalPnL, 1e-9)
}

func TestMetricsNoTrades(t *testing.T) {
	r := NewResults(mkRun(10000, []float64{10000, 10000, 10000}, nil))
	m := r.Metrics()

	assert.Zero(t, m.TotalReturn)
	assert.Zero(t, m.TotalTrades)
	assert.Zero(t, m.WinRate)
	assert.Zero(t, m.SharpeRatio)
	assert.Zero(t, m.Volatility)
	assert.Zero(t, m.MaxDrawdown)
	assert.Zero(t, m.ProfitFactor)
}

func TestMetricsCAGRZeroWhenWipedOut(t *testing.T) {
	r := NewResults(mkRun(10000, []float64{10000, 5000, 0}, nil))
	m := r.Metrics()
	assert.Zero(t, m.CAGR)
	assert.InDelta(t, -100, m.TotalReturn, 1e-9)
}

func TestSummaryRendering(t *testing.T) {
	r := NewResults(mkRun(10000, []float64{10000, 11000, 10450}, []float64{100, -50}))
	s := r.Summary()

	require.Contains(t, s, "Backtest Results Summary")
	assert.Contains(t, s, "Performance Metrics:")
	assert.Contains(t, s, "Capital:")
	assert.Contains(t, s, "Trade Statistics:")
	// Dollar amounts carry en-US grouping.
	assert.Contains(t, s, "10,000.00")
	assert.Contains(t, s, "10,450.00")

	// Deterministic: a second render is identical.
	assert.Equal(t, s, r.Summary())
}

func TestMaxDrawdownHelper(t *testing.T) {
	assert.Zero(t, maxDrawdown(nil))
	assert.Zero(t, maxDrawdown([]float64{0.1, 0.2}))
	assert.InDelta(t, -0.5, maxDrawdown([]float64{0.1, -0.5}), 1e-9)

	got := maxDrawdown([]float64{0.1, -0.2, 0.05, -0.3})
	// Trough at cum = 1.1*0.8*1.05*0.7 against the 1.1 peak.
	want := (1.1*0.8*1.05*0.7 - 1.1) / 1.1
	assert.InDelta(t, want, got, 1e-9)
}

func TestEquityCurveAndTradesViews(t *testing.T) {
	run := mkRun(10000, []float64{10000, 10100}, []float64{25})
	r := NewResults(run)

	assert.Len(t, r.EquityCurve(), 2)
	assert.Len(t, r.Trades(), 2)
	assert.Equal(t, run, r.Run())
}
