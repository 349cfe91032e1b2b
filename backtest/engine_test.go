package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investormate/model"
)

// stubSource serves a fixed bar slice regardless of the requested range.
type stubSource struct {
	bars []model.Bar
	err  error
}

func (s *stubSource) History(_ context.Context, _ string, _, _ time.Time) ([]model.Bar, error) {
	return s.bars, s.err
}

func mkBars(closes ...float64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.Bar{
			Date:   date.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

// scriptStrategy runs a callback per bar index.
type scriptStrategy struct {
	Base
	onBar func(s *scriptStrategy, i int, bars []model.Bar) error
	calls int
}

func (s *scriptStrategy) Initialize() {}

func (s *scriptStrategy) OnData(bars []model.Bar) error {
	i := s.calls
	s.calls++
	if s.onBar == nil {
		return nil
	}
	return s.onBar(s, i, bars)
}

func newTestEngine(t *testing.T, bars []model.Bar, capital, commission float64, onBar func(s *scriptStrategy, i int, bars []model.Bar) error) *Engine {
	t.Helper()
	factory := func() Strategy { return &scriptStrategy{onBar: onBar} }
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	return NewEngine(factory, &stubSource{bars: bars}, "TEST", start, end, capital, commission, slog.Default())
}

func TestRunEmptyDataIsFatal(t *testing.T) {
	engine := newTestEngine(t, nil, 10000, 0, nil)
	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRunTruncatesHistoryPerBar(t *testing.T) {
	var lengths []int
	engine := newTestEngine(t, mkBars(100, 101, 102, 103), 10000, 0,
		func(_ *scriptStrategy, _ int, bars []model.Bar) error {
			lengths = append(lengths, len(bars))
			return nil
		})

	_, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, lengths)
}

func TestBuyClipsToAffordableShares(t *testing.T) {
	// 10000 / (150 * 1.01) = 66.006..., so a 100-share order fills 66.
	engine := newTestEngine(t, mkBars(150), 10000, 0.01,
		func(s *scriptStrategy, i int, _ []model.Bar) error {
			if i == 0 {
				return s.Buy(Size{Shares: 100})
			}
			return nil
		})

	run, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, run.Trades)
	buy := run.Trades[0]
	assert.Equal(t, TradeBuy, buy.Type)
	assert.Equal(t, 66, buy.Shares)
	assert.InDelta(t, 66*150*0.01, buy.Commission, 1e-9)
	assert.InDelta(t, 66*150*1.01, buy.TotalCost, 1e-9)
}

func TestBuyUnaffordableIsDropped(t *testing.T) {
	engine := newTestEngine(t, mkBars(150), 100, 0,
		func(s *scriptStrategy, i int, _ []model.Bar) error {
			return s.Buy(Size{Shares: 10})
		})

	run, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, run.Trades)
	assert.InDelta(t, 100, run.FinalEquity, 1e-9)
}

func TestSellClampsToPosition(t *testing.T) {
	engine := newTestEngine(t, mkBars(100, 110), 10000, 0,
		func(s *scriptStrategy, i int, _ []model.Bar) error {
			switch i {
			case 0:
				return s.Buy(Size{Shares: 10})
			case 1:
				return s.Sell(Size{Shares: 100})
			}
			return nil
		})

	run, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Trades, 2)
	sell := run.Trades[1]
	assert.Equal(t, TradeSell, sell.Type)
	assert.Equal(t, 10, sell.Shares)
	assert.InDelta(t, 100, sell.PnL, 1e-9)
}

func TestSellWhileFlatIsNoOp(t *testing.T) {
	engine := newTestEngine(t, mkBars(100, 110), 10000, 0,
		func(s *scriptStrategy, i int, _ []model.Bar) error {
			return s.Sell(Size{Shares: 5})
		})

	run, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, run.Trades)
}

func TestWeightedAverageCostBasis(t *testing.T) {
	engine := newTestEngine(t, mkBars(100, 200, 200), 10000, 0,
		func(s *scriptStrategy, i int, _ []model.Bar) error {
			switch i {
			case 0:
				return s.Buy(Size{Shares: 10})
			case 1:
				return s.Buy(Size{Shares: 10})
			case 2:
				return s.Sell(Size{Shares: 20})
			}
			return nil
		})

	run, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Trades, 3)
	// avg entry (10*100 + 10*200) / 20 = 150; sold 20 @ 200.
	sell := run.Trades[2]
	assert.InDelta(t, 20*200-20*150, sell.PnL, 1e-9)
}

func TestStrategyErrorSkipsBarOnly(t *testing.T) {
	engine := newTestEngine(t, mkBars(100, 101, 102, 103, 104, 105, 106), 10000, 0,
		func(s *scriptStrategy, i int, _ []model.Bar) error {
			if i == 4 {
				return fmt.Errorf("indicator not ready")
			}
			return nil
		})

	run, err := engine.Run(context.Background())
	require.NoError(t, err)
	// Every bar still gets an equity snapshot.
	assert.Len(t, run.EquityHistory, 7)
}

func TestForcedLiquidationAtEnd(t *testing.T) {
	engine := newTestEngine(t, mkBars(100, 110, 120), 10000, 0,
		func(s *scriptStrategy, i int, _ []model.Bar) error {
			if i == 0 {
				return s.Buy(Size{Percent: 1})
			}
			return nil
		})

	run, err := engine.Run(context.Background())
	require.NoError(t, err)

	last := run.Trades[len(run.Trades)-1]
	assert.Equal(t, TradeSell, last.Type)
	// 100 shares bought at 100, force-sold at 120.
	assert.InDelta(t, 12000, run.FinalEquity, 1e-9)
}

func TestEquitySnapshotPerBar(t *testing.T) {
	engine := newTestEngine(t, mkBars(100, 110), 10000, 0,
		func(s *scriptStrategy, i int, _ []model.Bar) error {
			if i == 0 {
				return s.Buy(Size{Shares: 50})
			}
			return nil
		})

	run, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, run.EquityHistory, 2)
	first := run.EquityHistory[0]
	// Snapshot taken after the callback, so the buy shows up on bar 0.
	assert.Equal(t, 50, first.PositionSize)
	assert.InDelta(t, 5000, first.Cash, 1e-9)
	assert.InDelta(t, 10000, first.Equity, 1e-9)

	second := run.EquityHistory[1]
	assert.InDelta(t, 10500, second.Equity, 1e-9)
}

func TestBuyPercentSpendsFraction(t *testing.T) {
	engine := newTestEngine(t, mkBars(100), 10000, 0,
		func(s *scriptStrategy, i int, _ []model.Bar) error {
			return s.Buy(Size{Percent: 0.5})
		})

	run, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, run.Trades)
	assert.Equal(t, 50, run.Trades[0].Shares)
}

func TestCommissionOnBothLegs(t *testing.T) {
	engine := newTestEngine(t, mkBars(100, 100), 10000, 0.001,
		func(s *scriptStrategy, i int, _ []model.Bar) error {
			if i == 0 {
				return s.Buy(Size{Shares: 10})
			}
			return nil
		})

	run, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Trades, 2)
	buy, sell := run.Trades[0], run.Trades[1]
	assert.InDelta(t, 1.0, buy.Commission, 1e-9)
	assert.InDelta(t, 1.0, sell.Commission, 1e-9)
	// Flat price round trip loses exactly the two commissions.
	assert.InDelta(t, -1.0, sell.PnL, 1e-9)
	assert.InDelta(t, 9998, run.FinalEquity, 1e-9)
}

func TestSizeValidation(t *testing.T) {
	engine := newTestEngine(t, mkBars(100), 10000, 0,
		func(s *scriptStrategy, i int, _ []model.Bar) error {
			if err := s.Buy(Size{Shares: 10, Percent: 0.5}); err == nil {
				return fmt.Errorf("expected error for both set")
			}
			if err := s.Buy(Size{}); err == nil {
				return fmt.Errorf("expected error for neither set")
			}
			return nil
		})

	run, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, run.Trades)
}

func TestUnboundStrategyPanics(t *testing.T) {
	var s scriptStrategy
	assert.Panics(t, func() { s.Cash() })
}
