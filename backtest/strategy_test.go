package backtest

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investormate/model"
)

func runStrategy(t *testing.T, factory func() Strategy, bars []model.Bar) *Run {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	engine := NewEngine(factory, &stubSource{bars: bars}, "TEST", start, end, 10000, 0, slog.Default())
	run, err := engine.Run(context.Background())
	require.NoError(t, err)
	return run
}

func TestSMACrossParamsDefaults(t *testing.T) {
	p := SMACrossParams{}.withDefaults()
	assert.Equal(t, 10, p.Short)
	assert.Equal(t, 30, p.Long)

	// Long must exceed short.
	p = SMACrossParams{Short: 20, Long: 5}.withDefaults()
	assert.Equal(t, 30, p.Long)
}

func TestSMACrossBuysOnGoldenCross(t *testing.T) {
	// Flat then a sharp ramp forces the short SMA over the long one.
	closes := make([]float64, 0, 20)
	for i := 0; i < 10; i++ {
		closes = append(closes, 100)
	}
	for i := 0; i < 10; i++ {
		closes = append(closes, 100+float64(i+1)*5)
	}

	factory := func() Strategy { return NewSMACrossStrategy(SMACrossParams{Short: 3, Long: 6}) }
	run := runStrategy(t, factory, mkBars(closes...))

	require.NotEmpty(t, run.Trades)
	assert.Equal(t, TradeBuy, run.Trades[0].Type)
	// Ends holding, so the forced close yields a final sell.
	assert.Equal(t, TradeSell, run.Trades[len(run.Trades)-1].Type)
	assert.Greater(t, run.FinalEquity, run.InitialCapital)
}

func TestSMACrossStaysFlatWithoutCross(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	factory := func() Strategy { return NewSMACrossStrategy(SMACrossParams{Short: 3, Long: 6}) }
	run := runStrategy(t, factory, mkBars(closes...))
	assert.Empty(t, run.Trades)
}

func TestRSIParamsDefaults(t *testing.T) {
	p := RSIParams{}.withDefaults()
	assert.Equal(t, 14, p.Period)
	assert.InDelta(t, 30, p.BuyBelow, 1e-9)
	assert.InDelta(t, 70, p.SellAbove, 1e-9)
}

func TestRSIBuysOversold(t *testing.T) {
	// A steady decline drives RSI to 0, well under the threshold.
	closes := make([]float64, 0, 12)
	for i := 0; i < 12; i++ {
		closes = append(closes, 100-float64(i)*2)
	}

	factory := func() Strategy { return NewRSIStrategy(RSIParams{Period: 5, BuyBelow: 30, SellAbove: 70}) }
	run := runStrategy(t, factory, mkBars(closes...))

	require.NotEmpty(t, run.Trades)
	assert.Equal(t, TradeBuy, run.Trades[0].Type)
}

func TestRSIStaysOutWhenNeutral(t *testing.T) {
	// Alternating small moves keep RSI near 50.
	closes := make([]float64, 0, 20)
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			closes = append(closes, 100)
		} else {
			closes = append(closes, 101)
		}
	}

	factory := func() Strategy { return NewRSIStrategy(RSIParams{Period: 5, BuyBelow: 30, SellAbove: 70}) }
	run := runStrategy(t, factory, mkBars(closes...))
	assert.Empty(t, run.Trades)
}
