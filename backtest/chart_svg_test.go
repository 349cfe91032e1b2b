package backtest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEquitySVG(t *testing.T) {
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	run := &Run{
		Ticker:         "AAPL",
		StartDate:      "2024-01-02",
		EndDate:        "2024-01-04",
		InitialCapital: 10000,
		FinalEquity:    10400,
		Trades: []Trade{
			{Date: date, Type: TradeBuy, Shares: 100, Price: 100},
			{Date: date.AddDate(0, 0, 2), Type: TradeSell, Shares: 100, Price: 104},
		},
		EquityHistory: []EquityPoint{
			{Date: date, Equity: 10000},
			{Date: date.AddDate(0, 0, 1), Equity: 10200},
			{Date: date.AddDate(0, 0, 2), Equity: 10400},
		},
	}

	svg, err := RenderEquitySVG(run, SVGChartOptions{})
	require.NoError(t, err)

	out := string(svg)
	assert.True(t, strings.HasPrefix(out, `<?xml`))
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "AAPL equity")
	assert.Contains(t, out, "<polyline")
	// One marker per trade.
	assert.Equal(t, 2, strings.Count(out, "<circle"))
	assert.Contains(t, out, "2024-01-02")
	assert.Contains(t, out, "2024-01-04")
}

func TestRenderEquitySVGNeedsTwoPoints(t *testing.T) {
	run := &Run{EquityHistory: []EquityPoint{{Equity: 10000}}}
	_, err := RenderEquitySVG(run, SVGChartOptions{})
	assert.Error(t, err)
}
