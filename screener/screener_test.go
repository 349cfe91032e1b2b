package screener

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investormate/model"
)

// mapSource serves canned bars per symbol.
type mapSource struct {
	bars map[string][]model.Bar
}

func (s *mapSource) History(_ context.Context, symbol string, _, _ time.Time) ([]model.Bar, error) {
	bars, ok := s.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("fetch failed for %s", symbol)
	}
	return bars, nil
}

// trendBars builds n daily bars ending at lastClose with a constant step.
func trendBars(n int, lastClose, step float64) []model.Bar {
	bars := make([]model.Bar, n)
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := lastClose - float64(n-1-i)*step
		bars[i] = model.Bar{
			Date: date.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000,
		}
	}
	return bars
}

func newTestScreener() *Screener {
	return New(&mapSource{bars: map[string][]model.Bar{
		"UP":   trendBars(80, 200, 1),
		"DOWN": trendBars(80, 50, -1),
	}}, nil)
}

func TestScreenComputesMetrics(t *testing.T) {
	scr := newTestScreener()
	results, err := scr.Screen(context.Background(), Request{Symbols: []string{"UP"}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "UP", r.Symbol)
	assert.Empty(t, r.Err)
	assert.InDelta(t, 200, r.Values[MetricLastClose], 1e-9)
	// 21 bars back the close was 179.
	assert.InDelta(t, (200.0-179.0)/179.0*100, r.Values[MetricReturn1M], 0.01)
	assert.Greater(t, r.Values[MetricSMARatio], 1.0)
	assert.InDelta(t, 100, r.Values[MetricRSI14], 1e-9)
	assert.InDelta(t, 1000, r.Values[MetricAvgVolume], 1e-9)
}

func TestScreenFilters(t *testing.T) {
	scr := newTestScreener()
	min := 100.0
	results, err := scr.Screen(context.Background(), Request{
		Symbols: []string{"UP", "DOWN"},
		Filters: []Filter{{Metric: MetricLastClose, Min: &min}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "UP", results[0].Symbol)
}

func TestScreenRanksAndLimits(t *testing.T) {
	scr := newTestScreener()
	results, err := scr.Screen(context.Background(), Request{
		Symbols:   []string{"DOWN", "UP"},
		RankBy:    MetricLastClose,
		Ascending: false,
		Limit:     1,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "UP", results[0].Symbol)
}

func TestScreenPerSymbolErrorsNotFatal(t *testing.T) {
	scr := newTestScreener()
	results, err := scr.Screen(context.Background(), Request{
		Symbols: []string{"UP", "MISSING"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Symbol] = r
	}
	assert.Empty(t, byName["UP"].Err)
	assert.NotEmpty(t, byName["MISSING"].Err)
}

func TestScreenRejectsBadRequests(t *testing.T) {
	scr := newTestScreener()

	_, err := scr.Screen(context.Background(), Request{})
	assert.Error(t, err)

	_, err = scr.Screen(context.Background(), Request{
		Symbols: []string{"UP"},
		Filters: []Filter{{Metric: "pe_ratio"}},
	})
	assert.Error(t, err)

	_, err = scr.Screen(context.Background(), Request{
		Symbols: []string{"UP"},
		RankBy:  "fanciness",
	})
	assert.Error(t, err)
}

func TestFilterNaNNeverMatches(t *testing.T) {
	f := Filter{Metric: MetricReturn3M}
	assert.False(t, f.match(math.NaN()))
}
