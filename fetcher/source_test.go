package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investormate/model"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"aapl", "AAPL"},
		{"  msft  ", "MSFT"},
		{"BRK-B", "BRK-B"},
		{"RELIANCE.NS", "RELIANCE.NS"},
		{"AT&T", "AT&T"},
		{"BF_B", "BF_B"},
	}
	for _, tt := range tests {
		got, err := NormalizeTicker(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestNormalizeTickerRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "not a ticker", "WAYTOOLONGSYM", "-AAPL", "AA PL"} {
		_, err := NormalizeTicker(in)
		assert.Error(t, err, "%q should be rejected", in)
	}
}

func TestSortBarsOrdersAndDedupes(t *testing.T) {
	d := func(day int) time.Time {
		return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)
	}
	bars := []model.Bar{
		{Date: d(3), Close: 103},
		{Date: d(1), Close: 101},
		{Date: d(2), Close: 102},
		{Date: d(1), Close: 999}, // duplicate, dropped
	}

	got := sortBars(bars)
	require.Len(t, got, 3)
	assert.Equal(t, d(1), got[0].Date)
	assert.InDelta(t, 101, got[0].Close, 1e-9)
	assert.Equal(t, d(2), got[1].Date)
	assert.Equal(t, d(3), got[2].Date)
}
