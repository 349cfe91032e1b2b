// Package fetcher retrieves historical market data from external providers.
package fetcher

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"investormate/model"
)

// Source supplies daily OHLCV bars for a symbol over [start, end].
// Implementations must return bars in chronological order, unique by date.
// An empty result is a valid response meaning "no data for this range".
type Source interface {
	History(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
}

var tickerRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.&_-]{0,9}$`)

// NormalizeTicker uppercases and trims a ticker symbol and validates its
// shape: 1-10 characters, alphanumeric plus dash, dot, underscore and
// ampersand. Exchange suffixes (e.g. "RELIANCE.NS") pass through unchanged.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return "", fmt.Errorf("ticker must be a non-empty string")
	}
	if !tickerRe.MatchString(t) {
		return "", fmt.Errorf("invalid ticker: %q", ticker)
	}
	return t, nil
}

// sortBars orders bars chronologically and drops duplicate dates, keeping
// the first occurrence.
func sortBars(bars []model.Bar) []model.Bar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	out := bars[:0]
	var last time.Time
	for _, b := range bars {
		if !last.IsZero() && b.Date.Equal(last) {
			continue
		}
		out = append(out, b)
		last = b.Date
	}
	return out
}
