package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"investormate/model"
)

// Compile-time interface check.
var _ Source = (*AlpacaSource)(nil)

// AlpacaSource fetches daily bars from the Alpaca market-data API. It
// requires API credentials and covers US equities only.
type AlpacaSource struct {
	client *marketdata.Client
}

// NewAlpacaSource creates an Alpaca-backed data source with the given
// credentials. baseURL overrides the default data endpoint when non-empty.
func NewAlpacaSource(apiKey, apiSecret, baseURL string) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if baseURL != "" {
		opts.BaseURL = baseURL
	}
	return &AlpacaSource{client: marketdata.NewClient(opts)}
}

// History fetches daily bars for symbol over [start, end].
func (s *AlpacaSource) History(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	sym, err := NormalizeTicker(symbol)
	if err != nil {
		return nil, err
	}

	alpacaBars, err := s.client.GetBars(sym, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      "iex",
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca GetBars %s: %w", sym, err)
	}

	bars := make([]model.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, model.Bar{
			Date:   ab.Timestamp.UTC().Truncate(24 * time.Hour),
			Open:   ab.Open,
			High:   ab.High,
			Low:    ab.Low,
			Close:  ab.Close,
			Volume: int64(ab.Volume),
		})
	}
	return sortBars(bars), nil
}
