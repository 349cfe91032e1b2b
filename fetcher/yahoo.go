package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"investormate/model"
)

// Compile-time interface check.
var _ Source = (*YahooSource)(nil)

// YahooSource fetches daily bars from the Yahoo Finance chart API. It needs
// no credentials and is the default data source.
type YahooSource struct {
	baseURL string
	client  *http.Client
}

// NewYahooSource creates a Yahoo-backed data source.
func NewYahooSource() *YahooSource {
	return &YahooSource{
		baseURL: "https://query1.finance.yahoo.com",
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// chartResponse mirrors the subset of the v8 chart payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches daily bars for symbol over [start, end]. Rows with missing
// prices (halts, partial sessions) are skipped.
func (s *YahooSource) History(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	sym, err := NormalizeTicker(symbol)
	if err != nil {
		return nil, err
	}

	// period2 is exclusive upstream; push it past end-of-day so the end
	// date's bar is included.
	url := fmt.Sprintf(
		"%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history",
		s.baseURL, sym, start.Unix(), end.Add(24*time.Hour).Unix(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("yahoo http %d: %s", resp.StatusCode, sym)
	}

	return parseChart(body, end)
}

// parseChart converts a chart payload into a sorted bar series, dropping
// rows with null prices and rows past end.
func parseChart(data []byte, end time.Time) ([]model.Bar, error) {
	var cr chartResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, fmt.Errorf("parse chart: %w", err)
	}
	if cr.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s: %s", cr.Chart.Error.Code, cr.Chart.Error.Description)
	}
	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	res := cr.Chart.Result[0]
	q := res.Indicators.Quote[0]

	var bars []model.Bar
	for i, ts := range res.Timestamp {
		if i >= len(q.Open) || i >= len(q.High) || i >= len(q.Low) || i >= len(q.Close) {
			break
		}
		if q.Open[i] == nil || q.High[i] == nil || q.Low[i] == nil || q.Close[i] == nil {
			continue
		}
		day := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		if day.After(end) {
			continue
		}
		var vol int64
		if i < len(q.Volume) && q.Volume[i] != nil {
			vol = *q.Volume[i]
		}
		bars = append(bars, model.Bar{
			Date:   day,
			Open:   *q.Open[i],
			High:   *q.High[i],
			Low:    *q.Low[i],
			Close:  *q.Close[i],
			Volume: vol,
		})
	}

	return sortBars(bars), nil
}
