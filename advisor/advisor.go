// Package advisor produces AI-written market commentary from fetched
// history and computed indicators.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"investormate/analysis"
	"investormate/fetcher"
	"investormate/llm"
	"investormate/model"
)

// Analysis is one cached provider answer for a symbol.
type Analysis struct {
	Symbol    string    `json:"symbol"`
	Question  string    `json:"question,omitempty"`
	Text      string    `json:"text"`
	LastDate  string    `json:"last_date"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Advisor fetches recent history, renders it into a prompt and asks the
// configured provider. Results of Analyze are cached per symbol.
type Advisor struct {
	provider llm.Provider
	source   fetcher.Source

	// History window in calendar days, about three months of bars.
	lookbackDays int

	results sync.Map // symbol -> *Analysis
}

func New(provider llm.Provider, source fetcher.Source) *Advisor {
	return &Advisor{
		provider:     provider,
		source:       source,
		lookbackDays: 120,
	}
}

// Analyze asks the provider for a technical read of one symbol.
func (a *Advisor) Analyze(ctx context.Context, symbol string) (*Analysis, error) {
	symbol, bars, inds, err := a.gather(ctx, symbol)
	if err != nil {
		return nil, err
	}

	text, err := a.provider.Complete(ctx, llm.SystemAnalyst(), llm.AnalysisPrompt(symbol, bars, inds))
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	result := &Analysis{
		Symbol:    symbol,
		Text:      text,
		LastDate:  bars[len(bars)-1].Date.Format("2006-01-02"),
		UpdatedAt: time.Now(),
	}
	a.results.Store(symbol, result)
	return result, nil
}

// Ask answers a free-form question about one symbol with the same data
// context as Analyze. Answers are not cached.
func (a *Advisor) Ask(ctx context.Context, symbol, question string) (*Analysis, error) {
	if question == "" {
		return nil, fmt.Errorf("empty question")
	}
	symbol, bars, inds, err := a.gather(ctx, symbol)
	if err != nil {
		return nil, err
	}

	text, err := a.provider.Complete(ctx, llm.SystemAdvisor(), llm.QuestionPrompt(symbol, question, bars, inds))
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	return &Analysis{
		Symbol:    symbol,
		Question:  question,
		Text:      text,
		LastDate:  bars[len(bars)-1].Date.Format("2006-01-02"),
		UpdatedAt: time.Now(),
	}, nil
}

// Cached returns the last Analyze result for a symbol, or nil.
func (a *Advisor) Cached(symbol string) *Analysis {
	if v, ok := a.results.Load(symbol); ok {
		return v.(*Analysis)
	}
	return nil
}

// CachedAll returns every cached Analyze result.
func (a *Advisor) CachedAll() []*Analysis {
	var out []*Analysis
	a.results.Range(func(_, v any) bool {
		out = append(out, v.(*Analysis))
		return true
	})
	return out
}

// SuggestRunConfig asks the provider to draft a backtest run config from a
// plain-language description and returns the extracted JSON object.
func (a *Advisor) SuggestRunConfig(ctx context.Context, description string, strategyTypes []string) (json.RawMessage, error) {
	if description == "" {
		return nil, fmt.Errorf("empty description")
	}
	text, err := a.provider.Complete(ctx, llm.SystemBacktestConfigJSON(), llm.ConfigPrompt(description, strategyTypes))
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}
	raw, err := llm.ExtractFirstJSONValue(text)
	if err != nil {
		return nil, fmt.Errorf("parse config response: %w", err)
	}
	return raw, nil
}

func (a *Advisor) gather(ctx context.Context, raw string) (string, []model.Bar, []llm.Indicator, error) {
	symbol, err := fetcher.NormalizeTicker(raw)
	if err != nil {
		return "", nil, nil, err
	}
	end := time.Now()
	start := end.AddDate(0, 0, -a.lookbackDays)
	bars, err := a.source.History(ctx, symbol, start, end)
	if err != nil {
		return "", nil, nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return "", nil, nil, fmt.Errorf("no history for %s", symbol)
	}
	return symbol, bars, snapshot(bars), nil
}

// snapshot computes the indicator values attached to every prompt.
func snapshot(bars []model.Bar) []llm.Indicator {
	closes := model.Closes(bars)
	candidates := []llm.Indicator{
		{Name: "SMA(20)", Value: analysis.Last(analysis.SMA(closes, 20))},
		{Name: "SMA(50)", Value: analysis.Last(analysis.SMA(closes, 50))},
		{Name: "EMA(12)", Value: analysis.Last(analysis.EMA(closes, 12))},
		{Name: "RSI(14)", Value: analysis.Last(analysis.RSI(closes, 14))},
		{Name: "ATR(14)", Value: analysis.Last(analysis.ATR(bars, 14))},
	}
	out := make([]llm.Indicator, 0, len(candidates))
	for _, c := range candidates {
		if !math.IsNaN(c.Value) {
			out = append(out, c)
		}
	}
	return out
}
