package backtest

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
)

// SVGChartOptions tunes the equity chart dimensions.
type SVGChartOptions struct {
	Width  int
	Height int
}

func (o SVGChartOptions) withDefaults() SVGChartOptions {
	if o.Width <= 0 {
		o.Width = 980
	}
	if o.Height <= 0 {
		o.Height = 520
	}
	return o
}

// RenderEquitySVG renders a run's equity curve as an SVG chart with the
// initial capital as a dashed baseline and the executed trades marked.
func RenderEquitySVG(run *Run, opt SVGChartOptions) ([]byte, error) {
	opt = opt.withDefaults()
	curve := run.EquityHistory
	if len(curve) < 2 {
		return nil, fmt.Errorf("not enough equity points: %d", len(curve))
	}

	minE := math.Inf(1)
	maxE := math.Inf(-1)
	for _, pt := range curve {
		if pt.Equity < minE {
			minE = pt.Equity
		}
		if pt.Equity > maxE {
			maxE = pt.Equity
		}
	}
	if run.InitialCapital < minE {
		minE = run.InitialCapital
	}
	if run.InitialCapital > maxE {
		maxE = run.InitialCapital
	}
	pad := (maxE - minE) * 0.05
	if pad <= 0 {
		pad = math.Max(minE*0.02, 1)
	}
	minE -= pad
	maxE += pad

	// Layout
	w := float64(opt.Width)
	h := float64(opt.Height)
	mLeft := 80.0
	mRight := 20.0
	mTop := 24.0
	mBottom := 40.0
	plotW := w - mLeft - mRight
	plotH := h - mTop - mBottom
	if plotW <= 10 || plotH <= 10 {
		return nil, fmt.Errorf("invalid chart size")
	}

	equityToY := func(v float64) float64 {
		r := (v - minE) / (maxE - minE)
		r = math.Max(0, math.Min(1, r))
		return mTop + (1.0-r)*plotH
	}
	xAt := func(i int) float64 {
		return mLeft + float64(i)/float64(len(curve)-1)*plotW
	}

	bg := "#0b1220"
	grid := "rgba(255,255,255,0.08)"
	line := "#38bdf8"
	baseline := "rgba(255,255,255,0.65)"
	buyCol := "#22c55e"
	sellCol := "#ef4444"
	txt := "rgba(255,255,255,0.85)"
	font := "ui-monospace, Menlo, Monaco, Consolas, monospace"

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + strconv.Itoa(opt.Width) + `" height="` + strconv.Itoa(opt.Height) + `" viewBox="0 0 ` + strconv.Itoa(opt.Width) + ` ` + strconv.Itoa(opt.Height) + `">` + "\n")
	buf.WriteString(`<rect x="0" y="0" width="100%" height="100%" fill="` + bg + `"/>` + "\n")

	// Header
	title := strings.TrimSpace(run.Ticker)
	if title == "" {
		title = "UNKNOWN"
	}
	buf.WriteString(`<text x="` + fmtFloat(mLeft) + `" y="16" fill="` + txt + `" font-size="14" font-family="` + font + `">` +
		html.EscapeString(title) + ` equity  ` + html.EscapeString(run.StartDate) + ` ~ ` + html.EscapeString(run.EndDate) + `</text>` + "\n")

	// Grid: equity lines (5)
	for k := 0; k <= 5; k++ {
		y := mTop + (float64(k)/5.0)*plotH
		buf.WriteString(`<line x1="` + fmtFloat(mLeft) + `" y1="` + fmtFloat(y) + `" x2="` + fmtFloat(mLeft+plotW) + `" y2="` + fmtFloat(y) + `" stroke="` + grid + `" stroke-width="1"/>` + "\n")
		v := maxE - (float64(k)/5.0)*(maxE-minE)
		buf.WriteString(`<text x="6" y="` + fmtFloat(y+4) + `" fill="` + txt + `" font-size="12" font-family="` + font + `">` +
			html.EscapeString(fmtEquity(v)) + `</text>` + "\n")
	}

	// Initial-capital baseline
	yBase := equityToY(run.InitialCapital)
	buf.WriteString(`<line x1="` + fmtFloat(mLeft) + `" y1="` + fmtFloat(yBase) + `" x2="` + fmtFloat(mLeft+plotW) + `" y2="` + fmtFloat(yBase) + `" stroke="` + baseline + `" stroke-width="1.2" stroke-dasharray="6 6"/>` + "\n")

	// Equity polyline
	var path strings.Builder
	for i, pt := range curve {
		path.WriteString(fmtFloat(xAt(i)))
		path.WriteString(",")
		path.WriteString(fmtFloat(equityToY(pt.Equity)))
		if i < len(curve)-1 {
			path.WriteString(" ")
		}
	}
	buf.WriteString(`<polyline points="` + path.String() + `" fill="none" stroke="` + line + `" stroke-width="1.6"/>` + "\n")

	// Trade markers, located by date on the equity curve.
	dateIndex := make(map[string]int, len(curve))
	for i, pt := range curve {
		dateIndex[pt.Date.Format("2006-01-02")] = i
	}
	for _, t := range run.Trades {
		i, ok := dateIndex[t.Date.Format("2006-01-02")]
		if !ok {
			continue
		}
		col := buyCol
		if t.Type == TradeSell {
			col = sellCol
		}
		buf.WriteString(`<circle cx="` + fmtFloat(xAt(i)) + `" cy="` + fmtFloat(equityToY(curve[i].Equity)) + `" r="3.5" fill="` + col + `"/>` + "\n")
	}

	// Footer dates
	buf.WriteString(`<text x="` + fmtFloat(mLeft) + `" y="` + fmtFloat(mTop+plotH+mBottom-12) + `" fill="` + txt + `" font-size="12" font-family="` + font + `">` +
		html.EscapeString(run.StartDate) + `</text>` + "\n")
	buf.WriteString(`<text x="` + fmtFloat(mLeft+plotW-70) + `" y="` + fmtFloat(mTop+plotH+mBottom-12) + `" fill="` + txt + `" font-size="12" font-family="` + font + `">` +
		html.EscapeString(run.EndDate) + `</text>` + "\n")

	buf.WriteString(`</svg>` + "\n")
	return buf.Bytes(), nil
}

func fmtFloat(x float64) string {
	// stable compact formatting for SVG attributes
	return strconv.FormatFloat(x, 'f', 2, 64)
}

func fmtEquity(v float64) string {
	if v >= 100000 {
		return strconv.FormatFloat(v/1000, 'f', 0, 64) + "k"
	}
	if v >= 1000 {
		return strconv.FormatFloat(v/1000, 'f', 1, 64) + "k"
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}
