package llm

import (
	"fmt"
	"strings"

	"investormate/model"
)

// Indicator is one named value rendered into a prompt.
type Indicator struct {
	Name  string
	Value float64
}

func SystemAnalyst() string {
	return strings.TrimSpace(`
You are a market analysis assistant. You are given daily OHLCV bars and a
set of computed technical indicators. Base every statement on the provided
data only; never invent prices, dates or signals. Keep the analysis under
300 words, structured as: overall trend, key support/resistance levels,
volume behavior, and short-term outlook. End with a one-line reminder that
this is research, not investment advice.
`)
}

func SystemAdvisor() string {
	return strings.TrimSpace(`
You are a market research assistant answering a question about one symbol.
Use only the bars and indicators provided. If the data cannot answer the
question, say so plainly. Be concise and practical. End with a one-line
reminder that this is research, not investment advice.
`)
}

func SystemBacktestConfigJSON() string {
	return strings.TrimSpace(`
You are a strict config generator. Output MUST be a single JSON object and nothing else.
Do not wrap in Markdown. Do not include explanations.
All keys must match the provided schema exactly. No extra keys.
Use "YYYY-MM-DD" date strings for start/end. Use numbers for numeric fields.
`)
}

// BarTable renders bars as a Markdown table for prompt context.
func BarTable(bars []model.Bar) string {
	var sb strings.Builder
	sb.WriteString("Date | Open | High | Low | Close | Volume\n")
	sb.WriteString("---|---|---|---|---|---\n")
	for _, b := range bars {
		sb.WriteString(fmt.Sprintf("%s | %.2f | %.2f | %.2f | %.2f | %d\n",
			b.Date.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close, b.Volume))
	}
	return sb.String()
}

// AnalysisPrompt builds the full analysis request for one symbol.
func AnalysisPrompt(symbol string, bars []model.Bar, indicators []Indicator) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analyze the last %d daily bars of %s:\n\n", len(bars), symbol))
	sb.WriteString(BarTable(bars))
	if len(indicators) > 0 {
		sb.WriteString("\nCurrent indicators:\n")
		for _, ind := range indicators {
			sb.WriteString(fmt.Sprintf("- %s: %.2f\n", ind.Name, ind.Value))
		}
	}
	return sb.String()
}

// QuestionPrompt builds a free-form question request with the same context.
func QuestionPrompt(symbol, question string, bars []model.Bar, indicators []Indicator) string {
	var sb strings.Builder
	sb.WriteString(AnalysisPrompt(symbol, bars, indicators))
	sb.WriteString("\nQuestion: ")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n")
	return sb.String()
}

// ConfigPrompt asks for a backtest run config matching the YAML schema,
// rendered as JSON, from a natural-language description.
func ConfigPrompt(description string, strategyTypes []string) string {
	var sb strings.Builder
	sb.WriteString("Schema:\n")
	sb.WriteString(`{"backtest":{"symbol":"","start":"","end":"","initial_capital":0,"commission":0},"strategy":{"type":"","params":{}}}` + "\n\n")
	sb.WriteString("Allowed strategy types: ")
	sb.WriteString(strings.Join(strategyTypes, ", "))
	sb.WriteString("\n\nDescription: ")
	sb.WriteString(strings.TrimSpace(description))
	sb.WriteString("\n")
	return sb.String()
}
