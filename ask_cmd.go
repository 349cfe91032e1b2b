package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"investormate/backtest"
	"investormate/config"
	"investormate/fetcher"
)

func runAnalyze(cfg *config.Config, source fetcher.Source, symbol string) error {
	if symbol == "" {
		return fmt.Errorf("-symbol is required")
	}
	adv, err := buildAdvisor(cfg, source)
	if err != nil {
		return err
	}
	if adv == nil {
		return fmt.Errorf("no AI provider configured (set ai.provider or INVESTORMATE_AI_PROVIDER)")
	}

	result, err := adv.Analyze(context.Background(), symbol)
	if err != nil {
		return err
	}

	fmt.Printf("%s  (data through %s)\n\n%s\n", result.Symbol, result.LastDate, result.Text)
	return nil
}

func runAsk(cfg *config.Config, source fetcher.Source, symbol, question string) error {
	if symbol == "" {
		return fmt.Errorf("-symbol is required")
	}
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("-question is required")
	}
	adv, err := buildAdvisor(cfg, source)
	if err != nil {
		return err
	}
	if adv == nil {
		return fmt.Errorf("no AI provider configured (set ai.provider or INVESTORMATE_AI_PROVIDER)")
	}

	result, err := adv.Ask(context.Background(), symbol, question)
	if err != nil {
		return err
	}

	fmt.Printf("%s  (data through %s)\n\nQ: %s\n\n%s\n", result.Symbol, result.LastDate, result.Question, result.Text)
	return nil
}

func runSuggest(cfg *config.Config, source fetcher.Source, prompt, outPath string) error {
	description := strings.TrimSpace(prompt)
	if description == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		description = strings.TrimSpace(string(raw))
	}
	if description == "" {
		return fmt.Errorf("empty description (use -prompt or stdin)")
	}

	adv, err := buildAdvisor(cfg, source)
	if err != nil {
		return err
	}
	if adv == nil {
		return fmt.Errorf("no AI provider configured (set ai.provider or INVESTORMATE_AI_PROVIDER)")
	}

	raw, err := adv.SuggestRunConfig(context.Background(), description, backtest.StrategyTypes())
	if err != nil {
		return err
	}

	if outPath == "" {
		fmt.Println(string(raw))
		return nil
	}
	return os.WriteFile(outPath, append(raw, '\n'), 0o644)
}
