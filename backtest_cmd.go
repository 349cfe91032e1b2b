package main

import (
	"context"
	"fmt"
	"os"

	"investormate/backtest"
	"investormate/fetcher"
)

func runBacktest(source fetcher.Source, configPath, outPath, chartPath string) error {
	cfg, err := backtest.LoadRunConfig(configPath)
	if err != nil {
		return err
	}

	bt, err := backtest.New(cfg.NewStrategy, cfg.Symbol, cfg.Start, cfg.End, backtest.Options{
		InitialCapital: cfg.InitialCapital,
		Commission:     cfg.Commission,
		Source:         source,
	})
	if err != nil {
		return err
	}

	results, err := bt.Run(context.Background())
	if err != nil {
		return err
	}

	if chartPath != "" {
		svg, err := backtest.RenderEquitySVG(results.Run(), backtest.SVGChartOptions{})
		if err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
		if err := os.WriteFile(chartPath, svg, 0o644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
	}

	if outPath == "" {
		fmt.Println(results.Summary())
		return nil
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	return backtest.WriteRunJSON(f, results.Run())
}
