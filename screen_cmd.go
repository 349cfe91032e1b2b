package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"investormate/fetcher"
	"investormate/screener"
)

func runScreen(source fetcher.Source, logger *slog.Logger, configPath, outPath string) error {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read screen config: %w", err)
	}

	var req screener.Request
	if err := yaml.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("parse screen config: %w", err)
	}

	scr := screener.New(source, logger)
	results, err := scr.Screen(context.Background(), req)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
