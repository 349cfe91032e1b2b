package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"investormate/advisor"
	"investormate/api"
	"investormate/config"
	"investormate/fetcher"
	"investormate/llm"
	"investormate/screener"
	"investormate/store"
)

var (
	configPath string

	backtestMode   bool
	backtestConfig string
	backtestOut    string
	backtestChart  string

	screenMode   bool
	screenConfig string
	screenOut    string

	analyzeMode bool
	askMode     bool
	symbolFlag  string
	questionStr string

	suggestMode   bool
	suggestPrompt string
	suggestOut    string

	serveMode bool
)

func main() {
	flag.StringVar(&configPath, "config", "", "config file path (YAML)")

	flag.BoolVar(&backtestMode, "backtest", false, "run a daily-bar backtest and exit")
	flag.StringVar(&backtestConfig, "bt-config", "backtest.yaml", "backtest config file path (YAML)")
	flag.StringVar(&backtestOut, "bt-out", "", "backtest JSON output path (default stdout summary)")
	flag.StringVar(&backtestChart, "bt-chart", "", "equity curve SVG output path")

	flag.BoolVar(&screenMode, "screen", false, "run a symbol screen and exit")
	flag.StringVar(&screenConfig, "screen-config", "screen.yaml", "screen config file path (YAML)")
	flag.StringVar(&screenOut, "screen-out", "", "screen JSON output path (default stdout)")

	flag.BoolVar(&analyzeMode, "analyze", false, "AI analysis of one symbol and exit (requires -symbol)")
	flag.BoolVar(&askMode, "ask", false, "AI answer to a question about one symbol and exit (requires -symbol and -question)")
	flag.StringVar(&symbolFlag, "symbol", "", "ticker symbol for -analyze/-ask")
	flag.StringVar(&questionStr, "question", "", "question text for -ask")

	flag.BoolVar(&suggestMode, "suggest", false, "AI-draft a backtest config from a description and exit")
	flag.StringVar(&suggestPrompt, "prompt", "", "description text for -suggest (stdin when empty)")
	flag.StringVar(&suggestOut, "out", "", "output path for -suggest (default stdout)")

	flag.BoolVar(&serveMode, "serve", false, "start the HTTP service")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := config.GetConfig(configPath)

	source, closeSource, err := buildSource(cfg)
	if err != nil {
		logger.Error("data source setup failed", "error", err)
		os.Exit(1)
	}
	defer closeSource()

	switch {
	case backtestMode:
		if err := runBacktest(source, backtestConfig, backtestOut, backtestChart); err != nil {
			logger.Error("backtest failed", "error", err)
			os.Exit(1)
		}
	case screenMode:
		if err := runScreen(source, logger, screenConfig, screenOut); err != nil {
			logger.Error("screen failed", "error", err)
			os.Exit(1)
		}
	case analyzeMode:
		if err := runAnalyze(cfg, source, symbolFlag); err != nil {
			logger.Error("analysis failed", "error", err)
			os.Exit(1)
		}
	case askMode:
		if err := runAsk(cfg, source, symbolFlag, questionStr); err != nil {
			logger.Error("ask failed", "error", err)
			os.Exit(1)
		}
	case suggestMode:
		if err := runSuggest(cfg, source, suggestPrompt, suggestOut); err != nil {
			logger.Error("config suggestion failed", "error", err)
			os.Exit(1)
		}
	case serveMode:
		if err := runServe(cfg, source, logger); err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// buildSource assembles the configured market data source, wrapped in the
// SQLite cache when a cache path is set.
func buildSource(cfg *config.Config) (fetcher.Source, func(), error) {
	var upstream fetcher.Source
	switch cfg.DataSource {
	case "", "yahoo":
		upstream = fetcher.NewYahooSource()
	case "alpaca":
		upstream = fetcher.NewAlpacaSource(cfg.AlpacaKeyID, cfg.AlpacaSecretKey, "")
	default:
		return nil, nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}

	if cfg.CachePath == "" {
		return upstream, func() {}, nil
	}
	cache, err := store.Open(cfg.CachePath, upstream)
	if err != nil {
		return nil, nil, fmt.Errorf("open bar cache: %w", err)
	}
	return cache, func() { _ = cache.Close() }, nil
}

// buildAdvisor returns nil when no AI provider is configured.
func buildAdvisor(cfg *config.Config, source fetcher.Source) (*advisor.Advisor, error) {
	if cfg.AIProvider == "" {
		return nil, nil
	}
	provider, err := llm.NewProvider(cfg.AIProvider, cfg.AIKey, cfg.AIBase, cfg.AIModel)
	if err != nil {
		return nil, err
	}
	return advisor.New(provider, source), nil
}

func runServe(cfg *config.Config, source fetcher.Source, logger *slog.Logger) error {
	adv, err := buildAdvisor(cfg, source)
	if err != nil {
		return err
	}
	if adv == nil {
		logger.Info("AI analysis disabled (no provider configured)")
	}

	scr := screener.New(source, logger)
	server := api.NewServer(cfg.Port, source, scr, adv, logger)

	errChan := make(chan error, 1)
	go func() { errChan <- server.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		logger.Info("shutting down")
		return server.Shutdown()
	}
}
