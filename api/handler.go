package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"investormate/advisor"
	"investormate/backtest"
	"investormate/fetcher"
	"investormate/screener"
	"investormate/trading"
)

// Handler holds the request handlers' shared dependencies.
type Handler struct {
	source  fetcher.Source
	scr     *screener.Screener
	adv     *advisor.Advisor
	started time.Time
}

func NewHandler(source fetcher.Source, scr *screener.Screener, adv *advisor.Advisor) *Handler {
	return &Handler{
		source:  source,
		scr:     scr,
		adv:     adv,
		started: time.Now(),
	}
}

// GetHistory returns daily bars for one symbol. Query params: start, end
// (ISO dates); defaults to the last year.
func (h *Handler) GetHistory(c *gin.Context) {
	symbol, err := fetcher.NormalizeTicker(c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	end := time.Now()
	start := end.AddDate(-1, 0, 0)
	if v := c.Query("start"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date"})
			return
		}
		start = t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date"})
			return
		}
		end = t
	}

	bars, err := h.source.History(c.Request.Context(), symbol, start, end)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if len(bars) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data", "symbol": symbol})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":   0,
		"symbol": symbol,
		"count":  len(bars),
		"data":   bars,
	})
}

// RunBacktest executes a declarative backtest config posted as JSON and
// returns the metrics and trade log.
func (h *Handler) RunBacktest(c *gin.Context) {
	var yc backtest.YAMLConfig
	if err := c.ShouldBindJSON(&yc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := backtest.ParseRunConfig(yc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bt, err := backtest.New(cfg.NewStrategy, cfg.Symbol, cfg.Start, cfg.End, backtest.Options{
		InitialCapital: cfg.InitialCapital,
		Commission:     cfg.Commission,
		Source:         h.source,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := bt.Run(c.Request.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, backtest.ErrNoData) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":     0,
		"strategy": cfg.StrategyType,
		"metrics":  results.Metrics(),
		"trades":   results.Trades(),
	})
}

// RunScreen evaluates a screening request posted as JSON.
func (h *Handler) RunScreen(c *gin.Context) {
	var req screener.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.scr.Screen(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":  0,
		"count": len(results),
		"data":  results,
	})
}

// GetAnalysis returns AI commentary for one symbol, serving the cached
// answer unless refresh=1.
func (h *Handler) GetAnalysis(c *gin.Context) {
	if h.adv == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI analysis is not configured"})
		return
	}

	symbol, err := fetcher.NormalizeTicker(c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if c.Query("refresh") != "1" {
		if cached := h.adv.Cached(symbol); cached != nil {
			c.JSON(http.StatusOK, gin.H{"code": 0, "cached": true, "data": cached})
			return
		}
	}

	result, err := h.adv.Analyze(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 0, "cached": false, "data": result})
}

// GetAllAnalysis returns every cached AI commentary.
func (h *Handler) GetAllAnalysis(c *gin.Context) {
	if h.adv == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI analysis is not configured"})
		return
	}

	results := h.adv.CachedAll()
	c.JSON(http.StatusOK, gin.H{
		"code":  0,
		"count": len(results),
		"data":  results,
	})
}

// GetStatus reports service health and the US market session state.
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": gin.H{
			"market_open": trading.IsMarketOpen(),
			"ai_enabled":  h.adv != nil,
			"strategies":  backtest.StrategyTypes(),
			"uptime":      time.Since(h.started).Round(time.Second).String(),
		},
	})
}
