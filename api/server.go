// Package api exposes the backtester, screener and advisor over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"investormate/advisor"
	"investormate/fetcher"
	"investormate/screener"
)

// Server is the HTTP front end.
type Server struct {
	engine *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// NewServer wires the routes. adv may be nil, in which case the analysis
// endpoints answer 503.
func NewServer(port int, source fetcher.Source, scr *screener.Screener, adv *advisor.Advisor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(loggerMiddleware(logger))

	s := &Server{
		engine: engine,
		logger: logger,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: engine,
		},
	}

	s.setupRoutes(source, scr, adv)
	return s
}

func (s *Server) setupRoutes(source fetcher.Source, scr *screener.Screener, adv *advisor.Advisor) {
	handler := NewHandler(source, scr, adv)

	api := s.engine.Group("/api")
	{
		api.GET("/history/:symbol", handler.GetHistory)

		api.POST("/backtest", handler.RunBacktest)
		api.POST("/screen", handler.RunScreen)

		api.GET("/analysis", handler.GetAllAnalysis)
		api.GET("/analysis/:symbol", handler.GetAnalysis)

		api.GET("/status", handler.GetStatus)
	}

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Start blocks serving requests until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("api: listening", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests with a short deadline.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func loggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("api: request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
