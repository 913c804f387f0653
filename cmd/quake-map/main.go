package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mr1hm/go-quake-map/internal/api"
	"github.com/mr1hm/go-quake-map/internal/config"
	"github.com/mr1hm/go-quake-map/internal/ingestion"
	"github.com/mr1hm/go-quake-map/internal/logging"
	"github.com/mr1hm/go-quake-map/internal/mapview"
	"github.com/mr1hm/go-quake-map/internal/observability"
	"github.com/mr1hm/go-quake-map/internal/pipeline"
	"github.com/mr1hm/go-quake-map/internal/render"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "feed", cfg.Feed.URL)

	metrics := observability.NewMetrics()

	pages, err := mapview.NewRenderer()
	if err != nil {
		logging.Fatalf("Failed to initialize page renderer: %v", err)
	}

	client := ingestion.NewClient(ingestion.QueryFromConfig(cfg.Feed), cfg.Feed.Timeout)
	p := pipeline.New(
		client,
		render.New(cfg.Worker.Count, cfg.Popup.Location),
		cfg.Map,
		cfg.Feed.Strict,
		slog.Default(),
		metrics,
	)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Skipped-Features"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimit, cfg.Server.Burst))

	handler := api.NewHandler(p, pages, cfg.Map.LegendPosition, metrics)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		// A page request waits on the upstream feed.
		WriteTimeout: cfg.Feed.Timeout + 10*time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
