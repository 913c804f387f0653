package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/mr1hm/go-quake-map/internal/config"
	"github.com/mr1hm/go-quake-map/internal/ingestion"
	"github.com/mr1hm/go-quake-map/internal/logging"
	"github.com/mr1hm/go-quake-map/internal/mapview"
	"github.com/mr1hm/go-quake-map/internal/observability"
	"github.com/mr1hm/go-quake-map/internal/pipeline"
	"github.com/mr1hm/go-quake-map/internal/render"
)

type Options struct {
	Output  string `short:"o" long:"out" description:"HTML output file" default:"index.html"`
	GeoJSON string `short:"g" long:"geojson" description:"Also write the styled overlay as GeoJSON to this file"`
	EnvFile string `short:"e" long:"env-file" description:"Environment file to load before reading config" default:".env"`
	Strict  bool   `long:"strict" description:"Fail when the feed contains a malformed feature (overrides FEED_STRICT)"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	_ = godotenv.Load(opts.EnvFile)

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, observability.NewUnregisteredMetrics()); err != nil {
		logging.Fatalf("render failed: %v", err)
	}
}

// run composes one map and writes it out. Nothing is written unless the whole
// composition succeeds.
func run(ctx context.Context, cfg *config.Config, opts Options, metrics *observability.Metrics) error {
	pages, err := mapview.NewRenderer()
	if err != nil {
		return err
	}

	client := ingestion.NewClient(ingestion.QueryFromConfig(cfg.Feed), cfg.Feed.Timeout)
	p := pipeline.New(
		client,
		render.New(cfg.Worker.Count, cfg.Popup.Location),
		cfg.Map,
		cfg.Feed.Strict || opts.Strict,
		slog.Default(),
		metrics,
	)

	overlay, err := p.Overlay(ctx)
	if err != nil {
		return err
	}
	m := mapview.Compose(cfg.Map, overlay)

	var page bytes.Buffer
	if err := pages.Render(&page, m); err != nil {
		return err
	}

	var geo []byte
	if opts.GeoJSON != "" {
		geo, err = overlay.FeatureCollection().MarshalJSON()
		if err != nil {
			return fmt.Errorf("error encoding overlay: %w", err)
		}
	}

	if err := writeFile(opts.Output, page.Bytes()); err != nil {
		return err
	}
	metrics.PagesRendered.WithLabelValues("file").Inc()

	if geo != nil {
		if err := writeFile(opts.GeoJSON, geo); err != nil {
			return err
		}
	}

	slog.Info("map written",
		"out", opts.Output,
		"geojson", opts.GeoJSON,
		"markers", m.MarkerCount(),
		"skipped", overlay.Skipped,
	)
	return nil
}

// writeFile replaces path atomically so a failed run never leaves a
// truncated page behind.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("error setting mode on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing %s: %w", path, err)
	}
	return nil
}
