// Tonegate is an OpenAI-compatible speech synthesis daemon. It fronts an
// on-device neural TTS engine with segment splitting, bounded-concurrency
// inference, audio assembly, format encoding, and response caching.
//
// Usage:
//
//	tonegate [flags]
//	tonegate --config /path/to/tonegate.yaml
//
// @title        Tonegate Speech API
// @version      1.0
// @description  OpenAI-compatible text-to-speech service backed by an on-device neural engine.
// @BasePath     /
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tonegate/tonegate/internal/cache"
	"github.com/tonegate/tonegate/internal/config"
	"github.com/tonegate/tonegate/internal/health"
	"github.com/tonegate/tonegate/internal/pipeline"
	"github.com/tonegate/tonegate/internal/server"
	"github.com/tonegate/tonegate/internal/synth"
	"github.com/tonegate/tonegate/internal/transcode"
	"github.com/tonegate/tonegate/internal/voice"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/tonegate.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tonegate %s\n", version)
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)
	slog.Info("tonegate starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize the engine backend.
	var engine synth.Engine
	switch cfg.Engine.Backend {
	case "exec":
		engine, err = synth.NewExecEngine(cfg.Engine.Exec.Command, cfg.Engine.SampleRate)
		if err != nil {
			slog.Error("failed to initialize exec engine", "error", err)
			os.Exit(1)
		}
		slog.Info("using exec engine", "command", cfg.Engine.Exec.Command)
	case "wyoming":
		engine = synth.NewWyomingEngine(cfg.Engine.Wyoming.Endpoint, cfg.Engine.Wyoming.Voices,
			cfg.Engine.SampleRate, slog.Default())
		slog.Info("using wyoming engine", "endpoint", cfg.Engine.Wyoming.Endpoint)
	case "mock":
		engine = synth.NewMockEngine(cfg.Engine.SampleRate)
		slog.Warn("using mock engine, output is synthetic test audio")
	default:
		slog.Error("unknown engine backend", "backend", cfg.Engine.Backend)
		os.Exit(1)
	}
	defer engine.Close()

	// Initialize the voice registry.
	registry, err := voice.NewRegistry(voice.Options{
		DefaultStyle: cfg.Voice.DefaultStyle,
		Aliases:      cfg.Voice.Aliases,
	})
	if err != nil {
		slog.Error("failed to build voice registry", "error", err)
		os.Exit(1)
	}

	// Initialize the response cache.
	var store cache.Store
	switch cfg.Cache.Backend {
	case "memory":
		store = cache.NewMemory(cfg.Cache.MaxEntries, cfg.Cache.TTL)
		slog.Info("using memory cache", "max_entries", cfg.Cache.MaxEntries, "ttl", cfg.Cache.TTL)
	case "disk":
		store, err = cache.OpenDisk(ctx, cache.DiskOptions{
			Dir:           cfg.Cache.Dir,
			MaxAge:        cfg.Cache.MaxAge,
			MaxBytes:      cfg.Cache.MaxBytes,
			PruneInterval: cfg.Cache.PruneInterval,
		}, slog.Default())
		if err != nil {
			slog.Error("failed to open disk cache", "error", err)
			os.Exit(1)
		}
		slog.Info("using disk cache", "dir", cfg.Cache.Dir,
			"max_age", cfg.Cache.MaxAge, "max_bytes", cfg.Cache.MaxBytes)
	case "off":
		slog.Info("response caching disabled")
	}
	if store != nil {
		defer store.Close()
	}

	coordinator := synth.NewCoordinator(engine, cfg.Engine.Slots, slog.Default())
	encoder := transcode.New(cfg.Transcode.FFmpegPath, slog.Default())
	pipe := pipeline.New(registry, coordinator, encoder, store, slog.Default())

	// Start the health server with the metrics endpoint mounted.
	healthServer := health.New(cfg.Server.HealthPort)
	healthServer.Handle("GET /metrics", promhttp.Handler())
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start the speech API.
	api := server.New(cfg.Server.Port, cfg.Server.RequestTimeout, pipe, registry)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := api.Listen(ctx); err != nil {
			slog.Error("speech api failed", "error", err)
			cancel()
		}
	}()

	healthServer.SetReady(true)
	slog.Info("tonegate ready",
		"port", cfg.Server.Port,
		"health_port", cfg.Server.HealthPort,
		"engine", cfg.Engine.Backend,
		"slots", cfg.Engine.Slots)

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")

	wg.Wait()
	slog.Info("tonegate stopped")
}
