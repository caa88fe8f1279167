// Package main implements the cleansweep command line interface. It loads a
// run configuration, assembles the stage chain, and processes the configured
// documents through the transformation pipeline.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/c360/cleansweep/component"
	"github.com/c360/cleansweep/componentregistry"
	"github.com/c360/cleansweep/config"
	"github.com/c360/cleansweep/mapping"
	"github.com/c360/cleansweep/metric"
	"github.com/c360/cleansweep/pipeline"
	"github.com/c360/cleansweep/pkg/cache"
	"github.com/c360/cleansweep/storage"
	"github.com/c360/cleansweep/storage/fsstore"
	"github.com/c360/cleansweep/storage/objectstore"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "cleansweep"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Run failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()

	if cliCfg.ShowVersion {
		fmt.Printf("%s %s (build %s)\n", appName, Version, BuildTime)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cliCfg.Validate {
		logger.Info("Configuration is valid", "path", cliCfg.ConfigPath)
		return nil
	}

	spec, err := mapping.Load(cfg.Mapping)
	if err != nil {
		return fmt.Errorf("load mapping: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer cleanup()

	metricsRegistry := metric.NewMetricsRegistry()
	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			if err := metricsServer.Stop(); err != nil {
				logger.Warn("Metrics server stop failed", "error", err)
			}
		}()
		logger.Info("Metrics server started", "address", metricsServer.Address())
	}

	deps := component.Dependencies{
		Logger:  logger,
		Metrics: metricsRegistry,
		Store:   store,
	}

	stages, err := buildStages(cfg, deps)
	if err != nil {
		return fmt.Errorf("build stages: %w", err)
	}

	cfg.Pipeline.StopTimeout = cliCfg.ShutdownTimeout
	p, err := pipeline.New(spec, stages, cfg.Pipeline, deps)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	keys, err := resolveKeys(ctx, cfg, store)
	if err != nil {
		return fmt.Errorf("resolve input documents: %w", err)
	}
	if len(keys) == 0 {
		logger.Warn("No documents matched the input configuration")
		return nil
	}

	summary, err := p.Run(ctx, keys)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	logger.Info("Run complete",
		"run_id", summary.RunID,
		"documents", summary.Documents,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"records", summary.Records,
		"duration", summary.Duration)

	if summary.Failed > 0 {
		for _, failure := range summary.Failures {
			logger.Error("Document failed", "document", failure.Document, "error", failure.Err)
		}
		return fmt.Errorf("%d of %d documents failed", summary.Failed, summary.Documents)
	}
	return nil
}

// openStore creates the configured storage backend. The returned cleanup
// closes backend connections.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	store, cleanup, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Storage.Cache.Enabled {
		store, err = storage.WithCache(store, cache.Config{
			MaxSize: cfg.Storage.Cache.MaxSize,
			TTL:     cfg.Storage.Cache.TTL,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		logger.Info("Store cache enabled",
			"max_size", cfg.Storage.Cache.MaxSize, "ttl", cfg.Storage.Cache.TTL)
	}

	return store, cleanup, nil
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "fs":
		store, err := fsstore.New(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	case "nats":
		opts := []nats.Option{nats.Name(appName)}
		if cfg.NATS.Token != "" {
			opts = append(opts, nats.Token(cfg.NATS.Token))
		} else if cfg.NATS.Username != "" {
			opts = append(opts, nats.UserInfo(cfg.NATS.Username, cfg.NATS.Password))
		}
		nc, err := nats.Connect(cfg.NATS.URL, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to NATS at %s: %w", cfg.NATS.URL, err)
		}
		store, err := objectstore.New(ctx, nc, objectstore.Config{Bucket: cfg.Storage.Bucket})
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		logger.Info("Connected to NATS object store",
			"url", cfg.NATS.URL, "bucket", cfg.Storage.Bucket)
		return store, nc.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// buildStages creates the configured stage chain from the built-in registry.
func buildStages(cfg *config.Config, deps component.Dependencies) ([]component.Stage, error) {
	registry := component.NewRegistry()
	if err := componentregistry.Register(registry); err != nil {
		return nil, err
	}

	stages := make([]component.Stage, 0, len(cfg.Stages))
	for _, stageCfg := range cfg.Stages {
		raw, err := stageCfg.Raw()
		if err != nil {
			return nil, err
		}
		stage, err := registry.Create(stageCfg.Name, raw, deps)
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", stageCfg.Name, err)
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// resolveKeys returns the document keys to process, either as configured or
// by listing the input prefix.
func resolveKeys(ctx context.Context, cfg *config.Config, store storage.Store) ([]string, error) {
	if len(cfg.Input.Keys) > 0 {
		return cfg.Input.Keys, nil
	}
	return store.List(ctx, cfg.Input.Prefix)
}
