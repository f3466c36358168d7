// Package common provides shared utilities for command implementations.
package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/index-rotator/internal/config"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/database"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/elasticsearch"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/logger"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/manager"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/metrics"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/naming"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/rotation"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrLoggerRequired is returned when CommandDeps.Logger is nil
	ErrLoggerRequired = errors.New("logger is required")
	// ErrConfigRequired is returned when CommandDeps.Config is nil
	ErrConfigRequired = errors.New("config is required")
	// ErrRegistryRequired is returned when CommandDeps.Registry is nil
	ErrRegistryRequired = errors.New("manager registry is required")
)

// Options select the config file and log level for NewCommandDeps.
type Options struct {
	ConfigPath string
	Debug      bool
}

// CommandDeps holds the dependencies shared by all commands.
type CommandDeps struct {
	Config   *config.Config
	Logger   logger.Logger
	Engine   manager.Engine
	Registry *config.Registry
	// History is nil when history is disabled or unreachable.
	History *database.Connection
	// Metrics is nil when not configured.
	Metrics *metrics.Metrics
}

// Factory builds CommandDeps. Commands take one so tests can inject fakes.
type Factory func(ctx context.Context) (*CommandDeps, error)

// Validate ensures all required dependencies are present.
func (d *CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	if d.Registry == nil {
		return ErrRegistryRequired
	}
	return nil
}

// NewCommandDeps loads the config, creates the logger, connects to
// Elasticsearch and builds the manager registry. The history database is
// optional: a connection failure is logged and history is skipped.
func NewCommandDeps(ctx context.Context, opts Options) (*CommandDeps, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LoggerConfig(opts.Debug))
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	log = log.With(logger.String("service", cfg.Service.Name))

	client, err := elasticsearch.Connect(ctx, cfg.ElasticsearchClientConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}

	registry, err := config.BuildRegistry(cfg, client)
	if err != nil {
		return nil, fmt.Errorf("build manager registry: %w", err)
	}

	deps := &CommandDeps{
		Config:   cfg,
		Logger:   log,
		Engine:   client,
		Registry: registry,
		Metrics: metrics.New(prometheus.NewRegistry(),
			metrics.WithPushgateway(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job)),
	}

	if cfg.History.Enabled {
		deps.History = openHistory(ctx, cfg, log)
	}

	return deps, nil
}

func openHistory(ctx context.Context, cfg *config.Config, log logger.Logger) *database.Connection {
	conn, err := database.NewConnection(ctx, cfg.DatabaseConfig())
	if err != nil {
		log.Warn("Rotation history unavailable", logger.Error(err))
		return nil
	}
	if schemaErr := conn.EnsureSchema(ctx); schemaErr != nil {
		log.Warn("Rotation history unavailable", logger.Error(schemaErr))
		_ = conn.Close()
		return nil
	}
	return conn
}

// Orchestrator builds a rotation orchestrator wired to the history and
// metrics sinks that are available.
func (d *CommandDeps) Orchestrator() *rotation.Orchestrator {
	opts := make([]rotation.Option, 0, 2)
	if d.History != nil {
		opts = append(opts, rotation.WithHistory(d.History))
	}
	if d.Metrics != nil {
		opts = append(opts, rotation.WithMetrics(d.Metrics))
	}

	return rotation.New(
		d.Registry,
		naming.NewResolver(d.Config.ResolverOptions()...),
		d.Logger,
		opts...,
	)
}

// Close pushes metrics, closes the history database and flushes the logger.
// Failures are logged only.
func (d *CommandDeps) Close(ctx context.Context) {
	if d.Metrics != nil {
		if err := d.Metrics.Push(ctx); err != nil {
			d.Logger.Warn("Failed to push metrics", logger.Error(err))
		}
	}
	if d.History != nil {
		if err := d.History.Close(); err != nil {
			d.Logger.Warn("Failed to close history database", logger.Error(err))
		}
	}
	_ = d.Logger.Sync()
}
