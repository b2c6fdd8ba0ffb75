// Package pipelinefx provides an fx module for a fully wired analysis
// pipeline publishing to the local filesystem.
package pipelinefx

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/streaklab"
	"github.com/discochess/streaklab/internal/stats"
	"github.com/discochess/streaklab/internal/stats/logger"
	"github.com/discochess/streaklab/internal/stats/prometheus"
	"github.com/discochess/streaklab/internal/upload/fileupload"
)

// Config holds configuration for the pipeline.
type Config struct {
	// DataDir is the root directory for all pipeline files.
	DataDir string

	// Players are the player handles to process, in order.
	Players []string

	// TimeClass restricts the streak analysis to one time control
	// class. Default is blitz.
	TimeClass string

	// EnginePath is the UCI engine binary for accuracy scoring.
	// Empty skips the accuracy stage.
	EnginePath string

	// UploadDir receives the dashboard artifacts. Empty disables
	// publishing.
	UploadDir string

	// From and To bound the archive retrieval range. Zero values
	// leave the bound open.
	From time.Time
	To   time.Time

	// MetricsRegistry, when set, switches pipeline metrics from log
	// lines to Prometheus collectors registered there.
	MetricsRegistry promclient.Registerer
}

// Module provides a configured pipeline.
// Requires a *zap.Logger and a Config to be provided.
var Module = fx.Module("pipeline",
	fx.Provide(
		newStatsCollector,
		newPipeline,
	),
)

func newStatsCollector(cfg Config, log *zap.Logger) stats.Collector {
	if cfg.MetricsRegistry != nil {
		return prometheus.New(cfg.MetricsRegistry)
	}
	return logger.New(log.Named("pipeline.stats"))
}

// Params holds dependencies for creating the pipeline.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided pipeline.
type Result struct {
	fx.Out

	Pipeline *streaklab.Pipeline
}

func newPipeline(p Params) (Result, error) {
	opts := []streaklab.Option{
		streaklab.WithDataDir(p.Config.DataDir),
		streaklab.WithPlayers(p.Config.Players...),
		streaklab.WithStats(p.Collector),
		streaklab.WithLogger(p.Logger.Named("pipeline")),
	}
	if p.Config.TimeClass != "" {
		opts = append(opts, streaklab.WithTimeClass(p.Config.TimeClass))
	}
	if p.Config.EnginePath != "" {
		opts = append(opts, streaklab.WithEngine(p.Config.EnginePath))
	}
	if !p.Config.From.IsZero() || !p.Config.To.IsZero() {
		opts = append(opts, streaklab.WithDateRange(p.Config.From, p.Config.To))
	}
	if p.Config.UploadDir != "" {
		uploader, err := fileupload.New(p.Config.UploadDir)
		if err != nil {
			return Result{}, err
		}
		opts = append(opts, streaklab.WithUploader(uploader))
	}

	pipe, err := streaklab.New(opts...)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return pipe.Close()
		},
	})

	return Result{Pipeline: pipe}, nil
}
