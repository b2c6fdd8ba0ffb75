package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/streaklab"
	"github.com/discochess/streaklab/internal/codec/gzipcodec"
	"github.com/discochess/streaklab/internal/codec/zstdcodec"
	"github.com/discochess/streaklab/internal/engine"
	"github.com/discochess/streaklab/internal/stats/logger"
	"github.com/discochess/streaklab/internal/upload"
	"github.com/discochess/streaklab/internal/upload/fileupload"
	"github.com/discochess/streaklab/internal/upload/gcsupload"
	"github.com/discochess/streaklab/internal/upload/s3upload"
)

var (
	// Global flags.
	dataDir string
	verbose bool

	// Pipeline flags.
	players        []string
	aliasFlags     []string
	timeClass      string
	fromMonth      string
	toMonth        string
	enginePath     string
	engineMoveTime time.Duration
	engineDepth    int
	engineThreads  int
	uploadDir      string
	gcsBucket      string
	s3Bucket       string
	uploadPrefix   string
	uploadCompress string
)

var rootCmd = &cobra.Command{
	Use:   "streaklab",
	Short: "Retrieve, analyze and visualize chess win streaks",
	Long: `Streaklab retrieves a player's full game history from Chess.com,
consolidates it into a clean dataset, derives win-streak tables,
scores move accuracy with a UCI engine, and publishes aggregate
streak frequencies for dashboard visualization.

Examples:
  # Run the full pipeline for two players
  streaklab run -p hikaru -p magnuscarlsen

  # Fetch only 2023 archives
  streaklab fetch -p hikaru --from 2023-01 --to 2023-12

  # Score accuracy with a local engine
  streaklab accuracy -p hikaru --engine /usr/bin/stockfish

  # Show progress
  streaklab status -p hikaru`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "./data", "root directory for pipeline files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringSliceVarP(&players, "player", "p", nil, "player handle (repeatable)")
	rootCmd.PersistentFlags().StringSliceVar(&aliasFlags, "alias", nil, `extra PGN name for a player, as "handle=Full Name" (repeatable)`)
	rootCmd.PersistentFlags().StringVar(&timeClass, "time-class", "blitz", "time control class for streak analysis")
	rootCmd.PersistentFlags().StringVar(&fromMonth, "from", "", `first archive month to fetch ("YYYY-MM")`)
	rootCmd.PersistentFlags().StringVar(&toMonth, "to", "", `last archive month to fetch ("YYYY-MM")`)
	rootCmd.PersistentFlags().StringVar(&enginePath, "engine", "", "path to a UCI engine binary")
	rootCmd.PersistentFlags().DurationVar(&engineMoveTime, "engine-movetime", 50*time.Millisecond, "engine thinking time per position")
	rootCmd.PersistentFlags().IntVar(&engineDepth, "engine-depth", 0, "fixed engine search depth (overrides movetime)")
	rootCmd.PersistentFlags().IntVar(&engineThreads, "engine-threads", 1, "engine thread count")
	rootCmd.PersistentFlags().StringVar(&uploadDir, "upload-dir", "", "publish artifacts to a local directory")
	rootCmd.PersistentFlags().StringVar(&gcsBucket, "upload-gcs", "", "publish artifacts to a GCS bucket")
	rootCmd.PersistentFlags().StringVar(&s3Bucket, "upload-s3", "", "publish artifacts to an S3 bucket")
	rootCmd.PersistentFlags().StringVar(&uploadPrefix, "upload-prefix", "", "key prefix for bucket uploads")
	rootCmd.PersistentFlags().StringVar(&uploadCompress, "upload-compress", "none", "compress directory artifacts: none, gzip or zstd")
}

// newLogger builds the CLI logger. Verbose switches to the development
// encoder at debug level.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}

// newContext returns a context canceled on SIGINT/SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, finishing current game...")
		cancel()
	}()
	return ctx, cancel
}

// newPipeline assembles a pipeline from the global flags.
func newPipeline(log *zap.Logger) (*streaklab.Pipeline, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("at least one --player is required")
	}

	opts := []streaklab.Option{
		streaklab.WithDataDir(dataDir),
		streaklab.WithPlayers(players...),
		streaklab.WithTimeClass(timeClass),
		streaklab.WithLogger(log),
		streaklab.WithStats(logger.New(log.Named("stats"))),
	}

	for _, a := range aliasFlags {
		handle, name, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --alias %q, want handle=name", a)
		}
		opts = append(opts, streaklab.WithAliases(handle, name))
	}

	from, to, err := parseRange()
	if err != nil {
		return nil, err
	}
	if !from.IsZero() || !to.IsZero() {
		opts = append(opts, streaklab.WithDateRange(from, to))
	}

	if enginePath != "" {
		engineOpts := []engine.Option{
			engine.WithMoveTime(engineMoveTime),
			engine.WithThreads(engineThreads),
		}
		if engineDepth > 0 {
			engineOpts = append(engineOpts, engine.WithDepth(engineDepth))
		}
		opts = append(opts, streaklab.WithEngine(enginePath, engineOpts...))
	}

	uploader, err := newUploader()
	if err != nil {
		return nil, err
	}
	if uploader != nil {
		opts = append(opts, streaklab.WithUploader(uploader))
	}

	return streaklab.New(opts...)
}

func parseRange() (from, to time.Time, err error) {
	if fromMonth != "" {
		from, err = time.Parse("2006-01", fromMonth)
		if err != nil {
			return from, to, fmt.Errorf("parsing --from: %w", err)
		}
	}
	if toMonth != "" {
		to, err = time.Parse("2006-01", toMonth)
		if err != nil {
			return from, to, fmt.Errorf("parsing --to: %w", err)
		}
	}
	return from, to, nil
}

func newUploader() (upload.Uploader, error) {
	switch {
	case uploadDir != "":
		var opts []fileupload.Option
		switch uploadCompress {
		case "", "none":
		case "gzip":
			opts = append(opts, fileupload.WithCodec(gzipcodec.New()))
		case "zstd":
			opts = append(opts, fileupload.WithCodec(zstdcodec.New()))
		default:
			return nil, fmt.Errorf("unknown --upload-compress %q, want none, gzip or zstd", uploadCompress)
		}
		return fileupload.New(uploadDir, opts...)
	case gcsBucket != "":
		var opts []gcsupload.Option
		if uploadPrefix != "" {
			opts = append(opts, gcsupload.WithPrefix(uploadPrefix))
		}
		return gcsupload.New(context.Background(), gcsBucket, opts...)
	case s3Bucket != "":
		var opts []s3upload.Option
		if uploadPrefix != "" {
			opts = append(opts, s3upload.WithPrefix(uploadPrefix))
		}
		return s3upload.New(context.Background(), s3Bucket, opts...)
	default:
		return nil, nil
	}
}
