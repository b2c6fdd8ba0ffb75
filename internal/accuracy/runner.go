package accuracy

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/streaklab/internal/checkpoint"
	"github.com/discochess/streaklab/internal/engine"
	"github.com/discochess/streaklab/internal/pgn"
	"github.com/discochess/streaklab/internal/stats"
)

// Scorer is an Evaluator that owns a closable engine process.
type Scorer interface {
	Evaluator
	Close() error
}

// Factory creates a fresh engine process. The runner calls it at start
// and again when replacing a failed engine.
type Factory func(ctx context.Context) (Scorer, error)

const defaultCacheSize = 4096

// Runner scores every unprocessed game in a consolidated PGN and
// appends results to the accuracy table, checkpointing after each game
// so an interrupted run resumes where it left off.
type Runner struct {
	tablePath string
	cursor    *checkpoint.Cursor
	factory   Factory

	cacheSize int
	logger    *zap.Logger
	stats     stats.Collector
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCacheSize sets the evaluation cache capacity.
func WithCacheSize(n int) RunnerOption {
	return func(r *Runner) { r.cacheSize = n }
}

// WithLogger sets the logger. If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithStats sets the stats collector. If not set, a no-op collector is used.
func WithStats(c stats.Collector) RunnerOption {
	return func(r *Runner) { r.stats = c }
}

// NewRunner creates a Runner writing to tablePath and checkpointing at
// checkpointPath.
func NewRunner(tablePath, checkpointPath string, factory Factory, opts ...RunnerOption) *Runner {
	r := &Runner{
		tablePath: tablePath,
		cursor:    checkpoint.New(checkpointPath),
		factory:   factory,
		cacheSize: defaultCacheSize,
		logger:    zap.NewNop(),
		stats:     stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scores every game in the PGN stream that is not yet in the
// accuracy table and not behind the checkpoint. On full completion the
// checkpoint is discarded. A failed game is retried once on a fresh
// engine process, then skipped.
func (r *Runner) Run(ctx context.Context, pgnStream io.Reader) error {
	processed, err := LoadProcessed(r.tablePath)
	if err != nil {
		return err
	}

	lastID, err := r.cursor.Load()
	if err != nil && err != checkpoint.ErrNotFound {
		return err
	}

	scorer, err := r.factory(ctx)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	defer func() { _ = scorer.Close() }()

	cached, err := NewCachingEvaluator(r.timed(scorer), r.cacheSize, r.stats)
	if err != nil {
		return err
	}

	rawGames, err := pgn.Split(pgnStream)
	if err != nil {
		return fmt.Errorf("splitting PGN: %w", err)
	}

	for _, raw := range rawGames {
		if err := ctx.Err(); err != nil {
			return err
		}

		id, err := strconv.Atoi(pgn.Header(raw.Text, pgn.HeaderGameID))
		if err != nil {
			continue
		}

		if id <= lastID {
			continue
		}
		if _, done := processed[id]; done {
			continue
		}

		// Undecodable movetext is skipped like a persistent engine
		// failure; the rest of the batch continues.
		game, decodeErr := pgn.Decode(raw)
		if decodeErr != nil {
			r.stats.IncCounter(stats.MetricGamesSkipped, 1)
			r.logger.Warn("game skipped, unparseable movetext",
				zap.Int("gameID", id),
				zap.Error(decodeErr),
			)
			if err := r.cursor.Save(id); err != nil {
				return err
			}
			continue
		}

		white, black, scoreErr := ScoreGame(ctx, cached, game)
		if scoreErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.stats.IncCounter(stats.MetricEngineFailures, 1)
			r.logger.Warn("engine failed, restarting",
				zap.Int("gameID", id),
				zap.Error(scoreErr),
			)

			scorer, cached, err = r.replaceEngine(ctx, scorer)
			if err != nil {
				return err
			}
			white, black, scoreErr = ScoreGame(ctx, cached, game)
		}
		if scoreErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.stats.IncCounter(stats.MetricGamesSkipped, 1)
			r.logger.Warn("game skipped after retry",
				zap.Int("gameID", id),
				zap.Error(scoreErr),
			)
			if err := r.cursor.Save(id); err != nil {
				return err
			}
			continue
		}

		score := GameScore{GameID: id, WhiteAccuracy: white, BlackAccuracy: black}
		if err := Append(r.tablePath, score); err != nil {
			return err
		}
		if err := r.cursor.Save(id); err != nil {
			return err
		}
		r.stats.IncCounter(stats.MetricGamesScored, 1)
		r.logger.Debug("game scored",
			zap.Int("gameID", id),
			zap.Float64("white", white),
			zap.Float64("black", black),
		)
	}

	return r.cursor.Clear()
}

func (r *Runner) replaceEngine(ctx context.Context, old Scorer) (Scorer, *CachingEvaluator, error) {
	_ = old.Close()
	scorer, err := r.factory(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("restarting engine: %w", err)
	}
	cached, err := NewCachingEvaluator(r.timed(scorer), r.cacheSize, r.stats)
	if err != nil {
		_ = scorer.Close()
		return nil, nil, err
	}
	return scorer, cached, nil
}

func (r *Runner) timed(inner Evaluator) Evaluator {
	return &timedEvaluator{inner: inner, stats: r.stats}
}

// timedEvaluator records per-evaluation latency.
type timedEvaluator struct {
	inner Evaluator
	stats stats.Collector
}

func (t *timedEvaluator) Evaluate(ctx context.Context, fen string) (engine.Eval, error) {
	start := time.Now()
	ev, err := t.inner.Evaluate(ctx, fen)
	t.stats.ObserveHistogram(stats.MetricMoveLatency, time.Since(start).Seconds())
	return ev, err
}

// EngineFactory returns a Factory launching the UCI binary at path with
// the given engine options.
func EngineFactory(path string, opts ...engine.Option) Factory {
	return func(ctx context.Context) (Scorer, error) {
		return engine.New(ctx, path, opts...)
	}
}
