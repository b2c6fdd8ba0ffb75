// Package engine wraps an external UCI chess engine process and exposes
// position evaluation as a blocking, context-aware call.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned when the engine process has exited or its
// output stream ended unexpectedly.
var ErrClosed = errors.New("engine: closed")

// mateCP is the centipawn value substituted for forced-mate scores.
// Large enough to saturate any win-probability conversion.
const mateCP = 10000

// Eval is one position evaluation, relative to the side to move.
type Eval struct {
	// CP is the score in centipawns. Forced mates are clamped to
	// +/- 10000.
	CP int
	// Mate is the number of moves to mate when the engine reported a
	// mate score, zero otherwise. Negative means the side to move is
	// being mated.
	Mate     int
	BestMove string
}

// Engine is a running UCI engine process.
type Engine struct {
	path    string
	cmd     *exec.Cmd
	session *session

	moveTime time.Duration
	depth    int
	threads  int
	hash     int
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMoveTime sets the per-position thinking time. Ignored when a
// search depth is set. Default 50ms.
func WithMoveTime(d time.Duration) Option {
	return func(e *Engine) { e.moveTime = d }
}

// WithDepth sets a fixed search depth instead of a time limit.
func WithDepth(depth int) Option {
	return func(e *Engine) { e.depth = depth }
}

// WithThreads sets the engine's thread count.
func WithThreads(n int) Option {
	return func(e *Engine) { e.threads = n }
}

// WithHash sets the engine's hash table size in MB.
func WithHash(mb int) Option {
	return func(e *Engine) { e.hash = mb }
}

// WithLogger sets the logger. If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New starts the engine binary at path and performs the UCI handshake.
// The caller must Close the engine when done.
func New(ctx context.Context, path string, opts ...Option) (*Engine, error) {
	e := &Engine{
		path:     path,
		moveTime: 50 * time.Millisecond,
		threads:  1,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting engine %s: %w", path, err)
	}
	e.cmd = cmd
	e.session = newSession(stdin, stdout)

	if err := e.handshake(ctx); err != nil {
		e.kill()
		return nil, err
	}

	e.logger.Debug("engine started",
		zap.String("path", path),
		zap.Int("threads", e.threads),
	)
	return e, nil
}

func (e *Engine) handshake(ctx context.Context) error {
	if err := e.session.send("uci"); err != nil {
		return err
	}
	if err := e.session.waitFor(ctx, "uciok"); err != nil {
		return fmt.Errorf("uci handshake: %w", err)
	}
	if e.threads > 1 {
		if err := e.session.send(fmt.Sprintf("setoption name Threads value %d", e.threads)); err != nil {
			return err
		}
	}
	if e.hash > 0 {
		if err := e.session.send(fmt.Sprintf("setoption name Hash value %d", e.hash)); err != nil {
			return err
		}
	}
	if err := e.session.send("isready"); err != nil {
		return err
	}
	if err := e.session.waitFor(ctx, "readyok"); err != nil {
		return fmt.Errorf("uci handshake: %w", err)
	}
	return nil
}

// Evaluate scores the position given as a FEN string. It blocks until
// the engine reports its best move or ctx is done. After a context
// error the engine is in an unknown state and should be closed.
func (e *Engine) Evaluate(ctx context.Context, fen string) (Eval, error) {
	if err := ctx.Err(); err != nil {
		return Eval{}, err
	}
	if err := e.session.send("position fen " + fen); err != nil {
		return Eval{}, err
	}

	goCmd := fmt.Sprintf("go movetime %d", e.moveTime.Milliseconds())
	if e.depth > 0 {
		goCmd = fmt.Sprintf("go depth %d", e.depth)
	}
	if err := e.session.send(goCmd); err != nil {
		return Eval{}, err
	}

	return e.session.collect(ctx)
}

// Close asks the engine to quit and waits for the process to exit,
// killing it after a grace period.
func (e *Engine) Close() error {
	if e.cmd == nil {
		return nil
	}
	_ = e.session.send("quit")

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		e.kill()
		return <-done
	}
}

func (e *Engine) kill() {
	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
}
