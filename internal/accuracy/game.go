package accuracy

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/notnil/chess"

	"github.com/discochess/streaklab/internal/engine"
	"github.com/discochess/streaklab/internal/stats"
)

// Evaluator scores a single position given as FEN.
type Evaluator interface {
	Evaluate(ctx context.Context, fen string) (engine.Eval, error)
}

// GameScore is the averaged per-side accuracy of one game.
type GameScore struct {
	GameID        int
	WhiteAccuracy float64
	BlackAccuracy float64
}

// ScoreGame replays a game's moves and averages per-move accuracy for
// each side. Evaluations are relative to the side to move; the score
// after a move is negated to stay in the mover's perspective.
func ScoreGame(ctx context.Context, ev Evaluator, game *chess.Game) (whiteAcc, blackAcc float64, err error) {
	positions := game.Positions()
	moves := game.Moves()
	if len(moves) == 0 {
		return 0, 0, nil
	}

	var (
		whiteTotal, blackTotal float64
		whiteCount, blackCount int
	)

	before, err := ev.Evaluate(ctx, positions[0].String())
	if err != nil {
		return 0, 0, fmt.Errorf("evaluating position: %w", err)
	}

	for i := range moves {
		whiteToMove := positions[i].Turn() == chess.White

		after, err := ev.Evaluate(ctx, positions[i+1].String())
		if err != nil {
			return 0, 0, fmt.Errorf("evaluating position after move %d: %w", i+1, err)
		}

		winBefore := WinPercent(float64(before.CP))
		winAfter := WinPercent(float64(-after.CP))
		acc := MoveAccuracy(winBefore, winAfter)

		if whiteToMove {
			whiteTotal += acc
			whiteCount++
		} else {
			blackTotal += acc
			blackCount++
		}

		before = after
	}

	if whiteCount > 0 {
		whiteAcc = whiteTotal / float64(whiteCount)
	}
	if blackCount > 0 {
		blackAcc = blackTotal / float64(blackCount)
	}
	return whiteAcc, blackAcc, nil
}

// CachingEvaluator memoizes evaluations in an LRU cache keyed by
// position. Transpositions and the shared before/after position of
// consecutive moves hit the cache.
type CachingEvaluator struct {
	inner Evaluator
	cache *lru.Cache[string, engine.Eval]
	stats stats.Collector
}

// NewCachingEvaluator wraps inner with an LRU cache of the given size.
func NewCachingEvaluator(inner Evaluator, size int, collector stats.Collector) (*CachingEvaluator, error) {
	cache, err := lru.New[string, engine.Eval](size)
	if err != nil {
		return nil, fmt.Errorf("creating eval cache: %w", err)
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &CachingEvaluator{inner: inner, cache: cache, stats: collector}, nil
}

var _ Evaluator = (*CachingEvaluator)(nil)

func (c *CachingEvaluator) Evaluate(ctx context.Context, fen string) (engine.Eval, error) {
	key := cacheKey(fen)
	if ev, ok := c.cache.Get(key); ok {
		c.stats.IncCounter(stats.MetricEvalCacheHits, 1)
		return ev, nil
	}
	c.stats.IncCounter(stats.MetricEvalCacheMiss, 1)

	ev, err := c.inner.Evaluate(ctx, fen)
	if err != nil {
		return engine.Eval{}, err
	}
	c.cache.Add(key, ev)
	return ev, nil
}

// cacheKey strips the halfmove and fullmove counters so identical
// positions reached at different move numbers share an entry.
func cacheKey(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) >= 4 {
		return strings.Join(fields[:4], " ")
	}
	return fen
}
