package accuracy

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/discochess/streaklab/internal/engine"
)

// fakeScorer returns a deterministic evaluation derived from the FEN.
type fakeScorer struct {
	evals  int
	fail   bool
	closed bool
}

func (f *fakeScorer) Evaluate(_ context.Context, fen string) (engine.Eval, error) {
	if f.fail {
		return engine.Eval{}, errors.New("engine crashed")
	}
	f.evals++
	h := fnv.New32a()
	h.Write([]byte(fen))
	return engine.Eval{CP: int(h.Sum32()%200) - 100}, nil
}

func (f *fakeScorer) Close() error {
	f.closed = true
	return nil
}

func fakeFactory(scorers *[]*fakeScorer) Factory {
	return func(context.Context) (Scorer, error) {
		s := &fakeScorer{}
		*scorers = append(*scorers, s)
		return s, nil
	}
}

func testGame(id int) string {
	return fmt.Sprintf(`[Event "Live Chess"]
[Site "Chess.com"]
[White "a"]
[Black "b"]
[Result "1-0"]
[GameID "%d"]

1. e4 e5 2. Nf3 Nc6 1-0

`, id)
}

func testPGN(ids ...int) string {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(testGame(id))
	}
	return b.String()
}

func TestRunnerRun(t *testing.T) {
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "accuracy.csv")
	ckptPath := filepath.Join(dir, "checkpoint")

	var scorers []*fakeScorer
	r := NewRunner(tablePath, ckptPath, fakeFactory(&scorers))

	if err := r.Run(context.Background(), strings.NewReader(testPGN(1, 2, 3))); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	scores, err := LoadTable(tablePath)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("table has %d rows, want 3", len(scores))
	}
	for i, s := range scores {
		if s.GameID != i+1 {
			t.Errorf("row %d ID = %d, want %d", i, s.GameID, i+1)
		}
	}

	// Checkpoint discarded on completion.
	if _, err := os.Stat(ckptPath); !os.IsNotExist(err) {
		t.Error("checkpoint should be removed after a complete run")
	}
	if !scorers[0].closed {
		t.Error("engine should be closed after the run")
	}
}

func TestRunnerRun_ResumeMatchesUninterrupted(t *testing.T) {
	full := testPGN(1, 2, 3, 4)

	// Uninterrupted run.
	dirA := t.TempDir()
	tableA := filepath.Join(dirA, "accuracy.csv")
	var scorersA []*fakeScorer
	rA := NewRunner(tableA, filepath.Join(dirA, "checkpoint"), fakeFactory(&scorersA))
	if err := rA.Run(context.Background(), strings.NewReader(full)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Interrupted run: first pass sees only the first two games, the
	// second pass sees the full stream and must pick up where it left off.
	dirB := t.TempDir()
	tableB := filepath.Join(dirB, "accuracy.csv")
	var scorersB []*fakeScorer
	rB := NewRunner(tableB, filepath.Join(dirB, "checkpoint"), fakeFactory(&scorersB))
	if err := rB.Run(context.Background(), strings.NewReader(testPGN(1, 2))); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if err := rB.Run(context.Background(), strings.NewReader(full)); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	a, err := os.ReadFile(tableA)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(tableB)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Errorf("resumed table differs from uninterrupted table:\n%s\nvs\n%s", b, a)
	}
}

func TestRunnerRun_RetriesOnFreshEngine(t *testing.T) {
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "accuracy.csv")

	var scorers []*fakeScorer
	calls := 0
	factory := func(context.Context) (Scorer, error) {
		calls++
		s := &fakeScorer{fail: calls == 1} // first engine always crashes
		scorers = append(scorers, s)
		return s, nil
	}

	r := NewRunner(tablePath, filepath.Join(dir, "checkpoint"), factory)
	if err := r.Run(context.Background(), strings.NewReader(testPGN(1, 2))); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if calls != 2 {
		t.Errorf("factory called %d times, want 2 (restart after crash)", calls)
	}
	if !scorers[0].closed {
		t.Error("crashed engine should be closed before restart")
	}

	scores, err := LoadTable(tablePath)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 2 {
		t.Errorf("table has %d rows, want 2", len(scores))
	}
}

func TestRunnerRun_PersistentFailureSkipsGame(t *testing.T) {
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "accuracy.csv")

	factory := func(context.Context) (Scorer, error) {
		return &fakeScorer{fail: true}, nil
	}

	r := NewRunner(tablePath, filepath.Join(dir, "checkpoint"), factory)
	if err := r.Run(context.Background(), strings.NewReader(testPGN(1))); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := os.Stat(tablePath); !os.IsNotExist(err) {
		t.Error("no table rows expected when every game is skipped")
	}
}

func TestRunnerRun_UnparseableMovetextSkipsGame(t *testing.T) {
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "accuracy.csv")
	ckptPath := filepath.Join(dir, "checkpoint")

	// Game 2's movetext opens with an illegal king move.
	bad := strings.Replace(testGame(2), "1. e4 e5 2. Nf3 Nc6", "1. Ke3 e5", 1)
	stream := testGame(1) + bad + testGame(3)

	var scorers []*fakeScorer
	r := NewRunner(tablePath, ckptPath, fakeFactory(&scorers))
	if err := r.Run(context.Background(), strings.NewReader(stream)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	scores, err := LoadTable(tablePath)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("table has %d rows, want 2", len(scores))
	}
	if scores[0].GameID != 1 || scores[1].GameID != 3 {
		t.Errorf("scored IDs = %d, %d, want 1, 3", scores[0].GameID, scores[1].GameID)
	}
	if _, err := os.Stat(ckptPath); !os.IsNotExist(err) {
		t.Error("checkpoint should be removed after a complete run")
	}
}

func TestCachingEvaluator(t *testing.T) {
	inner := &fakeScorer{}
	cached, err := NewCachingEvaluator(inner, 16, nil)
	if err != nil {
		t.Fatal(err)
	}

	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	first, err := cached.Evaluate(context.Background(), fen)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cached.Evaluate(context.Background(), fen)
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Error("cached evaluation differs from original")
	}
	if inner.evals != 1 {
		t.Errorf("inner evaluator called %d times, want 1", inner.evals)
	}

	// Same position with different move counters shares the entry.
	if _, err := cached.Evaluate(context.Background(),
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 5 20"); err != nil {
		t.Fatal(err)
	}
	if inner.evals != 1 {
		t.Errorf("inner evaluator called %d times after key-normalized hit, want 1", inner.evals)
	}
}
