package engine

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

func TestSessionWaitFor(t *testing.T) {
	transcript := "id name Stockfish\nid author the Stockfish developers\nuciok\n"
	var sent bytes.Buffer
	s := newSession(&sent, strings.NewReader(transcript))

	if err := s.send("uci"); err != nil {
		t.Fatalf("send() error = %v", err)
	}
	if err := s.waitFor(context.Background(), "uciok"); err != nil {
		t.Fatalf("waitFor() error = %v", err)
	}
	if sent.String() != "uci\n" {
		t.Errorf("sent %q, want uci newline", sent.String())
	}
}

func TestSessionWaitFor_StreamEnds(t *testing.T) {
	s := newSession(&bytes.Buffer{}, strings.NewReader("id name x\n"))

	if err := s.waitFor(context.Background(), "uciok"); err != ErrClosed {
		t.Errorf("waitFor() error = %v, want ErrClosed", err)
	}
}

func TestSessionCollect(t *testing.T) {
	transcript := strings.Join([]string{
		"info depth 1 seldepth 1 score cp 35 nodes 20 pv e2e4",
		"info depth 12 seldepth 16 score cp 62 nodes 50000 pv e2e4 e7e5",
		"bestmove e2e4 ponder e7e5",
	}, "\n") + "\n"
	s := newSession(&bytes.Buffer{}, strings.NewReader(transcript))

	ev, err := s.collect(context.Background())
	if err != nil {
		t.Fatalf("collect() error = %v", err)
	}
	if ev.CP != 62 {
		t.Errorf("CP = %d, want 62 (last reported score)", ev.CP)
	}
	if ev.BestMove != "e2e4" {
		t.Errorf("BestMove = %q, want e2e4", ev.BestMove)
	}
	if ev.Mate != 0 {
		t.Errorf("Mate = %d, want 0", ev.Mate)
	}
}

func TestSessionCollect_MateScore(t *testing.T) {
	transcript := "info depth 20 score mate -3 nodes 1000 pv h7h8\nbestmove h7h8\n"
	s := newSession(&bytes.Buffer{}, strings.NewReader(transcript))

	ev, err := s.collect(context.Background())
	if err != nil {
		t.Fatalf("collect() error = %v", err)
	}
	if ev.Mate != -3 {
		t.Errorf("Mate = %d, want -3", ev.Mate)
	}
	if ev.CP != -mateCP {
		t.Errorf("CP = %d, want %d", ev.CP, -mateCP)
	}
}

func TestSessionCollect_ContextCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	s := newSession(&bytes.Buffer{}, pr)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.collect(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("collect() error = %v, want deadline exceeded", err)
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		line     string
		wantCP   int
		wantMate int
	}{
		{"info depth 10 score cp -140 nodes 1", -140, 0},
		{"info depth 10 score mate 2 nodes 1", mateCP, 2},
		{"info depth 10 score mate -1 nodes 1", -mateCP, -1},
		// The side to move is already checkmated.
		{"info depth 0 score mate 0 nodes 1", -mateCP, 0},
		{"info depth 10 nodes 1", 0, 0},
	}
	for _, tt := range tests {
		var ev Eval
		parseScore(tt.line, &ev)
		if ev.CP != tt.wantCP || ev.Mate != tt.wantMate {
			t.Errorf("parseScore(%q) = cp %d mate %d, want cp %d mate %d",
				tt.line, ev.CP, ev.Mate, tt.wantCP, tt.wantMate)
		}
	}
}
