package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// session is the line-oriented UCI conversation over an engine's pipes.
// A background goroutine owns all reads so callers can select against
// their context.
type session struct {
	w     io.Writer
	lines chan string
}

func newSession(w io.Writer, r io.Reader) *session {
	s := &session{
		w:     w,
		lines: make(chan string, 64),
	}
	go func() {
		defer close(s.lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			s.lines <- scanner.Text()
		}
	}()
	return s
}

func (s *session) send(cmd string) error {
	if _, err := io.WriteString(s.w, cmd+"\n"); err != nil {
		return fmt.Errorf("engine write: %w", err)
	}
	return nil
}

// waitFor discards lines until one contains the token.
func (s *session) waitFor(ctx context.Context, token string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-s.lines:
			if !ok {
				return ErrClosed
			}
			if strings.Contains(line, token) {
				return nil
			}
		}
	}
}

// collect reads search output until the bestmove line, keeping the last
// reported score.
func (s *session) collect(ctx context.Context) (Eval, error) {
	var ev Eval
	for {
		select {
		case <-ctx.Done():
			return Eval{}, ctx.Err()
		case line, ok := <-s.lines:
			if !ok {
				return Eval{}, ErrClosed
			}
			if strings.HasPrefix(line, "info ") {
				parseScore(line, &ev)
				continue
			}
			if strings.HasPrefix(line, "bestmove") {
				fields := strings.Fields(line)
				if len(fields) >= 2 {
					ev.BestMove = fields[1]
				}
				return ev, nil
			}
		}
	}
}

// parseScore extracts "score cp N" or "score mate N" from an info line.
func parseScore(line string, ev *Eval) {
	fields := strings.Fields(line)
	for i := 0; i < len(fields)-2; i++ {
		if fields[i] != "score" {
			continue
		}
		n, err := strconv.Atoi(fields[i+2])
		if err != nil {
			return
		}
		switch fields[i+1] {
		case "cp":
			ev.CP = n
			ev.Mate = 0
		case "mate":
			ev.Mate = n
			// "mate 0" means the side to move is already checkmated.
			if n > 0 {
				ev.CP = mateCP
			} else {
				ev.CP = -mateCP
			}
		}
		return
	}
}
