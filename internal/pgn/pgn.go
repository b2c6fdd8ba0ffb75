// Package pgn provides utilities for normalizing raw PGN archives:
// splitting, chronological sorting, deduplication, and derived headers.
package pgn

import (
	"bufio"
	"fmt"
	"hash/fnv"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/notnil/chess"
)

// RawGame is one game's PGN text plus its parsed timestamp.
type RawGame struct {
	Text     string
	PlayedAt time.Time
	// HasTime reports whether UTCDate/UTCTime headers were present and valid.
	HasTime bool
}

var (
	utcDateRe = regexp.MustCompile(`\[UTCDate "(\d{4}\.\d{2}\.\d{2})"\]`)
	utcTimeRe = regexp.MustCompile(`\[UTCTime "(\d{2}:\d{2}:\d{2})"\]`)
	headerRe  = regexp.MustCompile(`\[([A-Za-z_]+) "((?:[^"\\]|\\.)*)"\]`)
)

// Split reads a PGN stream and returns one RawGame per game.
// Games are delimited by lines starting with "[Event ".
func Split(r io.Reader) ([]RawGame, error) {
	var games []RawGame

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var gameText strings.Builder
	inGame := false

	flush := func() {
		if gameText.Len() == 0 {
			return
		}
		text := strings.TrimRight(gameText.String(), "\n")
		games = append(games, parseGame(text))
		gameText.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "[Event ") {
			if inGame {
				flush()
			}
			inGame = true
		}

		if inGame {
			gameText.WriteString(line)
			gameText.WriteString("\n")
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PGN: %w", err)
	}

	return games, nil
}

func parseGame(text string) RawGame {
	g := RawGame{Text: text}

	dateMatch := utcDateRe.FindStringSubmatch(text)
	timeMatch := utcTimeRe.FindStringSubmatch(text)
	if dateMatch != nil && timeMatch != nil {
		stamp := strings.ReplaceAll(dateMatch[1], ".", "-") + " " + timeMatch[1]
		if t, err := time.Parse("2006-01-02 15:04:05", stamp); err == nil {
			g.PlayedAt = t
			g.HasTime = true
		}
	}

	return g
}

// Decode replays a game's movetext into a playable game. It fails on
// movetext that is not legal chess, which callers treat as a dropped
// game rather than a fatal error.
func Decode(g RawGame) (*chess.Game, error) {
	opt, err := chess.PGN(strings.NewReader(g.Text))
	if err != nil {
		return nil, fmt.Errorf("decoding game: %w", err)
	}
	return chess.NewGame(opt), nil
}

// Header returns the value of the named tag pair, or "" if absent.
func Header(text, name string) string {
	for _, m := range headerRe.FindAllStringSubmatch(text, -1) {
		if m[1] == name {
			return m[2]
		}
	}
	return ""
}

// SortChronological sorts games by UTC timestamp, oldest first.
// Games without a parseable timestamp sort to the front. The sort is
// stable so identical inputs always produce identical output.
func SortChronological(games []RawGame) {
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].PlayedAt.Before(games[j].PlayedAt)
	})
}

// Identity returns the stable identifier used for deduplication: the
// Link header when present, otherwise an FNV-1a digest of the movetext.
func Identity(g RawGame) string {
	if link := Header(g.Text, "Link"); link != "" {
		return link
	}
	h := fnv.New64a()
	h.Write([]byte(movetext(g.Text)))
	return fmt.Sprintf("fnv64:%x", h.Sum64())
}

// Dedup removes duplicate games, keeping the first occurrence.
// It preserves order and reports how many games were removed.
func Dedup(games []RawGame) ([]RawGame, int) {
	seen := make(map[string]struct{}, len(games))
	kept := games[:0:0]
	for _, g := range games {
		id := Identity(g)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, g)
	}
	return kept, len(games) - len(kept)
}

// Write writes games to w separated by blank lines.
func Write(w io.Writer, games []RawGame) error {
	for _, g := range games {
		if _, err := io.WriteString(w, g.Text); err != nil {
			return fmt.Errorf("writing game: %w", err)
		}
		if _, err := io.WriteString(w, "\n\n"); err != nil {
			return fmt.Errorf("writing game: %w", err)
		}
	}
	return nil
}

// movetext returns everything after the header section.
func movetext(text string) string {
	if idx := strings.Index(text, "\n\n"); idx >= 0 {
		return text[idx+2:]
	}
	return text
}
