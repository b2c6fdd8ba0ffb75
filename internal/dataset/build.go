package dataset

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/discochess/streaklab/internal/pgn"
	"github.com/discochess/streaklab/internal/stats"
)

// Builder constructs a consolidated dataset from an annotated PGN stream.
type Builder struct {
	player  string
	aliases []string
	logger  *zap.Logger
	stats   stats.Collector
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithAliases sets additional names the player appears under in PGN
// headers (e.g. "Nakamura, Hikaru" for "hikaru").
func WithAliases(aliases ...string) BuilderOption {
	return func(b *Builder) { b.aliases = append(b.aliases, aliases...) }
}

// WithLogger sets the logger. If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithStats sets the stats collector. If not set, a no-op collector is used.
func WithStats(c stats.Collector) BuilderOption {
	return func(b *Builder) { b.stats = c }
}

// NewBuilder creates a Builder for the given player handle.
func NewBuilder(player string, opts ...BuilderOption) *Builder {
	b := &Builder{
		player:  player,
		aliases: []string{player},
		logger:  zap.NewNop(),
		stats:   stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build parses an annotated consolidated PGN and produces the dataset.
// Malformed games are dropped with a logged reason; the rest continue.
func (b *Builder) Build(r io.Reader) (*Dataset, *DropReport, error) {
	ds := &Dataset{Player: b.player}
	report := &DropReport{}

	rawGames, err := pgn.Split(r)
	if err != nil {
		return nil, nil, fmt.Errorf("splitting PGN: %w", err)
	}

	for i, raw := range rawGames {
		index := i + 1
		report.Total++
		b.stats.IncCounter(stats.MetricGamesParsed, 1)

		// Each game decodes independently so one bad movetext drops
		// that game only.
		game, err := pgn.Decode(raw)
		if err != nil {
			b.drop(report, index, pgn.Header(raw.Text, pgn.HeaderGameID), "unparseable movetext")
			continue
		}

		record, reason := b.buildRecord(game)
		if reason != "" {
			b.drop(report, index, tag(game, pgn.HeaderGameID), reason)
			continue
		}
		ds.Games = append(ds.Games, record)
	}

	b.logger.Info("dataset built",
		zap.String("player", b.player),
		zap.Int("games", len(ds.Games)),
		zap.Int("dropped", len(report.Dropped)),
	)

	return ds, report, nil
}

func (b *Builder) drop(report *DropReport, index int, gameID, reason string) {
	report.Dropped = append(report.Dropped, DroppedGame{
		Index:  index,
		GameID: gameID,
		Reason: reason,
	})
	b.stats.IncCounter(stats.MetricGamesDropped, 1)
	b.logger.Warn("game dropped",
		zap.Int("index", index),
		zap.String("gameID", gameID),
		zap.String("reason", reason),
	)
}

func (b *Builder) buildRecord(game *chess.Game) (Game, string) {
	white := tag(game, "White")
	black := tag(game, "Black")

	var color Color
	switch {
	case b.matchName(white):
		color = White
	case b.matchName(black):
		color = Black
	default:
		return Game{}, "player not found in game"
	}

	idStr := tag(game, pgn.HeaderGameID)
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return Game{}, "missing or invalid GameID header"
	}

	whiteElo, err1 := strconv.Atoi(tag(game, "WhiteElo"))
	blackElo, err2 := strconv.Atoi(tag(game, "BlackElo"))
	if err1 != nil || err2 != nil {
		return Game{}, "invalid Elo"
	}

	timeClass := tag(game, pgn.HeaderTimeClass)
	if timeClass == "" {
		return Game{}, "missing TimeClass header"
	}

	var result Result
	switch tag(game, "Result") {
	case "1-0":
		if color == White {
			result = Win
		} else {
			result = Loss
		}
	case "0-1":
		if color == Black {
			result = Win
		} else {
			result = Loss
		}
	case "1/2-1/2":
		result = Draw
	default:
		return Game{}, "unknown result"
	}

	playerElo, opponentElo := whiteElo, blackElo
	if color == Black {
		playerElo, opponentElo = blackElo, whiteElo
	}

	return Game{
		ID:          id,
		Player:      b.player,
		Color:       color,
		Result:      result,
		WhiteName:   white,
		BlackName:   black,
		PlayerElo:   playerElo,
		OpponentElo: opponentElo,
		EloDiff:     playerElo - opponentElo,
		Moves:       len(game.Moves()),
		Event:       tag(game, "Event"),
		Place:       tag(game, pgn.HeaderPlace),
		TimeClass:   timeClass,
		ECO:         tag(game, "ECO"),
		Opening:     tag(game, "Opening"),
		Termination: tag(game, "Termination"),
		Link:        tag(game, "Link"),
		PlayedAt:    playedAt(game),
	}, ""
}

// matchName reports whether header names one of the player's aliases.
// All parts of an alias must appear among the header's parts, so
// "Nakamura, Hikaru" matches the alias "Hikaru Nakamura".
func (b *Builder) matchName(header string) bool {
	headerParts := splitName(header)
	for _, alias := range b.aliases {
		aliasParts := splitName(alias)
		if len(aliasParts) == 0 {
			continue
		}
		all := true
		for _, part := range aliasParts {
			if !containsPart(headerParts, part) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

var nameSplitRe = regexp.MustCompile(`[,\s]+`)

func splitName(name string) []string {
	var parts []string
	for _, p := range nameSplitRe.Split(strings.ToLower(name), -1) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func containsPart(parts []string, part string) bool {
	for _, p := range parts {
		if p == part {
			return true
		}
	}
	return false
}

func tag(game *chess.Game, name string) string {
	tp := game.GetTagPair(name)
	if tp == nil {
		return ""
	}
	return tp.Value
}

func playedAt(game *chess.Game) time.Time {
	date := strings.ReplaceAll(tag(game, "UTCDate"), ".", "-")
	clock := tag(game, "UTCTime")
	if date == "" {
		return time.Time{}
	}
	if clock == "" {
		clock = "00:00:00"
	}
	t, err := time.Parse("2006-01-02 15:04:05", date+" "+clock)
	if err != nil {
		return time.Time{}
	}
	return t
}
