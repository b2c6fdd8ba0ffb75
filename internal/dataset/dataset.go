// Package dataset defines the consolidated per-player dataset: one game
// record per played game, with derived fields, persisted as CSV.
package dataset

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a dataset file does not exist.
var ErrNotFound = errors.New("dataset: not found")

// Result is a game outcome from the dataset player's perspective.
type Result string

const (
	Win  Result = "win"
	Loss Result = "loss"
	Draw Result = "draw"
)

// Color is the side the dataset player held.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Game is one consolidated game record. Records are immutable once built.
type Game struct {
	// ID is the 1-based chronological sequence number within the
	// player's consolidated dataset.
	ID int

	Player      string
	Color       Color
	Result      Result
	WhiteName   string
	BlackName   string
	PlayerElo   int
	OpponentElo int
	// EloDiff is PlayerElo - OpponentElo.
	EloDiff int
	Moves   int

	Event       string
	Place       string
	TimeClass   string
	ECO         string
	Opening     string
	Termination string
	Link        string
	PlayedAt    time.Time
}

// Dataset is the ordered, deduplicated game history of one player.
type Dataset struct {
	Player string
	Games  []Game
}

// Results returns the ordered result sequence of the dataset.
func (d *Dataset) Results() []Result {
	results := make([]Result, len(d.Games))
	for i, g := range d.Games {
		results[i] = g.Result
	}
	return results
}

// FilterTimeClass returns a new dataset containing only games of the
// given time control class, preserving order and IDs.
func (d *Dataset) FilterTimeClass(class string) *Dataset {
	filtered := &Dataset{Player: d.Player}
	for _, g := range d.Games {
		if g.TimeClass == class {
			filtered.Games = append(filtered.Games, g)
		}
	}
	return filtered
}

// DroppedGame records one game excluded during dataset construction.
type DroppedGame struct {
	// Index is the 1-based position of the game in the source PGN.
	Index  int
	GameID string
	Reason string
}

// DropReport lists the games dropped while building a dataset.
type DropReport struct {
	Total   int
	Dropped []DroppedGame
}
