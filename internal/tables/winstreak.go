package tables

import (
	"sort"

	"github.com/discochess/streaklab/internal/dataset"
)

// StreakGame is one game belonging to a win streak.
type StreakGame struct {
	GameID      int
	OpponentElo int
	EloDiff     int
}

// WinStreaks scans games in ID order and returns the win-streak values
// together with per-game details for every game inside a streak.
//
// A streak is a run of consecutive wins over sequential game IDs. A
// draw inside a streak contributes half a point, credited when the
// streak continues with another win. Only streaks longer than one game
// are reported. A gap in the ID sequence breaks the streak.
func WinStreaks(games []dataset.Game) ([]float64, []StreakGame) {
	sorted := make([]dataset.Game, len(games))
	copy(sorted, games)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var (
		streaks       []float64
		details       []StreakGame
		current       float64
		inStreak      bool
		streakDetails []StreakGame
		lastID        int
		haveLast      bool
		pendingDraw   float64
	)

	flush := func() {
		if current > 1 {
			streaks = append(streaks, current)
			details = append(details, streakDetails...)
		}
	}

	for _, g := range sorted {
		sequential := !haveLast || g.ID == lastID+1
		detail := StreakGame{GameID: g.ID, OpponentElo: g.OpponentElo, EloDiff: g.EloDiff}

		switch {
		case g.Result == dataset.Win:
			if !inStreak || !sequential {
				flush()
				current = 1
				inStreak = true
				streakDetails = []StreakGame{detail}
			} else {
				current += 1 + pendingDraw
				streakDetails = append(streakDetails, detail)
			}
			pendingDraw = 0

		case g.Result == dataset.Draw && sequential:
			if inStreak {
				pendingDraw = 0.5
				streakDetails = append(streakDetails, detail)
			} else {
				pendingDraw = 0
			}

		default:
			flush()
			current = 0
			inStreak = false
			streakDetails = nil
			pendingDraw = 0
		}

		lastID = g.ID
		haveLast = true
	}
	flush()

	return streaks, details
}

// Ordered returns a copy of the streak values sorted ascending.
func Ordered(streaks []float64) []float64 {
	out := make([]float64, len(streaks))
	copy(out, streaks)
	sort.Float64s(out)
	return out
}

// FrequencyRow is one (value, count) pair of the streak frequency table.
type FrequencyRow struct {
	Xi float64
	Fi int
}

// FrequencyTable tabulates streak values from 2 up to the maximum
// observed value in half-point steps, counting exact occurrences.
// Returns nil when there are no streaks.
func FrequencyTable(streaks []float64) []FrequencyRow {
	if len(streaks) == 0 {
		return nil
	}

	max := streaks[0]
	for _, s := range streaks[1:] {
		if s > max {
			max = s
		}
	}

	var rows []FrequencyRow
	for xi := 2.0; xi <= max; xi += 0.5 {
		count := 0
		for _, s := range streaks {
			if s == xi {
				count++
			}
		}
		rows = append(rows, FrequencyRow{Xi: xi, Fi: count})
	}
	return rows
}
