// Package tables derives structured tables from a consolidated dataset:
// per-day win rates, per-opening aggregates, win-streak listings and a
// streak-length frequency table. All derivations are pure.
package tables

import (
	"sort"

	"github.com/discochess/streaklab/internal/dataset"
)

// DayRow is one row of the per-day win rate table.
type DayRow struct {
	Date    string // "2006-01-02"
	Games   int
	Wins    int
	Losses  int
	Draws   int
	WinRate float64
}

// PerDay aggregates results per calendar day, sorted by date.
// Games without a timestamp are skipped.
func PerDay(ds *dataset.Dataset) []DayRow {
	byDay := make(map[string]*DayRow)
	for _, g := range ds.Games {
		if g.PlayedAt.IsZero() {
			continue
		}
		day := g.PlayedAt.UTC().Format("2006-01-02")
		row, ok := byDay[day]
		if !ok {
			row = &DayRow{Date: day}
			byDay[day] = row
		}
		row.Games++
		switch g.Result {
		case dataset.Win:
			row.Wins++
		case dataset.Loss:
			row.Losses++
		case dataset.Draw:
			row.Draws++
		}
	}

	rows := make([]DayRow, 0, len(byDay))
	for _, row := range byDay {
		row.WinRate = float64(row.Wins) / float64(row.Games)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}

// OpeningRow is one row of the per-opening result table.
type OpeningRow struct {
	ECO     string
	Opening string
	Games   int
	Wins    int
	Losses  int
	Draws   int
	WinRate float64
}

// PerOpening aggregates results per ECO code, sorted by code.
// Games without an ECO header aggregate under "?".
func PerOpening(ds *dataset.Dataset) []OpeningRow {
	byECO := make(map[string]*OpeningRow)
	for _, g := range ds.Games {
		eco := g.ECO
		if eco == "" {
			eco = "?"
		}
		row, ok := byECO[eco]
		if !ok {
			row = &OpeningRow{ECO: eco, Opening: g.Opening}
			byECO[eco] = row
		}
		row.Games++
		switch g.Result {
		case dataset.Win:
			row.Wins++
		case dataset.Loss:
			row.Losses++
		case dataset.Draw:
			row.Draws++
		}
	}

	rows := make([]OpeningRow, 0, len(byECO))
	for _, row := range byECO {
		row.WinRate = float64(row.Wins) / float64(row.Games)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ECO < rows[j].ECO })
	return rows
}
