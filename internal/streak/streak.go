// Package streak partitions game result sequences into maximal runs of
// identical outcomes and aggregates run lengths into frequency tables.
package streak

import (
	"sort"

	"github.com/discochess/streaklab/internal/dataset"
)

// Record is one maximal run of identical results.
type Record struct {
	Result dataset.Result
	Length int
	// Start and End are the 1-based game IDs bounding the run, inclusive.
	Start int
	End   int
}

// Partition splits a dataset's games into maximal runs of identical
// results. The records cover every game exactly once, in order.
func Partition(games []dataset.Game) []Record {
	if len(games) == 0 {
		return nil
	}

	var records []Record
	current := Record{
		Result: games[0].Result,
		Length: 1,
		Start:  games[0].ID,
		End:    games[0].ID,
	}
	for _, g := range games[1:] {
		if g.Result == current.Result {
			current.Length++
			current.End = g.ID
			continue
		}
		records = append(records, current)
		current = Record{Result: g.Result, Length: 1, Start: g.ID, End: g.ID}
	}
	return append(records, current)
}

// Frequency is how often runs of one result reached a given length.
type Frequency struct {
	Result dataset.Result
	Length int
	Count  int
}

// Frequencies tabulates run lengths per result, sorted by result then
// length so output is deterministic.
func Frequencies(records []Record) []Frequency {
	type key struct {
		result dataset.Result
		length int
	}
	counts := make(map[key]int)
	for _, r := range records {
		counts[key{r.Result, r.Length}]++
	}

	freqs := make([]Frequency, 0, len(counts))
	for k, c := range counts {
		freqs = append(freqs, Frequency{Result: k.result, Length: k.length, Count: c})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Result != freqs[j].Result {
			return resultOrder(freqs[i].Result) < resultOrder(freqs[j].Result)
		}
		return freqs[i].Length < freqs[j].Length
	})
	return freqs
}

func resultOrder(r dataset.Result) int {
	switch r {
	case dataset.Win:
		return 0
	case dataset.Loss:
		return 1
	default:
		return 2
	}
}

// PlayerRow is one row of the merged dashboard table.
type PlayerRow struct {
	Player    string
	Result    dataset.Result
	Length    int
	Frequency int
}

// Merge combines per-player frequency tables into one dashboard table.
// Players appear in the order given; rows within a player follow the
// frequency table order.
func Merge(players []string, tables map[string][]Frequency) []PlayerRow {
	var rows []PlayerRow
	for _, p := range players {
		for _, f := range tables[p] {
			rows = append(rows, PlayerRow{
				Player:    p,
				Result:    f.Result,
				Length:    f.Length,
				Frequency: f.Count,
			})
		}
	}
	return rows
}

// Longest returns the longest run of the given result, or a zero Record
// when none exists.
func Longest(records []Record, result dataset.Result) Record {
	var best Record
	for _, r := range records {
		if r.Result == result && r.Length > best.Length {
			best = r
		}
	}
	return best
}
