package streak

import (
	"testing"

	"github.com/discochess/streaklab/internal/dataset"
)

func games(results ...dataset.Result) []dataset.Game {
	gs := make([]dataset.Game, len(results))
	for i, r := range results {
		gs[i] = dataset.Game{ID: i + 1, Result: r}
	}
	return gs
}

func TestPartition(t *testing.T) {
	gs := games(dataset.Win, dataset.Win, dataset.Loss, dataset.Draw, dataset.Win)

	records := Partition(gs)

	want := []Record{
		{Result: dataset.Win, Length: 2, Start: 1, End: 2},
		{Result: dataset.Loss, Length: 1, Start: 3, End: 3},
		{Result: dataset.Draw, Length: 1, Start: 4, End: 4},
		{Result: dataset.Win, Length: 1, Start: 5, End: 5},
	}
	if len(records) != len(want) {
		t.Fatalf("Partition() returned %d records, want %d", len(records), len(want))
	}
	for i, w := range want {
		if records[i] != w {
			t.Errorf("record %d = %+v, want %+v", i, records[i], w)
		}
	}
}

func TestPartition_Empty(t *testing.T) {
	if got := Partition(nil); got != nil {
		t.Errorf("Partition(nil) = %v, want nil", got)
	}
}

func TestPartition_CoversEveryGame(t *testing.T) {
	gs := games(
		dataset.Win, dataset.Loss, dataset.Loss, dataset.Draw, dataset.Win,
		dataset.Win, dataset.Win, dataset.Draw, dataset.Loss, dataset.Win,
	)

	records := Partition(gs)

	total := 0
	next := 1
	for _, r := range records {
		if r.Start != next {
			t.Errorf("run starts at %d, want %d", r.Start, next)
		}
		if r.End-r.Start+1 != r.Length {
			t.Errorf("run %+v has inconsistent bounds", r)
		}
		total += r.Length
		next = r.End + 1
	}
	if total != len(gs) {
		t.Errorf("run lengths sum to %d, want %d", total, len(gs))
	}
}

func TestFrequencies(t *testing.T) {
	records := []Record{
		{Result: dataset.Win, Length: 2},
		{Result: dataset.Loss, Length: 1},
		{Result: dataset.Win, Length: 2},
		{Result: dataset.Win, Length: 5},
		{Result: dataset.Draw, Length: 1},
	}

	freqs := Frequencies(records)

	want := []Frequency{
		{Result: dataset.Win, Length: 2, Count: 2},
		{Result: dataset.Win, Length: 5, Count: 1},
		{Result: dataset.Loss, Length: 1, Count: 1},
		{Result: dataset.Draw, Length: 1, Count: 1},
	}
	if len(freqs) != len(want) {
		t.Fatalf("Frequencies() returned %d entries, want %d", len(freqs), len(want))
	}
	for i, w := range want {
		if freqs[i] != w {
			t.Errorf("entry %d = %+v, want %+v", i, freqs[i], w)
		}
	}
}

func TestMerge(t *testing.T) {
	tables := map[string][]Frequency{
		"hikaru":        {{Result: dataset.Win, Length: 3, Count: 4}},
		"magnuscarlsen": {{Result: dataset.Win, Length: 2, Count: 7}, {Result: dataset.Loss, Length: 1, Count: 5}},
	}

	rows := Merge([]string{"hikaru", "magnuscarlsen"}, tables)

	if len(rows) != 3 {
		t.Fatalf("Merge() returned %d rows, want 3", len(rows))
	}
	if rows[0].Player != "hikaru" || rows[0].Frequency != 4 {
		t.Errorf("first row = %+v", rows[0])
	}
	if rows[1].Player != "magnuscarlsen" || rows[1].Length != 2 {
		t.Errorf("second row = %+v", rows[1])
	}
}

func TestLongest(t *testing.T) {
	records := []Record{
		{Result: dataset.Win, Length: 2, Start: 1, End: 2},
		{Result: dataset.Loss, Length: 4, Start: 3, End: 6},
		{Result: dataset.Win, Length: 9, Start: 7, End: 15},
	}

	if got := Longest(records, dataset.Win); got.Length != 9 || got.Start != 7 {
		t.Errorf("Longest(win) = %+v, want length 9 starting at 7", got)
	}
	if got := Longest(records, dataset.Draw); got.Length != 0 {
		t.Errorf("Longest(draw) = %+v, want zero record", got)
	}
}
