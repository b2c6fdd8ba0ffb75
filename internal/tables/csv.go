package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func writeRows(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// WritePerDay writes the per-day win rate table as CSV.
func WritePerDay(w io.Writer, rows []DayRow) error {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			r.Date,
			strconv.Itoa(r.Games),
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Losses),
			strconv.Itoa(r.Draws),
			formatFloat(r.WinRate),
		}
	}
	return writeRows(w, []string{"date", "games", "wins", "losses", "draws", "win_rate"}, out)
}

// WritePerOpening writes the per-opening result table as CSV.
func WritePerOpening(w io.Writer, rows []OpeningRow) error {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			r.ECO,
			r.Opening,
			strconv.Itoa(r.Games),
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Losses),
			strconv.Itoa(r.Draws),
			formatFloat(r.WinRate),
		}
	}
	return writeRows(w, []string{"eco", "opening", "games", "wins", "losses", "draws", "win_rate"}, out)
}

// WriteStreaks writes streak values as a one-column CSV.
func WriteStreaks(w io.Writer, streaks []float64) error {
	out := make([][]string, len(streaks))
	for i, s := range streaks {
		out[i] = []string{formatFloat(s)}
	}
	return writeRows(w, []string{"streak"}, out)
}

// ReadStreaks reads a one-column streak CSV written by WriteStreaks.
func ReadStreaks(r io.Reader) ([]float64, error) {
	cr := csv.NewReader(r)
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	var streaks []float64
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		v, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing streak %q: %w", row[0], err)
		}
		streaks = append(streaks, v)
	}
	return streaks, nil
}

// WriteDetails writes the per-streak-game detail table as CSV.
func WriteDetails(w io.Writer, details []StreakGame) error {
	out := make([][]string, len(details))
	for i, d := range details {
		out[i] = []string{
			strconv.Itoa(d.GameID),
			strconv.Itoa(d.OpponentElo),
			strconv.Itoa(d.EloDiff),
		}
	}
	return writeRows(w, []string{"game_id", "opponent_elo", "elo_diff"}, out)
}

// WriteFrequencies writes the streak frequency table as CSV.
func WriteFrequencies(w io.Writer, rows []FrequencyRow) error {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{formatFloat(r.Xi), strconv.Itoa(r.Fi)}
	}
	return writeRows(w, []string{"xi", "fi"}, out)
}

// ReadFrequencies reads a frequency table written by WriteFrequencies.
func ReadFrequencies(r io.Reader) ([]FrequencyRow, error) {
	cr := csv.NewReader(r)
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	var rows []FrequencyRow
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		xi, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing xi %q: %w", row[0], err)
		}
		fi, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("parsing fi %q: %w", row[1], err)
		}
		rows = append(rows, FrequencyRow{Xi: xi, Fi: fi})
	}
	return rows, nil
}
