package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// csvColumns is the fixed column order of the persisted dataset.
var csvColumns = []string{
	"game_id",
	"player",
	"color",
	"result",
	"white",
	"black",
	"player_elo",
	"opponent_elo",
	"elo_diff",
	"moves",
	"event",
	"place",
	"time_class",
	"eco",
	"opening",
	"termination",
	"link",
	"played_at",
}

const timeLayout = "2006-01-02 15:04:05"

// WriteCSV writes the dataset to w with a header row, one row per game,
// in dataset order.
func WriteCSV(w io.Writer, ds *Dataset) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, g := range ds.Games {
		playedAt := ""
		if !g.PlayedAt.IsZero() {
			playedAt = g.PlayedAt.UTC().Format(timeLayout)
		}
		row := []string{
			strconv.Itoa(g.ID),
			g.Player,
			string(g.Color),
			string(g.Result),
			g.WhiteName,
			g.BlackName,
			strconv.Itoa(g.PlayerElo),
			strconv.Itoa(g.OpponentElo),
			strconv.Itoa(g.EloDiff),
			strconv.Itoa(g.Moves),
			g.Event,
			g.Place,
			g.TimeClass,
			g.ECO,
			g.Opening,
			g.Termination,
			g.Link,
			playedAt,
		}
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

// ReadCSV reads a dataset previously written by WriteCSV.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if len(header) != len(csvColumns) {
		return nil, fmt.Errorf("unexpected CSV header: %d columns, want %d", len(header), len(csvColumns))
	}

	ds := &Dataset{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		g, err := rowToGame(row)
		if err != nil {
			return nil, err
		}
		if ds.Player == "" {
			ds.Player = g.Player
		}
		ds.Games = append(ds.Games, g)
	}
	return ds, nil
}

func rowToGame(row []string) (Game, error) {
	id, err := strconv.Atoi(row[0])
	if err != nil {
		return Game{}, fmt.Errorf("parsing game_id %q: %w", row[0], err)
	}
	playerElo, err := strconv.Atoi(row[6])
	if err != nil {
		return Game{}, fmt.Errorf("parsing player_elo %q: %w", row[6], err)
	}
	opponentElo, err := strconv.Atoi(row[7])
	if err != nil {
		return Game{}, fmt.Errorf("parsing opponent_elo %q: %w", row[7], err)
	}
	eloDiff, err := strconv.Atoi(row[8])
	if err != nil {
		return Game{}, fmt.Errorf("parsing elo_diff %q: %w", row[8], err)
	}
	moves, err := strconv.Atoi(row[9])
	if err != nil {
		return Game{}, fmt.Errorf("parsing moves %q: %w", row[9], err)
	}

	var playedAt time.Time
	if row[17] != "" {
		playedAt, err = time.Parse(timeLayout, row[17])
		if err != nil {
			return Game{}, fmt.Errorf("parsing played_at %q: %w", row[17], err)
		}
	}

	return Game{
		ID:          id,
		Player:      row[1],
		Color:       Color(row[2]),
		Result:      Result(row[3]),
		WhiteName:   row[4],
		BlackName:   row[5],
		PlayerElo:   playerElo,
		OpponentElo: opponentElo,
		EloDiff:     eloDiff,
		Moves:       moves,
		Event:       row[10],
		Place:       row[11],
		TimeClass:   row[12],
		ECO:         row[13],
		Opening:     row[14],
		Termination: row[15],
		Link:        row[16],
		PlayedAt:    playedAt,
	}, nil
}

// SaveCSV writes the dataset to path atomically.
func SaveCSV(path string, ds *Dataset) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating dataset file: %w", err)
	}
	if err := WriteCSV(f, ds); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing dataset file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming dataset file: %w", err)
	}
	return nil
}

// LoadCSV reads the dataset at path. Returns ErrNotFound if the file
// does not exist.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening dataset file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}
