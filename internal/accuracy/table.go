package accuracy

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

var tableHeader = []string{"id", "white_accuracy", "black_accuracy"}

// LoadProcessed reads the accuracy table at path and returns the set of
// game IDs already scored. A missing file yields an empty set.
func LoadProcessed(path string) (map[int]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[int]struct{}{}, nil
		}
		return nil, fmt.Errorf("opening accuracy table: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return map[int]struct{}{}, nil
		}
		return nil, fmt.Errorf("reading accuracy table header: %w", err)
	}

	processed := make(map[int]struct{})
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading accuracy table: %w", err)
		}
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("parsing game ID %q: %w", row[0], err)
		}
		processed[id] = struct{}{}
	}
	return processed, nil
}

// Append writes one score to the table at path, creating the file with
// a header row on first use.
func Append(path string, score GameScore) error {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening accuracy table: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if isNew {
		if err := cw.Write(tableHeader); err != nil {
			return fmt.Errorf("writing accuracy table header: %w", err)
		}
	}
	row := []string{
		strconv.Itoa(score.GameID),
		strconv.FormatFloat(score.WhiteAccuracy, 'f', -1, 64),
		strconv.FormatFloat(score.BlackAccuracy, 'f', -1, 64),
	}
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("writing accuracy table row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing accuracy table: %w", err)
	}
	return nil
}

// LoadTable reads all scores from the table at path, in file order.
func LoadTable(path string) ([]GameScore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening accuracy table: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("reading accuracy table header: %w", err)
	}

	var scores []GameScore
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading accuracy table: %w", err)
		}
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("parsing game ID %q: %w", row[0], err)
		}
		white, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing white accuracy %q: %w", row[1], err)
		}
		black, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing black accuracy %q: %w", row[2], err)
		}
		scores = append(scores, GameScore{GameID: id, WhiteAccuracy: white, BlackAccuracy: black})
	}
	return scores, nil
}
