package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/discochess/streaklab/internal/accuracy"
	"github.com/discochess/streaklab/internal/checkpoint"
	"github.com/discochess/streaklab/internal/dataset"
	"github.com/discochess/streaklab/internal/upload"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline progress for each player",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(players) == 0 {
			return fmt.Errorf("at least one --player is required")
		}

		for _, player := range players {
			playerDir := filepath.Join(dataDir, player)
			fmt.Printf("%s:\n", player)

			rawFiles, _ := filepath.Glob(filepath.Join(playerDir, "raw", "*.pgn"))
			fmt.Printf("  archives fetched:   %d\n", len(rawFiles))

			m, err := dataset.ReadManifest(playerDir)
			if err != nil {
				fmt.Println("  dataset:            not built")
				continue
			}
			fmt.Printf("  dataset games:      %d (dropped %d, built %s)\n",
				m.GameCount, m.DroppedCount, m.BuiltAt.Format("2006-01-02"))

			scores, err := accuracy.LoadTable(filepath.Join(playerDir, "accuracy.csv"))
			if err != nil {
				fmt.Println("  accuracy:           not started")
			} else {
				fmt.Printf("  accuracy scored:    %d/%d\n", len(scores), m.GameCount)
			}

			cursor := checkpoint.New(filepath.Join(playerDir, "accuracy.checkpoint"))
			if id, err := cursor.Load(); err == nil {
				fmt.Printf("  checkpoint:         game %d\n", id)
			}

			if _, err := os.Stat(filepath.Join(playerDir, "tables", "frequencies.csv")); err == nil {
				fmt.Println("  tables:             built")
			} else {
				fmt.Println("  tables:             not built")
			}
		}

		if _, err := os.Stat(filepath.Join(dataDir, "dashboard.csv")); err == nil {
			fmt.Println("dashboard table:      built")
		} else {
			fmt.Println("dashboard table:      not built")
		}

		return printPublished(cmd.Context())
	},
}

// printPublished lists artifacts at the configured upload destination,
// when one is configured and supports listing.
func printPublished(ctx context.Context) error {
	uploader, err := newUploader()
	if err != nil || uploader == nil {
		return err
	}
	defer uploader.Close()

	lister, ok := uploader.(upload.Lister)
	if !ok {
		return nil
	}
	names, err := lister.List(ctx)
	if err != nil {
		return fmt.Errorf("listing published artifacts: %w", err)
	}
	fmt.Printf("published artifacts:  %d\n", len(names))
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
