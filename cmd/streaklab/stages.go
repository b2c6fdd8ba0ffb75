package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/discochess/streaklab"
)

// runStage wires logger, pipeline and signal handling around one stage.
func runStage(stage func(ctx context.Context, pipe *streaklab.Pipeline) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		pipe, err := newPipeline(log)
		if err != nil {
			return err
		}
		defer pipe.Close()

		ctx, cancel := newContext()
		defer cancel()
		return stage(ctx, pipe)
	}
}

// forEachPlayer applies one per-player stage to every configured player.
func forEachPlayer(stage func(ctx context.Context, pipe *streaklab.Pipeline, player string) error) func(*cobra.Command, []string) error {
	return runStage(func(ctx context.Context, pipe *streaklab.Pipeline) error {
		for _, player := range pipe.Players() {
			if err := stage(ctx, pipe, player); err != nil {
				return err
			}
		}
		return nil
	})
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download monthly game archives",
	RunE: forEachPlayer(func(ctx context.Context, pipe *streaklab.Pipeline, player string) error {
		return pipe.FetchPlayer(ctx, player)
	}),
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Consolidate raw archives into per-player datasets",
	RunE: forEachPlayer(func(ctx context.Context, pipe *streaklab.Pipeline, player string) error {
		return pipe.ProcessPlayer(ctx, player)
	}),
}

var tabulateCmd = &cobra.Command{
	Use:   "tabulate",
	Short: "Derive streak and result tables from the datasets",
	RunE: forEachPlayer(func(ctx context.Context, pipe *streaklab.Pipeline, player string) error {
		return pipe.TabulatePlayer(player)
	}),
}

var accuracyCmd = &cobra.Command{
	Use:   "accuracy",
	Short: "Score move accuracy with the configured UCI engine",
	Long: `Score every unprocessed game through the engine configured with
--engine. Progress is checkpointed after each game, so an interrupted
run resumes where it left off.`,
	RunE: forEachPlayer(func(ctx context.Context, pipe *streaklab.Pipeline, player string) error {
		return pipe.AccuracyPlayer(ctx, player)
	}),
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize streak statistics and render box plots",
	RunE: forEachPlayer(func(ctx context.Context, pipe *streaklab.Pipeline, player string) error {
		return pipe.AnalyzePlayer(player)
	}),
}

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Merge players into the dashboard table and publish it",
	RunE: runStage(func(ctx context.Context, pipe *streaklab.Pipeline) error {
		return pipe.Combine(ctx)
	}),
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(tabulateCmd)
	rootCmd.AddCommand(accuracyCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(combineCmd)
}
