package main

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline for the configured players",
	Long: `Run every stage in order for each player: fetch archives, build the
consolidated dataset, derive the streak tables, score accuracy (when
an engine is configured), render plots and publish the dashboard
table. Stages whose outputs already exist are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		return pipe.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
