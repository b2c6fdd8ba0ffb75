// Package main provides the streaklab CLI tool for retrieving,
// processing and analyzing a chess player's game history.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
