package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/veldt-labs/caresage/internal/config"
	"github.com/veldt-labs/caresage/pkg/log"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "caresage",
	Short: "CareSage — a conversational health information assistant",
	Long:  `CareSage answers health questions in dialogue, grounds medication and diagnosis answers in public medical references, and remembers what you tell it across sessions.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
