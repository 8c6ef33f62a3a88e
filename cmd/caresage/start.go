package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/veldt-labs/caresage/pkg/log"
	"github.com/veldt-labs/caresage/pkg/srv"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the CareSage assistant",
	Long:  `Initializes storage, the language model provider, the knowledge gateway, and the chat transport, then runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting caresage")

		services := NewServices(ctx)

		srv.StartServices(ctx, services)

		// Wait for shutdown signal
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("caresage has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
