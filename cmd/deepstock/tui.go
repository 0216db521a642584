package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/deepstock/internal/cli"
	"github.com/aretw0/deepstock/internal/logging"
	"github.com/aretw0/deepstock/internal/presentation/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the full-screen research interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		// Stderr output would tear the alternate screen.
		if debug, _ := cmd.Flags().GetBool("debug"); !debug {
			logger = logging.NewNop()
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		engine, cleanup, err := cli.NewEngine(sigCtx, cfg, cli.EngineOptions{Logger: logger})
		if err != nil {
			return err
		}
		defer cleanup()

		renderer, err := tui.NewRenderer("auto", 0)
		if err != nil {
			return err
		}
		return cli.HandleExecutionError(tui.Run(sigCtx, engine, renderer))
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
