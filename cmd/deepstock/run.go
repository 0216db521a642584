package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/deepstock/internal/cli"
	"github.com/aretw0/deepstock/internal/presentation/tui"
	"github.com/aretw0/deepstock/pkg/runner"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive research prompt",
	Long: `Starts a line-oriented session: type a ticker or company name to research it.
Commands: :key <value>, :clear-key, :state, :help, :quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")

		// The runner owns interrupt handling: Ctrl+C detaches a wait, at the prompt it exits.
		ctx := cmd.Context()

		engine, cleanup, err := cli.NewEngine(ctx, cfg, cli.EngineOptions{Logger: logger})
		if err != nil {
			return err
		}
		defer cleanup()

		var handler runner.IOHandler
		if jsonMode {
			handler = runner.NewJSONHandler(os.Stdin, cmd.OutOrStdout())
		} else {
			tui.PrintBanner(cmd.OutOrStdout())
			var opts []runner.TextHandlerOption
			if r, err := tui.NewRenderer("auto", 0); err == nil {
				opts = append(opts, runner.WithTextHandlerRenderer(r))
			}
			handler = runner.NewTextHandler(os.Stdin, cmd.OutOrStdout(), opts...)
		}

		r := runner.NewRunner(
			runner.WithLogger(logger),
			runner.WithInputHandler(handler),
		)
		return cli.HandleExecutionError(r.Run(ctx, engine))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
}
