package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/aretw0/deepstock/internal/cli"
	"github.com/aretw0/deepstock/internal/presentation/tui"
	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/render"
)

var researchCmd = &cobra.Command{
	Use:   "research <ticker or company>",
	Short: "Generate a research memo and print it",
	Long: `Generates a single memo for the given subject and writes it to stdout.

Formats:
- text (default): styled terminal text
- markdown: normalized markdown
- glamour: markdown rendered for the terminal
- json: the full request state
- blocks: the structured content blocks as JSON`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		engine, cleanup, err := cli.NewEngine(sigCtx, cfg, cli.EngineOptions{Logger: logger})
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Context(sigCtx)
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		st, err := engine.Research(ctx, strings.Join(args, " "))
		var genErr *domain.GenerationError
		switch {
		case errors.As(err, &genErr) && genErr.Kind == domain.ErrorMissingCredential:
			cli.PrintSystemMessage(cmd.ErrOrStderr(), "No Gemini API key configured. Run 'deepstock key set' or export DEEPSTOCK_API_KEY.")
			return err
		case err != nil:
			return cli.HandleExecutionError(err)
		}

		out := cmd.OutOrStdout()
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer f.Close()
			out = f
		}
		return writeMemo(out, format, st)
	},
}

func writeMemo(w io.Writer, format string, st domain.RequestState) error {
	switch format {
	case "text":
		_, err := io.WriteString(w, tui.StyledText(st.Blocks, termenv.NewOutput(w).ColorProfile()))
		return err
	case "markdown":
		_, err := io.WriteString(w, render.ToMarkdown(st.Blocks))
		return err
	case "glamour":
		r, err := tui.NewRenderer("auto", 0)
		if err != nil {
			return err
		}
		s, err := r(st.Blocks)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, s)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	case "blocks":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st.Blocks)
	}
	return fmt.Errorf("unknown format %q (text, markdown, glamour, json, blocks)", format)
}

func init() {
	rootCmd.AddCommand(researchCmd)

	researchCmd.Flags().StringP("format", "f", "text", "Output format: text, markdown, glamour, json, blocks")
	researchCmd.Flags().StringP("out", "o", "", "Write the memo to a file instead of stdout")
	researchCmd.Flags().Duration("timeout", 0, "Abort waiting after this duration (e.g. 90s)")
}
