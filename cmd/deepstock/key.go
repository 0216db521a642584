package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/deepstock"
	"github.com/aretw0/deepstock/internal/cli"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the stored Gemini API key",
}

// withEngine runs fn against an engine built from the command's configuration.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, engine *deepstock.Engine) error) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	sigCtx := cli.NewSignalContext(cmd.Context())
	defer sigCtx.Cancel()

	engine, cleanup, err := cli.NewEngine(sigCtx, cfg, cli.EngineOptions{Logger: logger})
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(sigCtx, engine)
}

var keySetCmd = &cobra.Command{
	Use:   "set [value]",
	Short: "Store a new API key (prompted without echo when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value string
		if len(args) == 1 {
			value = args[0]
		} else {
			v, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			value = v
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return errors.New("empty key; use 'deepstock key clear' to remove the stored key")
		}

		return withEngine(cmd, func(ctx context.Context, engine *deepstock.Engine) error {
			if err := engine.SetCredential(ctx, value); err != nil {
				return err
			}
			cli.PrintSystemMessage(cmd.OutOrStdout(), "Key saved (%s).", engine.Credential().Masked())
			return nil
		})
	},
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show whether a key is configured, masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, engine *deepstock.Engine) error {
			cred := engine.Credential()
			if !cred.IsSet() {
				cli.PrintSystemMessage(cmd.OutOrStdout(), "No key configured.")
				return nil
			}
			cli.PrintSystemMessage(cmd.OutOrStdout(), "Key: %s", cred.Masked())
			return nil
		})
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the stored key",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, engine *deepstock.Engine) error {
			if err := engine.SetCredential(ctx, ""); err != nil {
				return err
			}
			cli.PrintSystemMessage(cmd.OutOrStdout(), "Key cleared.")
			return nil
		})
	},
}

var keyVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the key with a minimal Gemini request",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, engine *deepstock.Engine) error {
			reply, err := engine.Gemini().Verify(ctx, engine.Credential())
			if err != nil {
				return fmt.Errorf("key verification failed: %w", err)
			}
			cli.PrintSystemMessage(cmd.OutOrStdout(), "Key OK (model %s replied %q).", engine.Gemini().Model(), strings.TrimSpace(reply))
			return nil
		})
	},
}

// readSecret prompts on a terminal without echo, or reads one line from piped input.
func readSecret(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Gemini API key: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read key: %w", err)
	}
	return line, nil
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keySetCmd, keyShowCmd, keyClearCmd, keyVerifyCmd)
}
