package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/deepstock/internal/cli"
	"github.com/aretw0/deepstock/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes deepstock to AI agents as an MCP Server with a "research" tool
and the deepstock://state and deepstock://report resources.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("transport") {
			cfg.MCP.Transport, _ = cmd.Flags().GetString("transport")
		}
		if cmd.Flags().Changed("port") {
			cfg.MCP.Port, _ = cmd.Flags().GetInt("port")
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		engine, cleanup, err := cli.NewEngine(sigCtx, cfg, cli.EngineOptions{Logger: logger})
		if err != nil {
			return err
		}
		defer cleanup()

		srv := mcp.NewServer(engine, mcp.WithLogger(logger))

		switch cfg.MCP.Transport {
		case "stdio":
			// Logs already go to Stderr; Stdout carries JSON-RPC.
			logger.Info("Starting deepstock MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting deepstock MCP Server (SSE)", "port", cfg.MCP.Port)
			if err := srv.ServeSSE(sigCtx, cfg.MCP.Port); err != nil {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		}
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", cfg.MCP.Transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport type (stdio, sse)")
	mcpCmd.Flags().IntP("port", "p", 8081, "Port for SSE transport")
}
