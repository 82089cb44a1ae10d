package main

import (
	"github.com/spf13/cobra"

	"github.com/phleb-loss-tracker/internal/api"
	"github.com/phleb-loss-tracker/internal/mcp"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the session over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			server, err := api.NewServer(a.configManager, a.session, a.evaluator(), a.logger)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(a.logger)
			defer cancel()

			if err := server.Start(ctx); err != nil {
				return err
			}
			a.logger.Info("Server stopped")
			return nil
		},
	}
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the session as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			server, err := mcp.NewServer(a.configManager, a.session, a.evaluator(), a.logger)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(a.logger)
			defer cancel()

			if err := server.Start(ctx); err != nil {
				return err
			}
			a.logger.Info("MCP server stopped")
			return nil
		},
	}
}
