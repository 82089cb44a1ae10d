package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phleb-loss-tracker/internal/setup"
)

func setupCmd() *cobra.Command {
	var clientConfig string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the MCP server with a desktop MCP client",
	}
	cmd.PersistentFlags().StringVar(&clientConfig, "client-config", "", "client config file (default: platform location)")

	resolve := func() (string, error) {
		if clientConfig != "" {
			return clientConfig, nil
		}
		return setup.ClientConfigPath()
	}

	var opts setup.Options
	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Add phleb to the client's mcpServers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolve()
			if err != nil {
				return err
			}
			opts.SettingsFile = configFile
			entry, err := setup.Register(path, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s in %s\n  command: %s %v\n", setup.ServerName, path, entry.Command, entry.Args)
			fmt.Fprintln(cmd.OutOrStdout(), "Restart the client to pick up the change.")
			return nil
		},
	}
	installCmd.Flags().StringVar(&opts.BinaryPath, "binary", "", "phleb binary to launch (default: this executable)")
	installCmd.Flags().StringVar(&opts.DataDir, "data-dir", "", "data directory passed to the server")

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove phleb from the client's mcpServers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolve()
			if err != nil {
				return err
			}
			removed, err := setup.Unregister(path)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to remove.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", setup.ServerName, path)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolve()
			if err != nil {
				return err
			}
			status, err := setup.CheckStatus(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Client config: %s\n", status.ConfigPath)
			fmt.Fprintf(out, "Registered:    %t\n", status.Registered)
			if status.Registered {
				fmt.Fprintf(out, "Command:       %s %v\n", status.Entry.Command, status.Entry.Args)
			}
			fmt.Fprintf(out, "Data dir:      %s\n", status.DataDir)
			for _, issue := range status.Issues {
				fmt.Fprintf(out, "  - %s\n", issue)
			}
			return nil
		},
	}

	cmd.AddCommand(installCmd, removeCmd, statusCmd)
	return cmd
}
