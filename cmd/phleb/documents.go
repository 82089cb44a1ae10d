package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/phleb-loss-tracker/internal/catalog"
	"github.com/phleb-loss-tracker/internal/clipboard"
)

// document describes one of the two stored JSON documents.
type document struct {
	kind        string
	export      func(a *app) ([]byte, error)
	importDoc   func(cmd *cobra.Command, a *app, data []byte) error
	reset       func(cmd *cobra.Command, a *app) error
	description string
}

var stateDocument = document{
	kind:        "state",
	description: "patient state",
	export:      func(a *app) ([]byte, error) { return a.session.ExportState() },
	importDoc: func(cmd *cobra.Command, a *app, data []byte) error {
		return a.session.ImportState(cmd.Context(), data)
	},
	reset: func(cmd *cobra.Command, a *app) error {
		return a.session.ResetState(cmd.Context())
	},
}

var configDocument = document{
	kind:        "config",
	description: "catalog",
	export:      func(a *app) ([]byte, error) { return a.session.ExportConfig() },
	importDoc: func(cmd *cobra.Command, a *app, data []byte) error {
		return a.session.ImportConfig(cmd.Context(), data)
	},
	reset: func(cmd *cobra.Command, a *app) error {
		return a.session.ResetConfig(cmd.Context())
	},
}

func stateCmd() *cobra.Command {
	return documentCmd(stateDocument)
}

func configCmd() *cobra.Command {
	cmd := documentCmd(configDocument)
	cmd.AddCommand(lintCmd())
	return cmd
}

func documentCmd(doc document) *cobra.Command {
	cmd := &cobra.Command{
		Use:   doc.kind,
		Short: fmt.Sprintf("Export, import or reset the stored %s", doc.description),
	}

	var (
		outPath string
		save    bool
	)
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: fmt.Sprintf("Print the %s as JSON", doc.description),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := doc.export(a)
			if err != nil {
				return err
			}

			if save {
				outPath = a.paths.ExportPath(doc.kind, time.Now())
			}
			if outPath == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(outPath, data, 0644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", doc.description, outPath)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "write to a file instead of stdout")
	exportCmd.Flags().BoolVar(&save, "save", false, "write a timestamped file under the data directory's exports/")

	importCmd := &cobra.Command{
		Use:   "import <file|->",
		Short: fmt.Sprintf("Replace the %s with a JSON document", doc.description),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := doc.importDoc(cmd, a, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s.\n", doc.description)
			return nil
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: fmt.Sprintf("Restore the default %s", doc.description),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := doc.reset(cmd, a); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s.\n", doc.description)
			return nil
		},
	}

	cmd.AddCommand(exportCmd, importCmd, resetCmd)
	return cmd
}

func lintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint [file]",
		Short: "Report dangling references in a catalog (default: the stored one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			if len(args) == 1 {
				raw, err := readInput(args[0])
				if err != nil {
					return err
				}
				data = raw
			} else {
				a, err := openApp(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()
				if data, err = a.session.ExportConfig(); err != nil {
					return err
				}
			}

			cfg, err := catalog.DecodeImport(data)
			if err != nil {
				return err
			}

			diagnostics := catalog.Lint(cfg)
			for _, d := range diagnostics {
				fmt.Fprintln(cmd.OutOrStdout(), d.String())
			}
			if len(diagnostics) > 0 {
				return fmt.Errorf("%d problem(s) found", len(diagnostics))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "No problems found.")
			return nil
		},
	}
}

func copyCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "copy [state|config]",
		Short:     "Copy the exported state or catalog JSON to the system clipboard",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"state", "config"},
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := stateDocument
			if len(args) == 1 && args[0] == "config" {
				doc = configDocument
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := doc.export(a)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), clipboard.NewCopier(a.logger).Copy(string(data)))
			return nil
		},
	}
}
