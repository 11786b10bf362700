package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all punches as CSV",
		Long: `Export all punches as "timestamp;project;description" CSV. Timestamps are
UTC, descriptions are percent-encoded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := app.Tracker(ctx)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return storeErr(t.ExportCSV(ctx, cmd.OutOrStdout()))
			}

			f, err := os.Create(output)
			if err != nil {
				return storeErr(err)
			}
			if err := t.ExportCSV(ctx, f); err != nil {
				f.Close()
				return storeErr(err)
			}
			if err := f.Close(); err != nil {
				return storeErr(err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import punches from a CSV export",
		Long:  "Import punches from a CSV export. Punches at times that already exist are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := app.Tracker(ctx)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return storeErr(err)
				}
				defer f.Close()
				r = f
			}

			res, err := t.ImportCSV(ctx, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d punches, skipped %d existing\n", res.Added, res.Skipped)
			return nil
		},
	}
}
