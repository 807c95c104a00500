// cmd/analyst/load.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"workforce-analyst/internal/store"
)

var loadCmd = &cobra.Command{
	Use:   "load <workbook.xlsx>",
	Short: "Replace the collection with the rows of a workbook",
	Long: `Reads the first sheet of the workbook, trims header names, clears the
collection and inserts one record per non-empty row.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := store.LoadWorkbookFile(ctx, a.store, args[0])
	if res != nil {
		a.log.Info("workbook loaded", map[string]interface{}{
			"sheet":    res.Sheet,
			"rows":     res.Rows,
			"inserted": res.Inserted,
			"failed":   res.Failed,
		})
		fmt.Fprintf(cmd.OutOrStdout(), "sheet %q: %d rows, %d inserted, %d failed\n", res.Sheet, res.Rows, res.Inserted, res.Failed)
	}
	return err
}

var fixKeysCmd = &cobra.Command{
	Use:   "fix-keys",
	Short: "Trim surrounding whitespace from field names of stored records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := store.TrimKeys(ctx, a.store)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d records updated\n", n)
		return nil
	},
}
