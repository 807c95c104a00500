// cmd/analyst/record.go
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	apperrors "workforce-analyst/internal/common/errors"
	"workforce-analyst/internal/models"
	"workforce-analyst/internal/store"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Read and edit single records of the collection",
}

var recordGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.store.Get(ctx, args[0])
		if err != nil {
			return recordError(args[0], err)
		}
		return printRecord(cmd.OutOrStdout(), rec)
	},
}

var recordPatchCmd = &cobra.Command{
	Use:   "patch <id> <field=value>...",
	Short: "Merge fields into a record",
	Long: `Values that parse as JSON keep their type ("ARR Value=1200" stores a
number, "Possible Attrition=true" a boolean); anything else is stored as a
string. The id field cannot be changed.`,
	Example: `  analyst record patch "jane_doe_sow-12" "Billed Level=2P" "Billing Rate=12800"`,
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := store.Patch(ctx, a.store, args[0], fields)
		if err != nil {
			return recordError(args[0], err)
		}
		return printRecord(cmd.OutOrStdout(), rec)
	},
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.Delete(ctx, args[0]); err != nil {
			return recordError(args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

var recordExplainCmd = &cobra.Command{
	Use:   "explain <id>",
	Short: "Summarize a record's level mismatch, benchmark margin and dates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.store.Get(ctx, args[0])
		if err != nil {
			return recordError(args[0], err)
		}
		for _, line := range explainRecord(rec) {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	recordCmd.AddCommand(recordGetCmd, recordPatchCmd, recordDeleteCmd, recordExplainCmd)
}

// explainRecord renders the derived view of one record: the mismatch rule it
// falls under, ARR Value against the billed level's benchmark, and serial
// dates as calendar dates.
func explainRecord(rec models.Record) []string {
	name, _ := rec.String("Name")
	lines := []string{fmt.Sprintf("%s (%s)", name, rec.ID())}

	mismatch := models.ClassifyLevels(rec)
	if mismatch == models.MismatchNone {
		lines = append(lines, "level mismatch: none")
	} else {
		lines = append(lines, "level mismatch: "+string(mismatch))
	}

	billed, _ := rec.String("Billed Level")
	if arr, ok := rec.Number("ARR Value"); ok {
		if margin, ok := models.Profit(arr, billed, false); ok {
			lines = append(lines, fmt.Sprintf("ARR Value over %s benchmark: %.2f", models.ParseLevel(billed), margin))
		}
	}

	for _, f := range models.Schema() {
		if f.Type != models.FieldSerialDate {
			continue
		}
		if serial, ok := rec.Number(f.Name); ok {
			lines = append(lines, fmt.Sprintf("%s: %s", f.Name, models.FromSerial(serial).Format("2006-01-02")))
		}
	}
	return lines
}

func recordError(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NewRecordNotFoundError(id)
	}
	return apperrors.NewStoreUnavailableError(err).WithMetadata("id", id)
}

func parseAssignments(args []string) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("expected field=value, got %q", arg))
		}
		if key == models.IDField {
			return nil, apperrors.NewInvalidInputError("the id field cannot be changed")
		}
		if gjson.Valid(raw) {
			fields[key] = gjson.Parse(raw).Value()
		} else {
			fields[key] = raw
		}
	}
	return fields, nil
}

func printRecord(w io.Writer, rec models.Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
