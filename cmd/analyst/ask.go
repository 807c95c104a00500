// cmd/analyst/ask.go
package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Run one conversation turn and print the response",
	Example: `  analyst ask "Show me all 3P employees billed as 2P"
  analyst ask --json "Calculate total profit for the organization"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full turn record as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := a.pipeline(ctx)
	if err != nil {
		return err
	}

	out, err := h.handleUserMessage.HandleUserMessage(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if askJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.Response)
	return nil
}
