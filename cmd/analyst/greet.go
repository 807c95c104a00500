// cmd/analyst/greet.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	hum "workforce-analyst/internal/workers/billing-analyst/handle-user-message"
)

var greetCmd = &cobra.Command{
	Use:   "greet",
	Short: "Print the session-start greeting",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), hum.Greeting())
	},
}
