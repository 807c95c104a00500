// cmd/analyst/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "analyst",
	Short: "Workforce billing analyst",
	Long: `Answers questions about the workforce billing collection.

The serve command runs the pipeline as zeebe job workers; ask runs a single
turn from the terminal.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: configs/config.yaml)")

	rootCmd.AddCommand(serveCmd, askCmd, greetCmd, loadCmd, fixKeysCmd, registryCmd, recordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
