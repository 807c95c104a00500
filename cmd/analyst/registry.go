// cmd/analyst/registry.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"workforce-analyst/pkg/registry"
)

var registryPath string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the activity registry",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the activity registry for missing schemas and duplicate task types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("registry invalid: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registry %s valid: %d activities\n", reg.Version, len(reg.Activities))
		return nil
	},
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered task types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		for _, a := range reg.Activities {
			fmt.Fprintf(cmd.OutOrStdout(), "%-22s %-12s %s\n", a.TaskType, a.ImplementationStatus, a.Description)
		}
		return nil
	},
}

func init() {
	registryCmd.PersistentFlags().StringVar(&registryPath, "path", "", "registry file (default: embedded registry)")
	registryCmd.AddCommand(registryValidateCmd, registryListCmd)
}

func loadRegistry() (*registry.ActivityRegistry, error) {
	if registryPath != "" {
		return registry.LoadRegistry(registryPath)
	}
	return registry.Default()
}
