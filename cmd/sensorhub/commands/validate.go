package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sensorhub/internal/config"
)

// NewValidateCommand creates the validate command. It checks a config file
// against the embedded schema and the semantic validation rules without
// running the pipeline.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: "Check a YAML configuration file against the configuration schema and\n" +
			"the semantic rules (known modes, formats, non-negative thresholds).\n" +
			"Reports every schema violation, not just the first.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			schemaErr := config.ValidateSchema(path)
			if schemaErr != nil {
				return schemaErr
			}

			_, loadErr := config.LoadConfig(path)
			if loadErr != nil {
				return loadErr
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: configuration is valid\n", path)

			return nil
		},
	}
}
