package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ConfigCommand prints the effective configuration, so that it can be
// saved and edited
func ConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the configuration resulting from --config and flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(c, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
