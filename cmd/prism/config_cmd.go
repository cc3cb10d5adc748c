package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"Prism3D/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write the default configuration to the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(opts.configFile); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", opts.configFile)
			}
			if err := config.DefaultConfig().Save(opts.configFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", opts.configFile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
