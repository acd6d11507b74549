package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a fat-tree and print its link addresses.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			t, err := runScenario(cfg, opts.logger)
			if err != nil {
				return err
			}

			writeLinkTable(cmd.OutOrStdout(), t)

			if cfg.Record == "" {
				return nil
			}

			filename, err := recordScenario(t, cfg.Record)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recorded to %s\n", filename)

			return nil
		},
	}

	addScenarioFlags(cmd)

	return cmd
}
