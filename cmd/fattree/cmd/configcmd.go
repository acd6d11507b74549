package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/fattree/config"
)

func newConfigCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or save the effective scenario configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if envKeys, _ := cmd.Flags().GetBool("env-keys"); envKeys {
				for _, k := range config.EnvKeys() {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}

				return nil
			}

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			if output != "" {
				return cfg.WriteToFile(output)
			}

			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			defer encoder.Close()

			return encoder.Encode(cfg)
		},
	}

	addScenarioFlags(cmd)
	cmd.Flags().StringP("output", "o", "",
		"write to a .yaml, .yml, or .json file instead of the terminal")
	cmd.Flags().Bool("env-keys", false,
		"list the environment variables that are read")

	return cmd
}
