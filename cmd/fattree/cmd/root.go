// Package cmd provides the command-line interface of fattree.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"

	"github.com/sarchlab/fattree/config"
)

type options struct {
	configFile string
	envFiles   []string
	verbose    bool

	logger *zap.Logger
}

// NewRootCommand creates the fattree command with all its subcommands.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&options{})
}

func newRootCommand(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fattree",
		Short: "Build and inspect three-tier fat-tree topologies.",
		Long: `fattree builds a fat-tree of core, aggregator, and edge nodes, ` +
			`installs protocol stacks on it, and gives every link its own ` +
			`subnet. Parameters come from defaults, a YAML or JSON file, ` +
			`.env files, FATTREE_* variables, and flags, in that order.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if opts.logger != nil {
				return nil
			}

			logger, err := newLogger(opts.verbose)
			if err != nil {
				return err
			}

			opts.logger = logger

			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = opts.logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "",
		"scenario file (.yaml, .yml, or .json)")
	flags.StringSliceVar(&opts.envFiles, "env", nil,
		"dotenv files to load (default .env if present)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"log every construction step")

	rootCmd.AddCommand(
		newBuildCommand(opts),
		newServeCommand(opts),
		newConfigCommand(opts),
	)

	return rootCmd
}

// Execute runs the root command. Registered exit handlers, such as the flush
// of recorders, run before the process exits on failure.
func Execute() {
	err := NewRootCommand().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func addScenarioFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("name", "", "name of the topology")
	flags.Int("core", 0, "number of core nodes")
	flags.Int("aggregator", 0, "number of aggregator nodes")
	flags.Int("edge", 0, "number of edge nodes per aggregator")
	flags.Bool("ipv6", false, "also assign IPv6 addresses")
	flags.String("record", "", "record the topology to <path>.sqlite3")
}

// loadConfig resolves the configuration from all the sources. Flags are only
// applied when set on the command line.
func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg := config.Default()

	if opts.configFile != "" {
		var err error

		cfg, err = config.Load(opts.configFile)
		if err != nil {
			return cfg, err
		}
	}

	if err := cfg.LoadEnv(opts.envFiles...); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()

	if flags.Changed("name") {
		cfg.Name, _ = flags.GetString("name")
	}

	if flags.Changed("core") {
		cfg.Core, _ = flags.GetInt("core")
	}

	if flags.Changed("aggregator") {
		cfg.Aggregator, _ = flags.GetInt("aggregator")
	}

	if flags.Changed("edge") {
		cfg.Edge, _ = flags.GetInt("edge")
	}

	if flags.Changed("ipv6") {
		cfg.IPv6, _ = flags.GetBool("ipv6")
	}

	if flags.Changed("record") {
		cfg.Record, _ = flags.GetString("record")
	}

	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}

	return cfg, cfg.Validate()
}
