package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/fattree/monitoring"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build a fat-tree and serve it over HTTP until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			open, _ := cmd.Flags().GetBool("open")

			m := monitoring.NewMonitor().
				WithLogger(opts.logger).
				WithPortNumber(cfg.Port).
				WithBrowser(open)

			progress := m.NewBuildProgress(
				cfg.Name, cfg.Core, cfg.Aggregator, cfg.Edge)

			t, err := runScenario(cfg, opts.logger, progress)
			if err != nil {
				return err
			}

			m.RegisterTopology(t)

			if cfg.Record != "" {
				if _, err := recordScenario(t, cfg.Record); err != nil {
					return err
				}
			}

			url, err := m.StartServer()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Monitoring %s at %s\n", t.Name(), url)

			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(
				context.Background(), shutdownTimeout)
			defer cancel()

			return m.Shutdown(shutdownCtx)
		},
	}

	addScenarioFlags(cmd)
	cmd.Flags().Int("port", 0, "port of the monitor (random if 0)")
	cmd.Flags().Bool("open", false, "open the monitor in a browser")

	return cmd
}
