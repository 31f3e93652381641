package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"threadpool/app"
)

type options struct {
	configPath string
	poolSize   int
}

func bindFlags(fs *flag.FlagSet, o *options) {
	fs.StringVarP(&o.configPath, "config", "c", "", "path to YAML config (default: built-in demo config)")
	fs.IntVarP(&o.poolSize, "pool-size", "n", 0, "override pool.size from the config")
}

func newRootCmd() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "threadpool",
		Short: "Run a demo workload on a fixed-size worker pool",
		Long: `threadpool starts a fixed-size worker pool and feeds it sleeping demo tasks
from one or more rate-limited producers. On completion or SIGINT/SIGTERM the pool
is closed gracefully: every submitted task runs before the process exits.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("pool-size") && o.poolSize < 1 {
				return fmt.Errorf("--pool-size must be at least 1, got %d", o.poolSize)
			}
			return app.Run(cmd.Context(), o.configPath, app.Overrides{PoolSize: o.poolSize})
		},
	}
	bindFlags(cmd.Flags(), o)

	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
