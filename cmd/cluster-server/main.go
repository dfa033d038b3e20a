package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/searchktools/cluster-server/app"
	"github.com/searchktools/cluster-server/config"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster-server",
		Short: "Multi-process demo and load-test HTTP server",
		Long: `cluster-server forks one worker process per CPU. Every worker serves the
same demo and load-test endpoints on a shared port. With --mode single it
serves from one process instead.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return app.New(cfg).Run()
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// Main runs the command and returns the process exit status.
func Main() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(Main())
}
