package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/dev7ba/mempool-server/metrics"
	"github.com/dev7ba/mempool-server/node"
)

var metricsAddr string

// startCmd launches the mempool mirror and blocks until shutdown.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start mirroring the node's mempool and serve it over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		l := cfg.G().Log.Module("main")

		if metricsAddr != "" {
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", metrics.Handler())
				if err := http.ListenAndServe(metricsAddr, mux); err != nil {
					l.Warn("metrics server stopped", "err", err)
				}
			}()
		}

		n, err := node.New(cfg)
		if err != nil {
			l.Error("failed to assemble node", "err", err)
			fmt.Fprintln(os.Stderr, node.ExitMessage(err))
			os.Exit(1)
		}

		code := n.Run(context.Background())
		os.Exit(code)
		return nil
	},
}

func init() {
	startCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (disabled if empty)")
}
