package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dev7ba/mempool-server/config"
	"github.com/dev7ba/mempool-server/pkgs/logger"
)

var (
	// cfg is the application config, populated by the root command's
	// PersistentPreRunE before any subcommand runs.
	cfg *config.AppConfig

	// log is the root-level logger; subcommands derive their own module
	// logger from cfg.G().Log instead of using this directly.
	log logger.Logger
)

// rootCmd is the base command when mempool-server is called with no
// subcommand; it only loads configuration, since the program's one
// piece of real work lives under "start".
var rootCmd = &cobra.Command{
	Use:   "mempool-server",
	Short: "Mirrors a bitcoind node's mempool over a streaming HTTP API",
	Long: `mempool-server mirrors a bitcoind-compatible node's mempool in memory,
keeping it current via the node's ZMQ sequence notifications, and serves
it to downstream consumers over a small streaming HTTP API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		bootstrapLog := logger.NewLogrus("")
		loaded, err := config.Load(bootstrapLog)
		if err != nil {
			bootstrapLog.Error("failed to load configuration", "err", err)
			return err
		}
		cfg = loaded
		log = cfg.G().Log
		return nil
	},
}

// Execute runs the root command, exiting the process with a non-zero
// code on any command-level failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
}
