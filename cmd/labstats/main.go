// Package main is the entry point for the labstats CLI. It runs the same
// person, project and lab lookups as the API server and manages the
// postgres profile catalog.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/helixir/lab-stats-service/internal/config"
	"github.com/helixir/lab-stats-service/internal/observability"
)

// version is set at build time via ldflags.
var version = "dev"

// cliState carries what PersistentPreRunE prepares for every subcommand.
type cliState struct {
	cfg    *config.Config
	logger zerolog.Logger
}

var state cliState

var rootCmd = &cobra.Command{
	Use:     "labstats",
	Short:   "Publication statistics for the lab dashboard",
	Version: version,
	Long: `labstats queries HAL and DBLP for researcher, project and lab publication
statistics, using the same configuration as the API server (config.yaml and
LABSTATS_* environment variables).

Results are printed as tables, or as the API's JSON with --json.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadFile(cfgFile)
		if err != nil {
			return err
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		logCfg := cfg.Logging
		logCfg.Output = "stderr"
		logCfg.Format = "console"
		if !verbose {
			logCfg.Level = "warn"
		}

		state = cliState{cfg: cfg, logger: observability.NewLogger(logCfg, observability.ProcessCLI)}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.yaml, ./config/config.yaml or /etc/lab-stats-service/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at the configured level instead of warn")
	rootCmd.PersistentFlags().Bool("json", false, "print results as JSON")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
