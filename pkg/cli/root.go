// Package cli implements the recadm command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/recadm/recadm/pkg/client"
	"github.com/recadm/recadm/pkg/cliconfig"
	"github.com/recadm/recadm/pkg/logging"
)

var (
	// Persistent flags available to all subcommands.
	apiURL     string
	jsonOutput bool
	logLevel   string

	// Resolved before every command run.
	cfg    *cliconfig.Config
	logger *slog.Logger

	// closeLog flushes the log file, when one is configured.
	closeLog func() error

	// Version is injected during build.
	Version = "dev"
	// Commit is injected during build.
	Commit = "none"
	// BuildDate is injected during build.
	BuildDate = "unknown"
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "recadm",
	Short: "recadm is an admin console for a remote records API",
	Long: `recadm views, searches, edits and bulk-imports schemaless records held
by a remote HTTP API. It ships a CLI and a server-rendered web dashboard
(recadm ui).

Configuration comes from flags, RECADM_* environment variables, a local
.recadmrc.yaml, or ~/.config/recadm/config.yaml, in that order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = cliconfig.LoadAll()
		if apiURL != "" {
			cfg.APIURL = apiURL
			cfg.Sources["apiUrl"] = cliconfig.SourceFlag
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
			cfg.Sources["logLevel"] = cliconfig.SourceFlag
		}

		logCfg := logging.Config{
			Level:  logging.ParseLevel(cfg.LogLevel),
			Format: logging.ParseFormat(cfg.LogFormat),
			Output: os.Stderr,
		}
		if cfg.LogFile != "" {
			var err error
			logger, closeLog, err = logging.NewWithFile(logCfg, cfg.LogFile)
			if err != nil {
				return fmt.Errorf("could not open log file: %w", err)
			}
		} else {
			logger = logging.New(logCfg)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			_ = closeLog()
		}
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Records API base URL (default: "+cliconfig.DefaultAPIURL+")")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// newClient builds a records API client from the resolved config.
func newClient() client.Client {
	return client.New(cfg.APIURL, client.WithLogger(logger))
}
