package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recadm/recadm/pkg/cli/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration and where each value came from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		type entry struct {
			Key    string `json:"key"`
			Value  string `json:"value"`
			Source string `json:"source"`
		}
		entries := []entry{
			{"apiUrl", cfg.APIURL, cfg.Sources["apiUrl"]},
			{"listen", cfg.Listen, cfg.Sources["listen"]},
			{"cacheTtl", fmt.Sprintf("%d", cfg.CacheTTL), cfg.Sources["cacheTtl"]},
			{"importRequire", strings.Join(cfg.ImportRequire, ","), cfg.Sources["importRequire"]},
			{"logLevel", cfg.LogLevel, cfg.Sources["logLevel"]},
			{"logFormat", cfg.LogFormat, cfg.Sources["logFormat"]},
		}
		if cfg.LogFile != "" {
			entries = append(entries, entry{"logFile", cfg.LogFile, cfg.Sources["logFile"]})
		}

		if jsonOutput {
			return output.JSON(entries)
		}

		w := output.Table()
		fmt.Fprintln(w, "KEY\tVALUE\tSOURCE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Key, e.Value, e.Source)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
