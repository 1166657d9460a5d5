package cli

import (
	"github.com/spf13/cobra"

	"github.com/recadm/recadm/pkg/cliconfig"
	"github.com/recadm/recadm/pkg/dashboard"
)

var uiListen string

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Serve the web dashboard",
	Long: `Serve the server-rendered dashboard: KPI cards, a searchable and
editable record table, an add form, and CSV import/export.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen := uiListen
		if listen == "" {
			listen = cfg.Listen
		}

		srv, err := dashboard.New(dashboard.Config{
			Client:        newClient(),
			APIURL:        cfg.APIURL,
			CacheTTL:      cfg.CacheTTLDuration(),
			ImportRequire: cfg.ImportRequire,
			Logger:        logger,
		})
		if err != nil {
			return err
		}
		return srv.ListenAndServe(listen)
	},
}

func init() {
	uiCmd.Flags().StringVar(&uiListen, "listen", "", "Dashboard listen address (default: "+cliconfig.DefaultListen+")")
	rootCmd.AddCommand(uiCmd)
}
