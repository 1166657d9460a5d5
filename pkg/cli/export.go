package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recadm/recadm/pkg/portability"
	"github.com/recadm/recadm/pkg/table"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all records as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := table.Load(cmd.Context(), newClient())
		if err != nil {
			return err
		}

		w := os.Stdout
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		if err := portability.ExportCSV(w, model.Records()); err != nil {
			return err
		}
		if w != os.Stdout {
			fmt.Fprintf(os.Stderr, "exported %d record(s) to %s\n", model.Total(), exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write CSV to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
