package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recadm/recadm/pkg/cli/internal/output"
	"github.com/recadm/recadm/pkg/portability"
	"github.com/recadm/recadm/pkg/record"
	"github.com/recadm/recadm/pkg/table"
)

var (
	importRequire []string
	importDryRun  bool
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Bulk-create records from a CSV file",
	Long: `Create one record per CSV row. Columns named id or createdAt are
ignored; the server assigns both. Rows missing a required field are
skipped; a failed row is reported and the rest of the batch continues.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		data, err := portability.ParseCSV(f)
		if err != nil {
			return fmt.Errorf("could not parse %s: %w", args[0], err)
		}

		require := importRequire
		if !cmd.Flags().Changed("require") {
			require = cfg.ImportRequire
		}

		if importDryRun {
			printFieldsTable(data.Header, data.Preview(20))
			fmt.Printf("\n%d row(s) would be imported (required: %v)\n", len(data.Rows), require)
			return nil
		}

		im := &portability.Importer{Client: newClient(), Require: require, Logger: logger}
		res := im.Run(cmd.Context(), data.Rows)

		if jsonOutput {
			return output.JSON(res)
		}
		fmt.Printf("import finished: %d created, %d skipped, %d failed\n", res.Created, res.Skipped, res.Failed)
		if res.Failed > 0 {
			return fmt.Errorf("%d row(s) failed to import", res.Failed)
		}
		return nil
	},
}

// printFieldsTable renders parsed CSV rows as an aligned table.
func printFieldsTable(cols []string, rows []record.Fields) {
	w := output.Table()
	for i, col := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, col)
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		for i, col := range cols {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			v, _ := row.Get(col)
			fmt.Fprint(w, table.CellString(v))
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

func init() {
	importCmd.Flags().StringSliceVar(&importRequire, "require", nil, "Fields a row must carry to be imported")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse and preview without creating anything")
	rootCmd.AddCommand(importCmd)
}
