package cli

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/spf13/cobra"

	"github.com/recadm/recadm/pkg/cli/internal/output"
	"github.com/recadm/recadm/pkg/table"
)

var getPath string

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		model, err := table.Load(cmd.Context(), newClient())
		if err != nil {
			return err
		}
		rec, ok := model.Lookup(id)
		if !ok {
			return fmt.Errorf("record %q not found", id)
		}

		if getPath != "" {
			expr, err := jp.ParseString(getPath)
			if err != nil {
				return fmt.Errorf("invalid JSONPath %q: %w", getPath, err)
			}
			return output.JSON(expr.Get(rec.AsMap()))
		}

		if jsonOutput {
			return output.JSON(rec)
		}

		w := output.Table()
		fmt.Fprintf(w, "id\t%s\n", rec.ID)
		fmt.Fprintf(w, "createdAt\t%s\n", table.DisplayCreatedAt(rec))
		for _, k := range rec.Fields.Keys() {
			v, _ := rec.Fields.Get(k)
			fmt.Fprintf(w, "%s\t%s\n", k, table.CellString(v))
		}
		return w.Flush()
	},
}

func init() {
	getCmd.Flags().StringVar(&getPath, "path", "", "JSONPath into the record, e.g. '$.name'")
	rootCmd.AddCommand(getCmd)
}
