package cli

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/spf13/cobra"

	"github.com/recadm/recadm/pkg/cli/internal/output"
	"github.com/recadm/recadm/pkg/record"
	"github.com/recadm/recadm/pkg/table"
)

var (
	listQuery  string
	listWhere  string
	listSelect string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List records, with optional filtering and projection",
	Long: `List all records from the API.

--query matches a substring against every field, case-insensitively.
--where applies a boolean expression over field names, e.g. 'name == "Alice"'.
--select applies a JSONPath projection over the result, e.g. '$[*].name'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := table.Load(cmd.Context(), newClient())
		if err != nil {
			return err
		}

		records := model.Filter(listQuery)
		if listWhere != "" {
			pred, err := table.CompilePredicate(listWhere)
			if err != nil {
				return err
			}
			filtered := records[:0:0]
			for _, rec := range records {
				if pred.Match(rec) {
					filtered = append(filtered, rec)
				}
			}
			records = filtered
		}

		if listSelect != "" {
			expr, err := jp.ParseString(listSelect)
			if err != nil {
				return fmt.Errorf("invalid JSONPath %q: %w", listSelect, err)
			}
			data := make([]any, 0, len(records))
			for _, rec := range records {
				data = append(data, rec.AsMap())
			}
			return output.JSON(expr.Get(data))
		}

		if jsonOutput {
			return output.JSON(records)
		}

		printRecordTable(model.Columns(), records)
		fmt.Printf("\n%d record(s)\n", len(records))
		return nil
	},
}

// printRecordTable renders records as an aligned table.
func printRecordTable(cols []string, records []record.Record) {
	w := output.Table()
	for i, col := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, col)
	}
	fmt.Fprintln(w)

	for _, rec := range records {
		for i, col := range cols {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			switch col {
			case record.FieldID:
				fmt.Fprint(w, rec.ID)
			case record.FieldCreatedAt:
				fmt.Fprint(w, table.DisplayCreatedAt(rec))
			default:
				v, _ := rec.Fields.Get(col)
				fmt.Fprint(w, table.CellString(v))
			}
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Case-insensitive substring search over all fields")
	listCmd.Flags().StringVar(&listWhere, "where", "", "Boolean filter expression over field names")
	listCmd.Flags().StringVar(&listSelect, "select", "", "JSONPath projection over the results")
	rootCmd.AddCommand(listCmd)
}
