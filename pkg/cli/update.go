package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recadm/recadm/pkg/cli/internal/output"
	"github.com/recadm/recadm/pkg/record"
	"github.com/recadm/recadm/pkg/table"
)

var (
	updateFields   []string
	updateFromJSON string
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of an existing record",
	Long: `Update a record. --field values are merged onto the record's current
fields; a blank value overwrites the stored one. --from-json replaces the
whole field mapping with the given JSON object (use @file to read a file).
id and createdAt can never be changed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if len(updateFields) == 0 && updateFromJSON == "" {
			return fmt.Errorf("nothing to update: give --field or --from-json")
		}
		if len(updateFields) > 0 && updateFromJSON != "" {
			return fmt.Errorf("--field and --from-json are mutually exclusive")
		}

		c := newClient()
		var fields record.Fields

		if updateFromJSON != "" {
			var err error
			fields, err = fieldsFromJSONArg(updateFromJSON)
			if err != nil {
				return err
			}
		} else {
			model, err := table.Load(cmd.Context(), c)
			if err != nil {
				return err
			}
			rec, ok := model.Lookup(id)
			if !ok {
				return fmt.Errorf("record %q not found", id)
			}
			fields = rec.Fields.WithoutReserved()
			for _, pair := range updateFields {
				key, value, found := strings.Cut(pair, "=")
				key = strings.TrimSpace(key)
				if !found || key == "" {
					return fmt.Errorf("invalid --field %q: want key=value", pair)
				}
				if record.IsReserved(key) {
					return fmt.Errorf("field %q is reserved and cannot be changed", key)
				}
				fields.Set(key, value)
			}
		}

		rec, err := c.Update(cmd.Context(), id, fields)
		if err != nil {
			return err
		}

		if jsonOutput {
			return output.JSON(rec)
		}
		fmt.Printf("updated record %s\n", rec.ID)
		return nil
	},
}

// fieldsFromJSONArg parses an inline JSON object, or the contents of a
// file when the argument starts with @. Reserved members are rejected.
func fieldsFromJSONArg(arg string) (record.Fields, error) {
	data := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		var err error
		data, err = os.ReadFile(arg[1:])
		if err != nil {
			return record.Fields{}, err
		}
	}
	var fields record.Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return record.Fields{}, fmt.Errorf("invalid JSON object: %w", err)
	}
	for _, k := range fields.Keys() {
		if record.IsReserved(k) {
			return record.Fields{}, fmt.Errorf("field %q is reserved and cannot be changed", k)
		}
	}
	return fields, nil
}

func init() {
	updateCmd.Flags().StringArrayVar(&updateFields, "field", nil, "Field to set as key=value (repeatable)")
	updateCmd.Flags().StringVar(&updateFromJSON, "from-json", "", "Replace all fields with a JSON object (or @file)")
	rootCmd.AddCommand(updateCmd)
}
