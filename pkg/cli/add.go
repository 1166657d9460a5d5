package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recadm/recadm/pkg/cli/internal/output"
	"github.com/recadm/recadm/pkg/record"
)

var (
	addName   string
	addNote   string
	addFields []string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new record",
	Long: `Create a record from the given fields. Blank values are omitted from
the payload; the server assigns id and createdAt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := record.NewFields()
		if v := strings.TrimSpace(addName); v != "" {
			fields.Set("name", v)
		}
		if v := strings.TrimSpace(addNote); v != "" {
			fields.Set("note", v)
		}
		extra, err := parseFieldFlags(addFields)
		if err != nil {
			return err
		}
		for _, k := range extra.Keys() {
			v, _ := extra.Get(k)
			fields.Set(k, v)
		}
		if fields.Len() == 0 {
			return fmt.Errorf("nothing to create: all fields are blank")
		}

		rec, err := newClient().Create(cmd.Context(), fields)
		if err != nil {
			return err
		}

		if jsonOutput {
			return output.JSON(rec)
		}
		fmt.Printf("created record %s\n", rec.ID)
		return nil
	},
}

// parseFieldFlags turns repeated --field key=value flags into a field
// mapping. Blank values are dropped, reserved names rejected.
func parseFieldFlags(pairs []string) (record.Fields, error) {
	fields := record.NewFields()
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return record.Fields{}, fmt.Errorf("invalid --field %q: want key=value", pair)
		}
		if record.IsReserved(key) {
			return record.Fields{}, fmt.Errorf("field name %q is reserved", key)
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		fields.Set(key, value)
	}
	return fields, nil
}

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "Value for the name field")
	addCmd.Flags().StringVar(&addNote, "note", "", "Value for the note field")
	addCmd.Flags().StringArrayVar(&addFields, "field", nil, "Additional field as key=value (repeatable)")
	rootCmd.AddCommand(addCmd)
}
