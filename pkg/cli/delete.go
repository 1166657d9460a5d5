package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recadm/recadm/pkg/cli/internal/output"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		var deleted, failed int
		for _, id := range args {
			if err := c.Delete(cmd.Context(), id); err != nil {
				output.Warn("delete %s: %v", id, err)
				failed++
				continue
			}
			deleted++
		}
		fmt.Printf("deleted %d record(s)\n", deleted)
		if failed > 0 {
			return fmt.Errorf("%d delete(s) failed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
