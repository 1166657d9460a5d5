package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recadm/recadm/pkg/cli/internal/output"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check if the records API is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		healthy, payload := newClient().Health(cmd.Context())

		type healthResult struct {
			Status   string         `json:"status"`
			APIURL   string         `json:"apiUrl"`
			Response map[string]any `json:"response,omitempty"`
		}
		result := healthResult{Status: "healthy", APIURL: cfg.APIURL, Response: payload}
		if !healthy {
			result.Status = "unreachable"
		}

		if jsonOutput {
			if err := output.JSON(result); err != nil {
				return err
			}
		} else if healthy {
			fmt.Println("healthy")
		} else {
			fmt.Fprintf(os.Stderr, "unreachable: %s\n", cfg.APIURL)
		}

		if !healthy {
			return errors.New("records API is not healthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
