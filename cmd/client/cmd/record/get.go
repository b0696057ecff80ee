// cmd/client/cmd/record/get.go
package record

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fieldsync/cmd/client/cmd/types"
	"fieldsync/internal/app/client"
)

var GetCmd = &cobra.Command{
	Use:   "get <local-id>",
	Short: "Show one submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("app is not initialized")
		}

		rec, err := app.GetSubmission(args[0])
		if err != nil {
			return fmt.Errorf("get submission: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}
