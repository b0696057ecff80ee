// cmd/client/cmd/record/delete.go
package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldsync/cmd/client/cmd/types"
	"fieldsync/internal/app/client"
)

var DeleteCmd = &cobra.Command{
	Use:   "delete <local-id>",
	Short: "Discard a submission that has not synced yet",
	Long: `Removes a record from the local queue. Only records the server has
never confirmed can be deleted; synced records are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("app is not initialized")
		}

		if err := app.DeleteSubmission(args[0]); err != nil {
			return fmt.Errorf("delete submission: %w", err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}
