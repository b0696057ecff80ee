// cmd/client/cmd/form/fetch.go
package form

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fieldsync/cmd/client/cmd/types"
	"fieldsync/internal/app/client"
)

var fetchProjectID string

var FetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Refresh the local form cache from the server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("app is not initialized")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		forms, err := app.FetchForms(ctx, fetchProjectID)
		if err != nil {
			return fmt.Errorf("fetch forms: %w", err)
		}

		fmt.Printf("Cached %d form(s).\n", len(forms))
		return nil
	},
}

func init() {
	FetchCmd.Flags().StringVarP(&fetchProjectID, "project", "p", "", "only fetch forms of this project")
}
