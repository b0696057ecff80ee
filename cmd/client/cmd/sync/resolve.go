// cmd/client/cmd/sync/resolve.go
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fieldsync/cmd/client/cmd/types"
	"fieldsync/internal/app/client"
)

var (
	keepSide   string
	mergedData string
)

var ResolveCmd = &cobra.Command{
	Use:   "resolve <local-id>",
	Short: "Settle one parked conflict",
	Long: `Decides a conflict left by manual strategy. --keep local pushes the
device's answers over the server record; --keep server adopts the
server record and discards the local answers; --data submits a
hand-merged payload (JSON object, inline or @file) as authoritative.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("app is not initialized")
		}

		data, err := resolutionData(app, args[0])
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := app.ResolveConflict(ctx, args[0], data); err != nil {
			return fmt.Errorf("resolve conflict: %w", err)
		}

		fmt.Printf("Conflict %s resolved.\n", args[0])
		return nil
	},
}

func resolutionData(app *client.App, localID string) (map[string]any, error) {
	if mergedData != "" {
		payload := []byte(mergedData)
		if strings.HasPrefix(mergedData, "@") {
			var err error
			payload, err = os.ReadFile(mergedData[1:])
			if err != nil {
				return nil, fmt.Errorf("read data file: %w", err)
			}
		}
		var data map[string]any
		if err := json.Unmarshal(payload, &data); err != nil {
			return nil, fmt.Errorf("merged payload must be a JSON object: %w", err)
		}
		return data, nil
	}

	switch keepSide {
	case "server":
		return nil, nil
	case "local":
		for _, c := range app.Conflicts() {
			if c.LocalID == localID {
				return c.Local.Data, nil
			}
		}
		return nil, fmt.Errorf("no pending conflict for %s", localID)
	default:
		return nil, fmt.Errorf("pass --keep local|server or --data with the merged payload")
	}
}

func init() {
	ResolveCmd.Flags().StringVar(&keepSide, "keep", "", "which side wins: local or server")
	ResolveCmd.Flags().StringVar(&mergedData, "data", "", "hand-merged answers as JSON, inline or @file")
}
