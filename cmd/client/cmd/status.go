// cmd/client/cmd/status.go
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fieldsync/internal/app/client"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity and sync state",
	Long: `Prints the status strip a UI would render: online or offline, the
sync state, how many records are still pending and how much of the
local storage quota is used.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		st := app.Status()

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}

		printStatus(st)
		return nil
	},
}

func printStatus(st client.Status) {
	if st.IsOnline {
		color.Green("Connection:  online")
	} else {
		color.Red("Connection:  offline")
	}

	switch st.SyncStatus {
	case client.SyncSyncing:
		if st.Progress != nil {
			color.Cyan("Sync:        syncing (%d/%d)", st.Progress.Done, st.Progress.Total)
		} else {
			color.Cyan("Sync:        syncing")
		}
	case client.SyncSuccess:
		color.Green("Sync:        success")
	case client.SyncError:
		color.Red("Sync:        error")
	case client.SyncConflict:
		color.Yellow("Sync:        conflict (%d unresolved)", len(st.Conflicts))
	case client.SyncOffline:
		color.Red("Sync:        offline")
	default:
		fmt.Println("Sync:        idle")
	}

	fmt.Printf("Pending:     %d record(s)\n", st.PendingCount)

	if !st.LastSyncTime.IsZero() {
		fmt.Printf("Last sync:   %s\n", st.LastSyncTime.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Last sync:   never")
	}

	if st.StorageInfo != nil {
		fmt.Printf("Storage:     %.1f%% of %d MB used\n",
			st.StorageInfo.UsagePercent,
			st.StorageInfo.Quota/(1024*1024))
	}
}
