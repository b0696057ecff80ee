// cmd/client/cmd/run.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldsync/internal/app/client"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync agent in the foreground",
	Long: `Keeps the client alive: probes connectivity, syncs on reconnect and
on a fixed interval, and prints status transitions until interrupted.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		dispose := app.SubscribeStatus(func(st client.Status) {
			line := fmt.Sprintf("status=%s online=%v pending=%d",
				st.SyncStatus, st.IsOnline, st.PendingCount)
			if st.Progress != nil {
				line += fmt.Sprintf(" progress=%d/%d", st.Progress.Done, st.Progress.Total)
			}
			fmt.Println(line)
		})
		defer dispose()

		return app.Run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
