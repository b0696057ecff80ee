// cmd/client/cmd/sync/sync.go
package sync

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fieldsync/cmd/client/cmd/types"
	"fieldsync/internal/app/client"
)

var (
	strategyName  string
	showConflicts bool
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push pending submissions to the server",
	Long: `Runs one sync pass over the pending queue, oldest record first.
Conflicts are handled by the configured strategy; with --strategy manual
the conflicting records are parked for 'fieldsync sync resolve'.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("app is not initialized")
		}

		if showConflicts {
			return printConflicts(app)
		}

		if strategyName != "" {
			if err := app.SetConflictStrategy(strategyName); err != nil {
				return err
			}
		}

		if !app.IsAuthenticated() {
			return fmt.Errorf("authentication required, run: fieldsync auth login")
		}
		if err := app.CheckConnection(); err != nil {
			return fmt.Errorf("server is unreachable: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		start := time.Now()
		summary, err := app.Sync(ctx)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		if summary.Total == 0 {
			fmt.Println("Nothing to sync.")
			return nil
		}

		fmt.Printf("Sync finished in %v\n", time.Since(start).Round(time.Millisecond))
		color.Green("  synced:    %d", summary.Synced)
		if summary.Failed > 0 {
			color.Red("  failed:    %d", summary.Failed)
		}
		if summary.Conflicts > 0 {
			color.Yellow("  conflicts: %d", summary.Conflicts)
			fmt.Println("Run 'fieldsync sync --conflicts' to inspect them.")
		}
		if summary.Skipped > 0 {
			fmt.Printf("  skipped:   %d\n", summary.Skipped)
		}

		return nil
	},
}

func printConflicts(app *client.App) error {
	conflicts := app.Conflicts()
	if len(conflicts) == 0 {
		fmt.Println("No unresolved conflicts.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOCAL ID\tFORM\tCASE\tLOCAL BASE\tSERVER VERSION\tDETECTED")
	for _, c := range conflicts {
		caseID := c.Local.CaseID
		if caseID == "" {
			caseID = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\tv%d\tv%d\t%s\n",
			c.LocalID, c.Local.FormID, caseID,
			c.Local.BaseVersion, c.Server.Version,
			c.DetectedAt.Format("2006-01-02 15:04:05"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Resolve with: fieldsync sync resolve <local-id> --keep local|server")
	return nil
}

func init() {
	SyncCmd.Flags().StringVar(&strategyName, "strategy", "", "conflict strategy: server_wins, local_wins or manual")
	SyncCmd.Flags().BoolVar(&showConflicts, "conflicts", false, "list unresolved conflicts instead of syncing")

	SyncCmd.AddCommand(ResolveCmd)
}
