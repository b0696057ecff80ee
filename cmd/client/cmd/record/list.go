// cmd/client/cmd/record/list.go
package record

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fieldsync/cmd/client/cmd/types"
	"fieldsync/internal/app/client"
	"fieldsync/internal/domain/submission"
)

var (
	listFormat string
	listRemote bool
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submissions waiting to sync",
	Long: `Shows the pending queue in the order records will reach the server.
With --remote the server's view of the account is listed instead.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("app is not initialized")
		}

		if listRemote {
			return printRemote(cmd.Context(), app)
		}

		records, err := app.PendingSubmissions()
		if err != nil {
			return fmt.Errorf("list submissions: %w", err)
		}

		if listFormat == "json" {
			return printJSON(records)
		}
		return printTable(records)
	},
}

func printRemote(ctx context.Context, app *client.App) error {
	records, err := app.ServerRecords(ctx)
	if err != nil {
		return fmt.Errorf("list server records: %w", err)
	}

	if listFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("The server has no records for this account.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFORM\tCASE\tVERSION\tCREATED")
	for _, rec := range records {
		caseID := rec.CaseID
		if caseID == "" {
			caseID = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\tv%d\t%s\n",
			rec.ID, rec.FormID, caseID, rec.Version,
			rec.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func printJSON(records []*submission.Submission) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func printTable(records []*submission.Submission) error {
	if len(records) == 0 {
		fmt.Println("Nothing pending, all records are on the server.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOCAL ID\tFORM\tCASE\tSTATUS\tCAPTURED")
	for _, rec := range records {
		caseID := rec.CaseID
		if caseID == "" {
			caseID = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.LocalID, rec.FormID, caseID, rec.Status,
			rec.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func init() {
	ListCmd.Flags().StringVar(&listFormat, "format", "table", "output format: table or json")
	ListCmd.Flags().BoolVar(&listRemote, "remote", false, "list the server's records instead of the local queue")
}
