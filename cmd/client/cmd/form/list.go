// cmd/client/cmd/form/list.go
package form

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fieldsync/cmd/client/cmd/types"
	"fieldsync/internal/app/client"
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List locally cached form schemas",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("app is not initialized")
		}

		forms, err := app.Forms()
		if err != nil {
			return fmt.Errorf("list forms: %w", err)
		}

		if len(forms) == 0 {
			fmt.Println("No cached forms. Run: fieldsync form fetch")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPROJECT\tTITLE\tVERSION\tQUESTIONS")
		for _, f := range forms {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
				f.ID, f.ProjectID, f.Title, f.Version, len(f.Questions))
		}
		return w.Flush()
	},
}
