// cmd/client/cmd/auth/login.go
package auth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fieldsync/cmd/client/cmd/types"
	"fieldsync/internal/app/client"
)

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the FieldSync server",
	Long: `Authenticates against the server and stores the session token
locally. Captured submissions that are still pending are pushed right
after a successful login.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("app is not initialized")
		}

		fmt.Print("Login: ")
		var login string
		_, _ = fmt.Scanln(&login)

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		fmt.Println()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := app.Login(ctx, login, string(password)); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		fmt.Println("Logged in.")

		if err := app.CheckConnection(); err != nil {
			fmt.Println("Server is unreachable, pending records will sync later.")
			return nil
		}

		summary, err := app.Sync(ctx)
		if err != nil {
			fmt.Printf("Warning: sync failed: %v\n", err)
			return nil
		}
		if summary.Total > 0 {
			fmt.Printf("Synced %d of %d pending records.\n", summary.Synced, summary.Total)
		}

		return nil
	},
}
