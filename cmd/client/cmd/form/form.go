package form

import (
	"github.com/spf13/cobra"
)

// FormCmd is the parent for form schema operations.
var FormCmd = &cobra.Command{
	Use:   "form",
	Short: "Form schemas",
	Long: `Fetch and browse the form schemas captured submissions are
validated against. Fetched forms are cached for offline use.`,
}
