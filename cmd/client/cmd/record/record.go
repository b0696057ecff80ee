package record

import (
	"github.com/spf13/cobra"
)

// RecordCmd is the parent for local submission operations.
var RecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Captured submissions",
	Long: `Capture and inspect locally stored submissions. Records are
durable the moment capture returns and sync on their own once the
server is reachable.`,
}
