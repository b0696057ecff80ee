// cmd/client/cmd/init.go
package cmd

import (
	"fieldsync/cmd/client/cmd/auth"
	"fieldsync/cmd/client/cmd/form"
	"fieldsync/cmd/client/cmd/record"
	"fieldsync/cmd/client/cmd/sync"
)

func init() {
	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.RegisterCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)

	rootCmd.AddCommand(record.RecordCmd)
	record.RecordCmd.AddCommand(record.CaptureCmd)
	record.RecordCmd.AddCommand(record.ListCmd)
	record.RecordCmd.AddCommand(record.GetCmd)
	record.RecordCmd.AddCommand(record.DeleteCmd)

	rootCmd.AddCommand(form.FormCmd)
	form.FormCmd.AddCommand(form.FetchCmd)
	form.FormCmd.AddCommand(form.ListCmd)
	form.FormCmd.AddCommand(form.GetCmd)

	rootCmd.AddCommand(sync.SyncCmd)
	rootCmd.AddCommand(statusCmd)
}
