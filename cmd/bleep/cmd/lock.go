package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:     "lock",
	Aliases: []string{"signout"},
	Short:   "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		a.manager.Lock(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Locked")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lockCmd)
}
