package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kevintanjc/bleep/auth"
	"github.com/kevintanjc/bleep/internal/tui"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage the fallback PIN",
}

var pinSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set or replace the fallback PIN",
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := tui.NewSecretReader(cmd.InOrStdin(), cmd.OutOrStdout())
		pin, err := reader.Read("New PIN (4-8 digits): ")
		if err != nil {
			return err
		}
		if err := auth.ValidatePIN(pin); err != nil {
			return err
		}
		confirm, err := reader.Read("Confirm PIN: ")
		if err != nil {
			return err
		}
		if confirm != pin {
			return errors.New("PINs do not match")
		}

		a, err := openApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.manager.SetPIN(cmd.Context(), pin); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "PIN saved")
		return nil
	},
}

var pinStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a PIN is configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.manager.HasPIN(cmd.Context()) {
			fmt.Fprintln(cmd.OutOrStdout(), "PIN configured")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No PIN set")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pinCmd)
	pinCmd.AddCommand(pinSetCmd)
	pinCmd.AddCommand(pinStatusCmd)
}
