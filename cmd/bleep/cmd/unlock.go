package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kevintanjc/bleep/auth"
	"github.com/kevintanjc/bleep/internal/tui"
)

var unlockReason string

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Authenticate with biometrics or PIN and start a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		reason := cfg.Reason
		if cmd.Flags().Changed("reason") {
			reason = unlockReason
		}
		a, err := openApp(cmd.Context(), cfg, terminalPrompter(cmd, reason))
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if a.manager.Restore(cmd.Context()) {
			s := a.manager.Snapshot()
			fmt.Fprintf(out, "Already unlocked until %s\n", formatExpiry(s, a.manager.TTL()))
			return nil
		}
		if !a.manager.Authenticate(cmd.Context(), reason) {
			return errors.New("authentication failed")
		}
		s := a.manager.Snapshot()
		fmt.Fprintf(out, "Unlocked with %s until %s\n", s.Method, formatExpiry(s, a.manager.TTL()))
		return nil
	},
}

// terminalPrompter picks the bubbletea dialog on a terminal and plain lines
// otherwise, including when input was redirected with SetIn.
func terminalPrompter(cmd *cobra.Command, reason string) auth.PinPrompter {
	if cmd.InOrStdin() == io.Reader(os.Stdin) && tui.Interactive() {
		return tui.NewPrompter(reason, nil, nil)
	}
	return tui.NewLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
}

func formatExpiry(s auth.Session, ttl time.Duration) string {
	return s.ExpiresAt(ttl).Local().Format(time.TimeOnly)
}

func init() {
	rootCmd.AddCommand(unlockCmd)
	unlockCmd.Flags().StringVar(&unlockReason, "reason", "", "Reason shown in the biometric and PIN prompts (default $BLEEP_REASON)")
}
