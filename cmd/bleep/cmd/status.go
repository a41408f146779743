package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusJSON bool

type statusOutput struct {
	Authenticated bool       `json:"isAuthenticated"`
	Method        string     `json:"method,omitempty"`
	LastAuthAt    *time.Time `json:"lastAuthAt,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	PinConfigured bool       `json:"pinConfigured"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		a.manager.Restore(cmd.Context())
		s := a.manager.Snapshot()
		st := statusOutput{
			Authenticated: s.Authenticated,
			PinConfigured: a.manager.HasPIN(cmd.Context()),
		}
		if s.Authenticated {
			last := s.LastAuthAt
			exp := s.ExpiresAt(a.manager.TTL())
			st.Method = string(s.Method)
			st.LastAuthAt = &last
			st.ExpiresAt = &exp
		}

		out := cmd.OutOrStdout()
		if statusJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}
		if st.Authenticated {
			fmt.Fprintf(out, "State:   unlocked\nMethod:  %s\nExpires: %s\n", st.Method, formatExpiry(s, a.manager.TTL()))
		} else {
			fmt.Fprintln(out, "State:   locked")
		}
		if st.PinConfigured {
			fmt.Fprintln(out, "PIN:     configured")
		} else {
			fmt.Fprintln(out, "PIN:     not set")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the status as JSON")
}
