package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kevintanjc/bleep/api"
	"github.com/kevintanjc/bleep/gate"
)

var (
	auditLimit int
	auditJSON  bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent unlock and PIN events recorded by the server",
	Long: `Lists the audit trail written by "bleep serve", newest first.
The history is only shown while a session is unlocked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		a.manager.Restore(cmd.Context())
		g := gate.New(a.manager)
		err = g.Guard(cmd.Context(), func(context.Context) error {
			entries, err := api.ListAuditEntries(a.repo)
			if err != nil {
				return err
			}
			if auditLimit > 0 && len(entries) > auditLimit {
				entries = entries[:auditLimit]
			}
			out := cmd.OutOrStdout()
			if auditJSON {
				return json.NewEncoder(out).Encode(entries)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tEVENT\tDETAIL\tREMOTE")
			for _, e := range entries {
				detail := e.Method
				if e.Reason != "" {
					detail = e.Reason
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.CreatedAt.Local().Format(time.DateTime), e.Event, detail, e.RemoteAddr)
			}
			return tw.Flush()
		})
		if errors.Is(err, gate.ErrLocked) {
			return fmt.Errorf("%w: run `bleep unlock` first", err)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "Show at most this many entries (0 for all)")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Print entries as JSON")
}
