package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kevintanjc/bleep/gate"
)

var originalsUnlock bool

var originalsCmd = &cobra.Command{
	Use:   "originals",
	Short: "List the originals directory while a session is unlocked",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.OriginalsDir == "" {
			return errors.New("no originals directory configured (set BLEEP_ORIGINALS_DIR)")
		}
		a, err := openApp(cmd.Context(), cfg, terminalPrompter(cmd, cfg.Reason))
		if err != nil {
			return err
		}
		defer a.Close()

		a.manager.Restore(cmd.Context())
		g := gate.New(a.manager, gate.WithReason(cfg.Reason))
		if originalsUnlock && !g.Allowed() {
			g.Unlock(cmd.Context())
		}

		err = g.Guard(cmd.Context(), func(context.Context) error {
			entries, err := os.ReadDir(cfg.OriginalsDir)
			if err != nil {
				return err
			}
			for _, e := range entries {
				name := e.Name()
				if e.IsDir() {
					name += "/"
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		})
		if errors.Is(err, gate.ErrLocked) {
			return fmt.Errorf("%w: run `bleep unlock` or pass --unlock", err)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(originalsCmd)
	originalsCmd.Flags().BoolVar(&originalsUnlock, "unlock", false, "Prompt to unlock first when locked")
}
