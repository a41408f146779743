package biometric

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"regexp"
)

// ErrUnavailable is returned by Verify when no biometric hardware exists.
var ErrUnavailable = errors.New("biometric hardware unavailable")

// ReasonEnv carries the prompt reason to the verify helper.
const ReasonEnv = "BLEEP_BIOMETRIC_REASON"

// fprintd-list prints one " - #N: finger" line per enrolled print.
var fprintdEnrolled = regexp.MustCompile(`(?m)^\s*-\s*#\d+:`)

// Command is a Platform backed by external helper programs. The probe
// helper must exit 0 and, when Enrolled is set, print something matching
// it. The verify helper must exit 0 for a pass. A probe program missing
// from PATH means no hardware.
type Command struct {
	ProbeCmd  []string
	VerifyCmd []string
	Enrolled  *regexp.Regexp
}

// Fprintd returns a Command using the fprintd CLI for the current user.
func Fprintd() (*Command, error) {
	u, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("looking up current user: %w", err)
	}
	return &Command{
		ProbeCmd:  []string{"fprintd-list", u.Username},
		VerifyCmd: []string{"fprintd-verify"},
		Enrolled:  fprintdEnrolled,
	}, nil
}

func (c *Command) Probe(ctx context.Context) (bool, bool, error) {
	if len(c.ProbeCmd) == 0 || len(c.VerifyCmd) == 0 {
		return false, false, nil
	}
	if _, err := exec.LookPath(c.ProbeCmd[0]); err != nil {
		return false, false, nil
	}
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, c.ProbeCmd[0], c.ProbeCmd[1:]...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return true, false, nil
		}
		return false, false, fmt.Errorf("running %s: %w", c.ProbeCmd[0], err)
	}
	if c.Enrolled != nil && !c.Enrolled.Match(stdout.Bytes()) {
		return true, false, nil
	}
	return true, true, nil
}

func (c *Command) Verify(ctx context.Context, reason string) error {
	if len(c.VerifyCmd) == 0 {
		return ErrUnavailable
	}
	cmd := exec.CommandContext(ctx, c.VerifyCmd[0], c.VerifyCmd[1:]...)
	cmd.Env = append(os.Environ(), ReasonEnv+"="+reason)
	cmd.Stdin = os.Stdin
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", c.VerifyCmd[0], err)
	}
	return nil
}
