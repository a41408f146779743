package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/kevintanjc/bleep/auth"
)

// LinePrompter answers PIN challenges from a line-oriented stream, for
// pipes and scripts where a terminal UI is not available.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) PresentPIN(e auth.PinEntry) {
	p.present(e)
}

func (p *LinePrompter) present(e entry) {
	fmt.Fprint(p.out, "PIN: ")
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		e.Cancel()
		return
	}
	ok, err := e.Submit(context.Background(), strings.TrimSpace(line))
	switch {
	case err != nil:
		fmt.Fprintln(p.out, "PIN request no longer pending")
	case !ok:
		fmt.Fprintln(p.out, "Incorrect PIN")
	}
}

// SecretReader reads secrets without echo from a terminal, or line by line
// from anything else.
type SecretReader struct {
	in  io.Reader
	buf *bufio.Reader
	out io.Writer
}

func NewSecretReader(in io.Reader, out io.Writer) *SecretReader {
	return &SecretReader{in: in, buf: bufio.NewReader(in), out: out}
}

// Read prints prompt and returns the entered line without its newline.
func (r *SecretReader) Read(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if f, ok := r.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(r.out)
		if err != nil {
			return "", fmt.Errorf("reading from terminal: %w", err)
		}
		return string(b), nil
	}
	line, err := r.buf.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
