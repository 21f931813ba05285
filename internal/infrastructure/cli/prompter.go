package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Bardin08/docify/internal/ports"
)

// Prompter asks the user to confirm switching to a fallback provider.
type Prompter struct {
	in  io.Reader
	out io.Writer
}

// NewPrompter creates a Prompter; nil readers/writers default to stdio.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{in: in, out: out}
}

// ConfirmFallback implements ports.Confirmer.
func (p *Prompter) ConfirmFallback(from, to string) (bool, error) {
	fmt.Fprintf(p.out, "Provider %q is failing repeatedly. Switch to fallback %q? [y/N]: ", from, to)
	reader := bufio.NewReader(p.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// autoDecline is used in non-interactive runs: fallback is never taken.
type autoDecline struct{}

func (autoDecline) ConfirmFallback(string, string) (bool, error) { return false, nil }

var (
	_ ports.Confirmer = (*Prompter)(nil)
	_ ports.Confirmer = autoDecline{}
)
