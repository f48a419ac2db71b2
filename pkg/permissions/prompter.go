package permissions

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Operation is the kind of access being requested.
type Operation int

const (
	OpFileRead Operation = iota
	OpFileWrite
	OpCommandExec
)

func (op Operation) String() string {
	switch op {
	case OpFileRead:
		return "Read file"
	case OpFileWrite:
		return "Write file"
	case OpCommandExec:
		return "Execute command"
	}
	return "Operation"
}

// Decision is the user's answer to a permission prompt. The zero value
// is a denial, so failed or empty input denies.
type Decision int

const (
	DecisionDeny Decision = iota
	DecisionAllowOnce
	DecisionAllowAlways
)

// Prompter asks the user to approve one operation on one target.
type Prompter interface {
	Ask(ctx context.Context, target string, op Operation) Decision
}

// CLIPrompter reads a 1/2/3 choice from a terminal.
type CLIPrompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func NewCLIPrompter(in io.Reader, out io.Writer) *CLIPrompter {
	return &CLIPrompter{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

func (p *CLIPrompter) Ask(ctx context.Context, target string, op Operation) Decision {
	fmt.Fprintf(p.out, "\n⚠ Permission request\n%s: %s\n", op, target)
	fmt.Fprintln(p.out, "This operation is outside your project permissions.")
	fmt.Fprintln(p.out, "  1. Yes, this once")
	fmt.Fprintln(p.out, "  2. Yes, always (save to .parley/config.json)")
	fmt.Fprintln(p.out, "  3. No, deny this operation")
	fmt.Fprint(p.out, "Enter choice [3]: ")

	if ctx.Err() != nil {
		return DecisionDeny
	}
	if !p.scanner.Scan() {
		fmt.Fprintln(p.out)
		return DecisionDeny
	}

	switch strings.TrimSpace(p.scanner.Text()) {
	case "1":
		return DecisionAllowOnce
	case "2":
		return DecisionAllowAlways
	default:
		return DecisionDeny
	}
}
