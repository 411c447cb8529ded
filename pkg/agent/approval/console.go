package approval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/entrhq/webpilot/pkg/tools"
)

// ConsoleResponder collects verdicts from an interactive terminal. Anything
// other than an explicit yes is a rejection; the typed text is carried back
// as a note so the operator can steer the agent while rejecting.
type ConsoleResponder struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsoleResponder creates a responder over the given streams.
func NewConsoleResponder(in io.Reader, out io.Writer) *ConsoleResponder {
	return &ConsoleResponder{in: bufio.NewReader(in), out: out}
}

// Ask prints the question and batch, then blocks on one line of input.
func (r *ConsoleResponder) Ask(ctx context.Context, question string, batch []tools.Action) (Decision, error) {
	fmt.Fprintf(r.out, "\n%s\n", question)
	for _, action := range batch {
		fmt.Fprintf(r.out, "  - %s %v\n", action.Name, action.Args)
	}
	fmt.Fprint(r.out, "Approve? [y/N]: ")

	type lineResult struct {
		text string
		err  error
	}
	lines := make(chan lineResult, 1)
	go func() {
		text, err := r.in.ReadString('\n')
		lines <- lineResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	case line := <-lines:
		if line.err != nil && strings.TrimSpace(line.text) == "" {
			return Reject("input closed"), nil
		}
		answer := strings.TrimSpace(line.text)
		switch strings.ToLower(answer) {
		case "y", "yes":
			return Decision{Approved: true}, nil
		case "", "n", "no":
			return Reject("rejected by operator"), nil
		default:
			return Reject(answer), nil
		}
	}
}
