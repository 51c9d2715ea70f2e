// Package prompt implements the operator decision port as an interactive
// console review: each close match is shown with its master-list candidates
// and the operator picks one, rejects all, or skips.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/clinicworks/visitlink/pkg/errors"
	"github.com/clinicworks/visitlink/pkg/identity"
)

// ConsoleDecider prompts an operator on a terminal. It satisfies
// identity.Decider; the pipeline blocks on each answer, which is the
// intended behavior for this single-operator batch tool.
type ConsoleDecider struct {
	in       *bufio.Scanner
	out      io.Writer
	reviewed int
}

// New creates a ConsoleDecider reading answers from in and writing the
// review dialog to out.
func New(in io.Reader, out io.Writer) *ConsoleDecider {
	return &ConsoleDecider{
		in:  bufio.NewScanner(in),
		out: out,
	}
}

// Decide implements identity.Decider.
func (c *ConsoleDecider) Decide(ctx context.Context, req identity.DecisionRequest) (identity.Decision, error) {
	if err := ctx.Err(); err != nil {
		return identity.Decision{}, err
	}

	c.reviewed++
	c.show(req)

	for {
		fmt.Fprintf(c.out, "\nSelect match (1-%d, 0 = none, s = skip): ", len(req.Candidates))

		line, err := c.readLine()
		if err != nil {
			return identity.Decision{}, err
		}

		switch answer := strings.ToLower(strings.TrimSpace(line)); answer {
		case "s":
			fmt.Fprintln(c.out, "  -> Skipped, left for later review")
			return identity.Decision{Skipped: true}, nil
		case "0":
			fmt.Fprintln(c.out, "  -> Marked as UNMATCHED")
			return identity.Decision{}, nil
		default:
			n, convErr := strconv.Atoi(answer)
			if convErr != nil || n < 1 || n > len(req.Candidates) {
				fmt.Fprintln(c.out, "  Invalid selection.")
				continue
			}
			chosen := req.Candidates[n-1]
			fmt.Fprintf(c.out, "  -> Confirmed as %s (%s)\n", chosen.Name, chosen.ID)
			return identity.Decision{ID: chosen.ID, Accepted: true}, nil
		}
	}
}

// Reviewed returns how many close matches the operator has been shown.
func (c *ConsoleDecider) Reviewed() int {
	return c.reviewed
}

func (c *ConsoleDecider) show(req identity.DecisionRequest) {
	fmt.Fprintf(c.out, "\n%s\n", strings.Repeat("=", 72))
	fmt.Fprintf(c.out, "CLOSE MATCH REVIEW #%d\n", c.reviewed)
	fmt.Fprintln(c.out, strings.Repeat("=", 72))
	fmt.Fprintln(c.out, "\nFrom billing export:")
	fmt.Fprintf(c.out, "  Name: %s\n", req.SourceName)
	fmt.Fprintf(c.out, "  DOB:  %s\n", req.SourceDOB)
	fmt.Fprintln(c.out, "\nMaster list candidates with the same DOB:")
	for i, cand := range req.Candidates {
		fmt.Fprintf(c.out, "  [%d] %s  (DOB %s, ID %s)\n", i+1, cand.Name, cand.DOB, cand.ID)
	}
}

func (c *ConsoleDecider) readLine() (string, error) {
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", errors.WrapIO("read", "operator input", err)
		}
		// EOF with a review pending means the operator walked away.
		return "", errors.ErrCanceled
	}
	return c.in.Text(), nil
}
