package stepapp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/BrianJOC/workstation-bootstrap/steps"
)

// Console prints step progress as plain lines. It implements steps.Observer.
type Console struct {
	out io.Writer
}

// NewConsole writes progress to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// StepStarted implements steps.Observer.
func (c *Console) StepStarted(meta steps.Metadata) {
	fmt.Fprintf(c.out, "%s %s\n", statusStyles[statusRunning].Render("==>"), meta.Title)
}

// StepWarned implements steps.Observer.
func (c *Console) StepWarned(meta steps.Metadata, w steps.Warning) {
	fmt.Fprintf(c.out, "    %s %s\n", warningTextStyle.Render("warning:"), w.String())
}

// StepCompleted implements steps.Observer.
func (c *Console) StepCompleted(res steps.Result) {
	status := statusFromOutcome(res.Outcome)
	line := fmt.Sprintf("    %s %s", statusIcons[status], res.Outcome)
	if res.Err != nil {
		line += ": " + res.Err.Error()
	}
	fmt.Fprintln(c.out, statusStyles[status].Render(line))
}

// PrintSummary writes one line per step followed by totals.
func PrintSummary(out io.Writer, report steps.Report) {
	if len(report.Results) == 0 {
		return
	}
	width := 0
	for _, res := range report.Results {
		if w := lipgloss.Width(res.Meta.ID); w > width {
			width = w
		}
	}
	fmt.Fprintln(out, titleStyle.Render("Summary"))
	for _, res := range report.Results {
		status := statusFromOutcome(res.Outcome)
		fmt.Fprintf(out, "  %-*s %s\n", width, res.Meta.ID, statusStyles[status].Render(res.Outcome.String()))
		for _, w := range res.Warnings {
			fmt.Fprintf(out, "  %-*s   %s\n", width, "", warningTextStyle.Render(w.String()))
		}
	}
	fmt.Fprintf(out, "%d applied, %d skipped, %d warned, %d failed, %d pending\n",
		report.Count(steps.OutcomeApplied), report.Count(steps.OutcomeSkipped), report.Count(steps.OutcomeWarned),
		report.Count(steps.OutcomeFailed), report.Count(steps.OutcomePending))
}

// PrintCheck writes the guard verdict of a check-only run: satisfied for
// steps already in place and pending for steps that would be applied.
func PrintCheck(out io.Writer, report steps.Report) {
	for _, res := range report.Results {
		verdict, status := "pending", statusPending
		switch res.Outcome {
		case steps.OutcomeSkipped:
			verdict, status = "satisfied", statusApplied
		case steps.OutcomeFailed:
			verdict, status = "error", statusFailed
		}
		line := fmt.Sprintf("%s %s", res.Meta.ID, statusStyles[status].Render(verdict))
		if res.Err != nil {
			line += ": " + res.Err.Error()
		}
		fmt.Fprintln(out, line)
	}
}

// PrintList writes every registered component ID, one per line, in run order.
func PrintList(out io.Writer, reg *steps.Registry) {
	for _, id := range reg.Names() {
		fmt.Fprintln(out, id)
	}
}

// TerminalPrompt asks for input on a terminal, hiding secret values.
type TerminalPrompt struct {
	in  *os.File
	out io.Writer
}

// NewTerminalPrompt reads from in and writes prompts to out.
func NewTerminalPrompt(in *os.File, out io.Writer) *TerminalPrompt {
	return &TerminalPrompt{in: in, out: out}
}

// RequestInput implements steps.InputHandler.
func (p *TerminalPrompt) RequestInput(meta steps.Metadata, input steps.InputDefinition, reason string) (string, error) {
	if reason != "" {
		fmt.Fprintf(p.out, "%s: %s\n", meta.Title, reason)
	}
	fmt.Fprintf(p.out, "%s: ", input.Label)

	fd := int(p.in.Fd())
	if input.Secret && term.IsTerminal(fd) {
		value, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", input.ID, err)
		}
		return string(value), nil
	}

	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", input.ID, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
