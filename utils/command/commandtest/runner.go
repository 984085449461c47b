// Package commandtest provides a scripted command.Runner for tests.
package commandtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Response is returned for commands containing Match.
type Response struct {
	Match  string
	Stdout string
	Stderr string
	Err    error
	// Once removes the response after its first use so later matches fall
	// through to the next rule.
	Once bool
}

// Call records one command invocation.
type Call struct {
	Cmd   string
	Stdin string
}

// Runner matches commands against responses in registration order.
type Runner struct {
	mu        sync.Mutex
	responses []Response
	calls     []Call
}

// New constructs a Runner with the given responses.
func New(responses ...Response) *Runner {
	return &Runner{responses: append([]Response{}, responses...)}
}

// Add registers additional responses.
func (r *Runner) Add(responses ...Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, responses...)
	return r
}

// Run implements command.Runner.
func (r *Runner) Run(ctx context.Context, cmd string) (string, string, error) {
	return r.RunWithInput(ctx, cmd, "")
}

// RunWithInput implements command.InputRunner.
func (r *Runner) RunWithInput(_ context.Context, cmd string, stdin string) (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{Cmd: cmd, Stdin: stdin})
	for i, resp := range r.responses {
		if resp.Match != "" && !strings.Contains(cmd, resp.Match) {
			continue
		}
		if resp.Once {
			r.responses = append(r.responses[:i:i], r.responses[i+1:]...)
		}
		return resp.Stdout, resp.Stderr, resp.Err
	}
	return "", "", fmt.Errorf("unexpected command: %s", cmd)
}

// Calls returns a copy of every recorded invocation.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns how many recorded commands contain substr.
func (r *Runner) Count(substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if strings.Contains(c.Cmd, substr) {
			n++
		}
	}
	return n
}
