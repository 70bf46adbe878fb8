// Package command provides the adapter that runs external helper programs.
package command

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"golang-wifista/internal/port"
)

// RunnerAdapter implements the CommandRunner port with os/exec.
type RunnerAdapter struct{}

// Ensure RunnerAdapter implements the CommandRunner port
var _ port.CommandRunner = (*RunnerAdapter)(nil)

// NewRunnerAdapter creates a new command runner adapter.
func NewRunnerAdapter() *RunnerAdapter {
	return &RunnerAdapter{}
}

// Run executes name with args and returns its combined output.
func (r *RunnerAdapter) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// Helper output is parsed, keep it in english.
	cmd.Env = append(cmd.Environ(), "LC_ALL=C")

	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}
