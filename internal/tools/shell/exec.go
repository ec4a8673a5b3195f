package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
	"unicode/utf8"
)

const (
	defaultTimeout = 30 * time.Second
	maxOutputBytes = 50000
)

// processResult is the captured outcome of one process run.
type processResult struct {
	Stdout   string
	Stderr   string
	TimedOut bool
}

// runProcess runs name with args under timeout, capturing both streams.
// A non-zero exit is returned as an *exec.ExitError alongside the output.
func runProcess(ctx context.Context, timeout time.Duration, dir, name string, args ...string) (*processResult, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &processResult{
		Stdout: truncate(stdout.String()),
		Stderr: truncate(stderr.String()),
	}
	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		return res, fmt.Errorf("%s timed out after %v", name, timeout)
	}
	return res, err
}

// truncate caps s at maxOutputBytes without splitting a UTF-8 sequence.
func truncate(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	cut := maxOutputBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n...[truncated]"
}
