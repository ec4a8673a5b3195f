package autopoiesis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"strings"
	"sync"

	"toolforge/internal/logging"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// =============================================================================
// YAEGI CODE EXECUTOR
// =============================================================================
// Runs caller-supplied Go code with the Yaegi interpreter. Every call gets a
// fresh interpreter with captured stdout/stderr and an empty environment;
// nothing survives between calls.
//
// Accepted input:
//   - a full program starting with a package clause (main runs)
//   - a fragment: imports, declarations and statements in any order
//
// This is not a sandbox. The interpreter has the full stdlib. In restricted
// mode os.Exit panics instead of exiting, and go statements are refused
// because a panicking goroutine cannot be recovered here.

// YaegiExecutor executes Go code using the Yaegi interpreter.
type YaegiExecutor struct {
	restricted bool
}

// NewYaegiExecutor creates a new Yaegi-based code executor.
func NewYaegiExecutor(restricted bool) *YaegiExecutor {
	return &YaegiExecutor{restricted: restricted}
}

// Run executes code and reports whether it completed normally.
// On success the second value is everything the code printed to stdout;
// otherwise it is a trace of the failure.
func (ye *YaegiExecutor) Run(ctx context.Context, code string) (ok bool, output string) {
	var stdout, stderr syncBuffer

	defer func() {
		if r := recover(); r != nil {
			ok = false
			output = formatTrace(fmt.Sprintf("panic: %v", r), nil, &stderr)
		}
	}()

	src := code
	if !hasPackageClause(code) {
		src = splitFragment(code).program()
	}
	if ye.restricted {
		if err := checkGoStatements(interp.DefaultSourceName, src); err != nil {
			return false, err.Error() + "\n"
		}
	}

	i := interp.New(interp.Options{
		Stdout:       &stdout,
		Stderr:       &stderr,
		Env:          []string{},
		Unrestricted: !ye.restricted,
	})
	if err := i.Use(stdlib.Symbols); err != nil {
		return false, fmt.Sprintf("failed to load stdlib: %v", err)
	}

	if _, err := i.EvalWithContext(ctx, src); err != nil {
		logging.ExecutorDebug("Execution failed: %v", err)
		return false, formatTrace(err.Error(), err, &stderr)
	}

	logging.ExecutorDebug("Execution completed (%d bytes of output)", stdout.Len())
	return true, stdout.String()
}

func hasPackageClause(code string) bool {
	_, err := parser.ParseFile(token.NewFileSet(), "exec.go", code, parser.PackageClauseOnly)
	return err == nil
}

// formatTrace renders a failure: the error or panic value, then whatever the
// interpreter printed, which includes the position of the panicking function.
// The host stack is left out; it only shows interpreter internals.
func formatTrace(msg string, err error, stderr *syncBuffer) string {
	var b strings.Builder

	var p interp.Panic
	if errors.As(err, &p) {
		fmt.Fprintf(&b, "panic: %v\n", p.Value)
	} else {
		b.WriteString(msg)
		b.WriteString("\n")
	}
	if s := strings.TrimSpace(stderr.String()); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String()
}

// syncBuffer is a bytes.Buffer safe for concurrent writers; interpreted
// goroutines may print while the executor is reading.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}
