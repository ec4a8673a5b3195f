// Package dispatch routes invocation requests to tools.
//
// Resolution order:
//
//  1. go_executor is served by the code runner and never consults the registry.
//  2. Everything else is looked up in the registry and invoked.
//  3. A successful tool_creator invocation activates the tool it created
//     before the response is returned.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"toolforge/internal/logging"
	"toolforge/internal/tools"

	"github.com/google/uuid"
)

// Activator loads a tool from the store and installs it in a registry.
type Activator interface {
	Activate(ctx context.Context, reg *tools.Registry, name string) (*tools.Tool, error)
}

// CodeRunner executes a code fragment, reporting completion and output.
type CodeRunner interface {
	Run(ctx context.Context, code string) (bool, string)
}

// Request is one invocation.
type Request struct {
	Tool  string
	Input map[string]any
}

// Result is the outcome of one invocation.
type Result struct {
	RequestID string
	ToolName  string
	Success   bool
	Output    map[string]any
	Err       error

	// Note carries a problem that happened after the tool succeeded,
	// such as a created tool that failed to load.
	Note string

	Duration time.Duration
}

// Message returns the text describing a failed result.
func (r *Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Dispatcher resolves requests to tools and invokes them.
type Dispatcher struct {
	registry      *tools.Registry
	activator     Activator
	runner        CodeRunner
	validateInput bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithInputValidation checks input against a tool's compiled schema before
// invoking it. Tools without a compiled schema accept anything.
func WithInputValidation(enabled bool) Option {
	return func(d *Dispatcher) {
		d.validateInput = enabled
	}
}

// New creates a dispatcher.
func New(registry *tools.Registry, activator Activator, runner CodeRunner, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:  registry,
		activator: activator,
		runner:    runner,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *tools.Registry {
	return d.registry
}

// Dispatch runs req. It never panics and never returns nil; every failure
// is reported in the result.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) *Result {
	start := time.Now()
	res := &Result{
		RequestID: uuid.NewString(),
		ToolName:  req.Tool,
	}
	defer func() {
		res.Duration = time.Since(start)
		if res.Success {
			logging.DispatchDebug("[%s] %s completed in %v", res.RequestID, res.ToolName, res.Duration)
		} else {
			logging.DispatchWarn("[%s] %s failed in %v: %v", res.RequestID, res.ToolName, res.Duration, res.Err)
		}
	}()

	input := req.Input
	if input == nil {
		input = map[string]any{}
	}

	if req.Tool == "" {
		res.Err = fmt.Errorf("%w: tool name is required", ErrValidation)
		return res
	}

	if req.Tool == tools.CodeExecutorName {
		d.runCode(ctx, input, res)
		return res
	}

	tool := d.registry.Get(req.Tool)
	if tool == nil {
		res.Err = fmt.Errorf("%w: %s", tools.ErrToolNotFound, req.Tool)
		return res
	}

	if d.validateInput && tool.Validator != nil {
		if err := tool.Validator.Validate(toJSONValue(input)); err != nil {
			res.Err = fmt.Errorf("%w: input for %s: %v", ErrValidation, tool.Name, err)
			return res
		}
	}

	output, err := invoke(ctx, tool, input)
	if err != nil {
		res.Err = fmt.Errorf("%w: %s: %v", ErrInvocation, tool.Name, err)
		return res
	}
	res.Success = true
	res.Output = output

	if tool.Name == tools.CreatorName {
		d.selfExtend(ctx, res)
	}
	return res
}

func (d *Dispatcher) runCode(ctx context.Context, input map[string]any, res *Result) {
	code, _ := input["code"].(string)
	if code == "" {
		res.Err = fmt.Errorf("%w: %s requires a non-empty 'code' string", ErrValidation, tools.CodeExecutorName)
		return
	}

	logging.Dispatch("[%s] Executing %d bytes of code", res.RequestID, len(code))
	ok, output := d.runner.Run(ctx, code)
	res.Success = true
	res.Output = map[string]any{
		"ran_successfully": ok,
		"output":           output,
	}
}

// invoke calls the tool, converting a panic into an error.
func invoke(ctx context.Context, tool *tools.Tool, input map[string]any) (output map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.DispatchWarn("Tool %s panicked: %v\n%s", tool.Name, r, debug.Stack())
			output = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	output, err = tool.Execute(ctx, input)
	if err == nil && output == nil {
		output = map[string]any{}
	}
	return output, err
}

// selfExtend activates the tool a successful tool_creator call reported.
// A load failure leaves the creator's success intact and sets the note.
func (d *Dispatcher) selfExtend(ctx context.Context, res *Result) {
	status, _ := res.Output["status"].(string)
	created, _ := res.Output["created_tool_name"].(string)
	if status != "success" || created == "" {
		return
	}
	if d.activator == nil {
		res.Note = fmt.Sprintf("tool '%s' was created but no loader is configured", created)
		return
	}

	logging.Dispatch("[%s] Activating newly created tool %s", res.RequestID, created)
	if _, err := d.activator.Activate(ctx, d.registry, created); err != nil {
		res.Note = fmt.Sprintf("tool '%s' was created but failed to load: %v", created, err)
		return
	}
	logging.Dispatch("[%s] Tool %s is now available", res.RequestID, created)
}

// IsClientError reports whether err is the caller's fault rather than a
// failure of the tool.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, tools.ErrToolNotFound)
}
