package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"toolforge/internal/logging"
	"toolforge/internal/tools"
	"toolforge/internal/tools/core"
)

type goRunnerInput struct {
	ScriptPath string `json:"script_path" jsonschema:"description=The path to the Go program file to execute."`
}

// GoRunnerTool returns a tool that runs a Go program file in a separate
// process with `go run` and captures its output.
func GoRunnerTool(cfg Config) *tools.Tool {
	return &tools.Tool{
		Name:        "go_runner_tool",
		Description: "Executes a Go program from a file path with `go run` and captures its output.",
		Category:    tools.CategoryProcess,
		Execute: func(ctx context.Context, input map[string]any) (map[string]any, error) {
			return executeGoRunner(ctx, cfg, input)
		},
		Schema: tools.SchemaFor(&goRunnerInput{}),
	}
}

func executeGoRunner(ctx context.Context, cfg Config, input map[string]any) (map[string]any, error) {
	raw, _ := input["script_path"].(string)
	if raw == "" {
		return nil, fmt.Errorf("missing required input: script_path")
	}

	path := core.ExpandPath(raw)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found at path: %s", raw)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", raw, err)
	}

	goBin, err := exec.LookPath("go")
	if err != nil {
		return nil, fmt.Errorf("go toolchain not found in PATH: %w", err)
	}

	logging.ToolsDebug("go_runner_tool: running %s", path)
	res, err := runProcess(ctx, cfg.Timeout, cfg.WorkingDir, goBin, "run", path)
	if err != nil {
		if res != nil && res.TimedOut {
			return nil, fmt.Errorf("script '%s' %v", raw, err)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return map[string]any{
				"status":  "error",
				"message": fmt.Sprintf("Error executing script '%s'.", raw),
				"stderr":  res.Stderr,
			}, nil
		}
		return nil, fmt.Errorf("failed to run script '%s': %w", raw, err)
	}

	logging.Tools("go_runner_tool completed: %s (%d bytes output)", raw, len(res.Stdout))
	return map[string]any{
		"status":  "success",
		"output":  res.Stdout,
		"message": fmt.Sprintf("Script '%s' executed successfully.", raw),
	}, nil
}
