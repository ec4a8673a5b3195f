package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"toolforge/internal/dispatch"
	"toolforge/internal/mcp"
	"toolforge/internal/tools"
	"toolforge/internal/tools/meta"

	"github.com/spf13/cobra"
)

const clientModel = "toolforge-cli"

// errToolFailed is returned after a failed tool response has been printed.
var errToolFailed = errors.New("tool call failed")

var (
	invokeInput string
	execCode    string
	execFile    string
	createFile  string
	listJSON    bool
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <tool>",
	Short: "Invoke a tool and print the response",
	Example: `  toolforge invoke hello_world --input '{"who":"gopher"}'
  toolforge invoke meta_tool_inspector --server http://localhost:5000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := parseInput(invokeInput)
		if err != nil {
			return err
		}
		resp, err := callTool(cmd.Context(), args[0], input)
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
		if resp.Status != mcp.StatusSuccess {
			return errToolFailed
		}
		return nil
	},
}

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run Go code through go_executor",
	Long: `Runs a Go snippet or a complete package main program in a fresh
interpreter and prints what it wrote. Use --file - to read from stdin.`,
	Example: `  toolforge exec --code 'import "fmt"; fmt.Println(6*7)'
  toolforge exec --file script.go`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := readSource(cmd.InOrStdin(), execCode, execFile)
		if err != nil {
			return err
		}
		resp, err := callTool(cmd.Context(), tools.CodeExecutorName, map[string]any{"code": code})
		if err != nil {
			return err
		}
		if resp.Status != mcp.StatusSuccess {
			return fmt.Errorf("%s: %v", errToolFailed, resp.ToolResponse.Output)
		}

		out, _ := resp.ToolResponse.Output.(map[string]any)
		text, _ := out["output"].(string)
		fmt.Fprint(cmd.OutOrStdout(), text)
		if ok, _ := out["ran_successfully"].(bool); !ok {
			return errors.New("code did not run successfully")
		}
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a tool from a Go source file via tool_creator",
	Long: `Saves the source as a new unit and activates it. Fails if a unit with
the same name already exists.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := readSource(cmd.InOrStdin(), "", createFile)
		if err != nil {
			return err
		}
		resp, err := callTool(cmd.Context(), tools.CreatorName, map[string]any{
			"tool_name": args[0],
			"tool_code": code,
		})
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}

		out, _ := resp.ToolResponse.Output.(map[string]any)
		if resp.Status != mcp.StatusSuccess || out["status"] != mcp.StatusSuccess {
			return errToolFailed
		}
		if resp.Note != "" {
			return errors.New(resp.Note)
		}
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload <name>",
	Short: "Reload a unit from the store",
	Long: `With --server, asks the running server to reload the unit. Without it,
loads the unit in-process and reports its hash, which checks that it
satisfies the tool contract.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]

		var resp *mcp.ReloadResponse
		if serverURL != "" {
			r, err := newClient().Reload(ctx, name)
			if err != nil {
				return err
			}
			resp = r
		} else {
			rt, err := newRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			resp = &mcp.ReloadResponse{Status: mcp.StatusSuccess, ToolName: name}
			tool, err := rt.loader.Activate(ctx, rt.registry, name)
			if err != nil {
				resp.Status = mcp.StatusError
				resp.Message = err.Error()
			} else {
				resp.Hash = tool.Hash
			}
		}

		if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
		if resp.Status != mcp.StatusSuccess {
			return fmt.Errorf("reload of %s failed", name)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		descs, err := listTools(cmd.Context())
		if err != nil {
			return err
		}
		sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })

		if listJSON {
			return printJSON(cmd.OutOrStdout(), mcp.ToolList{Tools: descs})
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tDESCRIPTION")
		for _, d := range descs {
			fmt.Fprintf(tw, "%s\t%s\n", d.Name, firstLine(d.Description))
		}
		return tw.Flush()
	},
}

func init() {
	invokeCmd.Flags().StringVarP(&invokeInput, "input", "i", "", "Tool input as a JSON object")
	execCmd.Flags().StringVar(&execCode, "code", "", "Go code to run")
	execCmd.Flags().StringVarP(&execFile, "file", "f", "", "File containing Go code (- for stdin)")
	createCmd.Flags().StringVarP(&createFile, "file", "f", "", "Go source for the new tool (- for stdin)")
	_ = createCmd.MarkFlagRequired("file")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print descriptors as JSON")
}

// =============================================================================
// HELPERS
// =============================================================================

// callTool dispatches locally, or through the server when --server is set.
func callTool(ctx context.Context, name string, input map[string]any) (*mcp.Response, error) {
	if serverURL != "" {
		return newClient().CallTool(ctx, name, input)
	}

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer rt.Close()
	if _, err := rt.scan(ctx, cfg.Loader.Concurrency); err != nil {
		return nil, err
	}

	res := rt.dispatcher.Dispatch(ctx, dispatch.Request{Tool: name, Input: input})
	resp := mcp.ResponseFromResult(name, res)
	return &resp, nil
}

func listTools(ctx context.Context) ([]tools.Descriptor, error) {
	if serverURL != "" {
		list, err := newClient().ListTools(ctx)
		if err != nil {
			return nil, err
		}
		return list.Tools, nil
	}

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer rt.Close()
	if _, err := rt.scan(ctx, cfg.Loader.Concurrency); err != nil {
		return nil, err
	}
	return append(rt.registry.Descriptors(), meta.CodeExecutorDescriptor()), nil
}

func newClient() *mcp.Client {
	// Tool calls can run as long as a child process is allowed to.
	return mcp.NewClient(serverURL, clientModel, cfg.GetProcessTimeout()+10*time.Second)
}

func parseInput(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var input map[string]any
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return nil, fmt.Errorf("--input must be a JSON object: %w", err)
	}
	if input == nil {
		input = map[string]any{}
	}
	return input, nil
}

func readSource(stdin io.Reader, inline, file string) (string, error) {
	switch {
	case inline != "" && file != "":
		return "", errors.New("use either --code or --file, not both")
	case inline != "":
		return inline, nil
	case file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", errors.New("no code given: use --code or --file")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
