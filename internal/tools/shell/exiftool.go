package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"toolforge/internal/logging"
	"toolforge/internal/tools"
	"toolforge/internal/tools/core"
)

type exifToolInput struct {
	FilePath        string            `json:"file_path" jsonschema:"description=Path to the image or media file. Supports ~ and $ENV_VARS and ../ and globs like *.jpg"`
	Operation       string            `json:"operation" jsonschema:"enum=read,enum=write,description=read extracts metadata and write updates it."`
	TagsToRead      []string          `json:"tags_to_read,omitempty" jsonschema:"description=Optional for read: specific tags to extract such as FileName or CreateDate."`
	MetadataToWrite map[string]string `json:"metadata_to_write,omitempty" jsonschema:"description=Required for write: tag to string value pairs."`
}

// ExifToolTool returns a tool for reading and writing media metadata with
// the exiftool binary.
func ExifToolTool(cfg Config) *tools.Tool {
	return &tools.Tool{
		Name:        "exiftool_interface",
		Description: "Interact with ExifTool for reading/writing metadata on image/media files. Supports ~, environment variables, relative paths, and globs. Requires ExifTool in PATH.",
		Category:    tools.CategoryProcess,
		Execute: func(ctx context.Context, input map[string]any) (map[string]any, error) {
			return executeExifTool(ctx, cfg, "exiftool", input)
		},
		Schema: tools.SchemaFor(&exifToolInput{}),
	}
}

func executeExifTool(ctx context.Context, cfg Config, bin string, input map[string]any) (map[string]any, error) {
	raw, _ := input["file_path"].(string)
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("file_path is required as a non-empty string")
	}
	op, _ := input["operation"].(string)
	if op != "read" && op != "write" {
		return nil, fmt.Errorf("invalid operation: %q. Must be \"read\" or \"write\"", op)
	}

	var writeArgs []string
	if op == "write" {
		args, err := buildWriteArgs(input["metadata_to_write"])
		if err != nil {
			return nil, err
		}
		writeArgs = args
	}

	resolved, err := core.ResolveFile(raw)
	if err != nil {
		return nil, err
	}

	binPath, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("ExifTool is not installed or not found in system PATH")
	}

	if op == "read" {
		return exifRead(ctx, cfg, binPath, resolved, stringList(input["tags_to_read"]))
	}
	return exifWrite(ctx, cfg, binPath, resolved, writeArgs)
}

func exifRead(ctx context.Context, cfg Config, bin, path string, tags []string) (map[string]any, error) {
	logging.ToolsDebug("exiftool_interface: read %s", path)
	res, err := runProcess(ctx, cfg.Timeout, cfg.WorkingDir, bin, "-json", path)
	if err != nil {
		return nil, fmt.Errorf("ExifTool read failed: %v: %s", err, strings.TrimSpace(stderrOf(res)))
	}

	var records []map[string]any
	if strings.TrimSpace(res.Stdout) != "" {
		if err := json.Unmarshal([]byte(res.Stdout), &records); err != nil {
			snippet := res.Stdout
			if len(snippet) > 500 {
				snippet = snippet[:500]
			}
			return nil, fmt.Errorf("failed to parse ExifTool JSON output: %v. Output snippet: %s", err, snippet)
		}
	}

	metadata := map[string]any{}
	if len(records) > 0 {
		metadata = records[0]
	}
	if len(tags) > 0 {
		metadata = selectTags(metadata, tags)
	}

	return map[string]any{
		"status":        "success",
		"resolved_path": path,
		"data":          metadata,
	}, nil
}

func exifWrite(ctx context.Context, cfg Config, bin, path string, writeArgs []string) (map[string]any, error) {
	logging.Tools("exiftool_interface: writing %d tags to %s", len(writeArgs), path)
	args := append(writeArgs, path)
	res, err := runProcess(ctx, cfg.Timeout, cfg.WorkingDir, bin, args...)
	if err != nil {
		return nil, fmt.Errorf("ExifTool write failed: %v: %s", err, strings.TrimSpace(stderrOf(res)))
	}

	return map[string]any{
		"status":        "success",
		"resolved_path": path,
		"data":          map[string]any{"summary": strings.TrimSpace(res.Stdout)},
	}, nil
}

// buildWriteArgs turns {"Artist": "x"} into ["-Artist=x"], sorted by tag.
func buildWriteArgs(raw any) ([]string, error) {
	meta, ok := raw.(map[string]any)
	if !ok || len(meta) == 0 {
		return nil, fmt.Errorf("metadata_to_write is required for \"write\" and must be a non-empty object")
	}

	tags := make([]string, 0, len(meta))
	for tag := range meta {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	args := make([]string, 0, len(tags))
	for _, tag := range tags {
		value, ok := meta[tag].(string)
		if !ok {
			return nil, fmt.Errorf("invalid value type for %q. Must be a string", tag)
		}
		args = append(args, fmt.Sprintf("-%s=%s", tag, value))
	}
	return args, nil
}

func selectTags(metadata map[string]any, tags []string) map[string]any {
	out := make(map[string]any, len(tags))
	for _, tag := range tags {
		if v, ok := metadata[tag]; ok {
			out[tag] = v
		}
	}
	return out
}

func stringList(raw any) []string {
	if s, ok := raw.([]string); ok {
		return s
	}
	items, _ := raw.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stderrOf(res *processResult) string {
	if res == nil {
		return ""
	}
	return res.Stderr
}
