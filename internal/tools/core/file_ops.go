package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"toolforge/internal/logging"
	"toolforge/internal/tools"
)

type fileReaderInput struct {
	Filepath string `json:"filepath" jsonschema:"description=The relative or absolute path to the file to be read."`
}

// FileReaderTool returns a tool for reading file contents.
func FileReaderTool() *tools.Tool {
	return &tools.Tool{
		Name:        "file_reader",
		Description: "Reads the entire content of a specified file from the local filesystem. Useful for getting the content of text files.",
		Category:    tools.CategoryFilesystem,
		Execute:     executeFileReader,
		Schema:      tools.SchemaFor(&fileReaderInput{}),
	}
}

func executeFileReader(ctx context.Context, input map[string]any) (map[string]any, error) {
	path, _ := input["filepath"].(string)
	if path == "" {
		return nil, fmt.Errorf("input must contain a 'filepath' key")
	}

	logging.ToolsDebug("file_reader: path=%s", path)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found at path: %s", path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return map[string]any{
		"status":   "success",
		"filepath": path,
		"content":  string(content),
	}, nil
}

type readFileContentInput struct {
	Path string `json:"path" jsonschema:"description=The path to the file to read. Supports ~ and $ENV_VARS and ../ and globs like *.md or **/README.md"`
}

// ReadFileContentTool returns a tool for reading a file addressed loosely:
// home and environment expansion plus globs that must match one file.
func ReadFileContentTool() *tools.Tool {
	return &tools.Tool{
		Name:        "read_file_content_tool",
		Description: "Reads the content of a file from a given path. Supports ~, env vars, relative paths, and globs.",
		Category:    tools.CategoryFilesystem,
		Execute:     executeReadFileContent,
		Schema:      tools.SchemaFor(&readFileContentInput{}),
	}
}

func executeReadFileContent(ctx context.Context, input map[string]any) (map[string]any, error) {
	raw, _ := input["path"].(string)
	if raw == "" {
		return nil, fmt.Errorf("file path is required as a string")
	}

	resolved, err := ResolveFile(raw)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read file for path %s: %w", raw, err)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("failed to decode as UTF-8: %s", resolved)
	}

	logging.ToolsDebug("read_file_content_tool: %s -> %s (%d bytes)", raw, resolved, len(content))
	return map[string]any{
		"status":        "success",
		"resolved_path": resolved,
		"markdown":      string(content),
	}, nil
}

type fileWriterInput struct {
	Filepath string `json:"filepath" jsonschema:"description=The absolute or relative path of the file to be written."`
	Content  string `json:"content" jsonschema:"description=The content to write. If it contains a markdown code block only the code is written."`
}

// FileWriterTool returns a tool for writing content to a file.
func FileWriterTool() *tools.Tool {
	return &tools.Tool{
		Name:        "file_writer",
		Description: "Writes or overwrites a file with the provided content. Use this to save text, code, or any string data to a file on the local filesystem.",
		Category:    tools.CategoryFilesystem,
		Execute:     executeFileWriter,
		Schema:      tools.SchemaFor(&fileWriterInput{}),
	}
}

var fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*\n(.*?)```")

// extractCode returns the body of the first fenced code block in content,
// or content itself when there is none. The result is trimmed.
func extractCode(content string) (string, bool) {
	if m := fencedBlock.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return strings.TrimSpace(content), false
}

func executeFileWriter(ctx context.Context, input map[string]any) (map[string]any, error) {
	path, okPath := input["filepath"].(string)
	content, okContent := input["content"].(string)
	if !okPath || !okContent || path == "" {
		return nil, fmt.Errorf("input must include both 'filepath' and 'content'")
	}

	toWrite, extracted := extractCode(content)
	if extracted {
		logging.ToolsDebug("file_writer: extracted code block for %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directories: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(toWrite), 0644); err != nil {
		return nil, fmt.Errorf("failed to write to file: %w", err)
	}

	logging.Tools("file_writer completed: %s (%d bytes)", path, len(toWrite))
	return map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Successfully wrote %d characters to '%s'.", utf8.RuneCountInString(toWrite), path),
	}, nil
}

type listFilesInput struct {
	Path string `json:"path" jsonschema:"description=The path to list files from. Can include ~ for the home directory or environment variables like $HOME."`
}

// ListFilesTool returns a tool for listing directory contents.
func ListFilesTool() *tools.Tool {
	return &tools.Tool{
		Name:        "list_files_in_path",
		Description: "Lists files and directories at a given path, expanding user and environment variables in the path.",
		Category:    tools.CategoryFilesystem,
		Execute:     executeListFiles,
		Schema:      tools.SchemaFor(&listFilesInput{}),
	}
}

func executeListFiles(ctx context.Context, input map[string]any) (map[string]any, error) {
	raw, _ := input["path"].(string)
	if raw == "" {
		return nil, fmt.Errorf("path input is required")
	}

	path := ExpandPath(raw)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("path does not exist: '%s'", path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied to access path: '%s'", path)
		}
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: '%s'", path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	contents := make([]any, 0, len(entries))
	for _, e := range entries {
		contents = append(contents, e.Name())
	}

	return map[string]any{
		"status":   "success",
		"path":     path,
		"contents": contents,
	}, nil
}
