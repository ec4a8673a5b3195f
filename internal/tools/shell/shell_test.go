package shell

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"toolforge/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExifTool writes a shell script that mimics exiftool's -json output
// and write summary.
func fakeExifTool(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	script := `#!/bin/sh
if [ "$1" = "-json" ]; then
  printf '[{"SourceFile":"%s","FileName":"pic.jpg","Artist":"ada","ImageWidth":640}]' "$2"
  exit 0
fi
for a in "$@"; do
  case "$a" in
    -Fail=*) echo "Warning: forced failure" >&2; exit 1 ;;
  esac
done
echo "    1 image files updated"
`
	path := filepath.Join(t.TempDir(), "exiftool")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func mediaFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pic.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0644))
	return path
}

func TestExifTool_Read(t *testing.T) {
	bin := fakeExifTool(t)
	file := mediaFile(t)

	out, err := executeExifTool(context.Background(), Config{Timeout: 5 * time.Second}, bin, map[string]any{
		"file_path": file,
		"operation": "read",
	})
	require.NoError(t, err)
	assert.Equal(t, "success", out["status"])
	data := out["data"].(map[string]any)
	assert.Equal(t, "ada", data["Artist"])
	assert.EqualValues(t, 640, data["ImageWidth"])
}

func TestExifTool_ReadSelectedTags(t *testing.T) {
	bin := fakeExifTool(t)
	file := mediaFile(t)

	out, err := executeExifTool(context.Background(), Config{}, bin, map[string]any{
		"file_path":    file,
		"operation":    "read",
		"tags_to_read": []any{"Artist", "Missing"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Artist": "ada"}, out["data"])
}

func TestExifTool_Write(t *testing.T) {
	bin := fakeExifTool(t)
	file := mediaFile(t)

	out, err := executeExifTool(context.Background(), Config{}, bin, map[string]any{
		"file_path":         file,
		"operation":         "write",
		"metadata_to_write": map[string]any{"Artist": "grace"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"summary": "1 image files updated"}, out["data"])

	_, err = executeExifTool(context.Background(), Config{}, bin, map[string]any{
		"file_path":         file,
		"operation":         "write",
		"metadata_to_write": map[string]any{"Fail": "yes"},
	})
	assert.ErrorContains(t, err, "forced failure")
}

func TestExifTool_InputErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "pic.jpg")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	tests := []struct {
		name  string
		input map[string]any
		want  string
	}{
		{"no path", map[string]any{"operation": "read"}, "file_path"},
		{"bad operation", map[string]any{"file_path": file, "operation": "delete"}, "invalid operation"},
		{"write without metadata", map[string]any{"file_path": file, "operation": "write"}, "metadata_to_write"},
		{"non-string value", map[string]any{"file_path": file, "operation": "write", "metadata_to_write": map[string]any{"Width": 3.0}}, "must be a string"},
		{"missing file", map[string]any{"file_path": file + ".nope", "operation": "read"}, "file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeExifTool(context.Background(), Config{}, "exiftool-not-installed", tt.input)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestExifTool_NotInstalled(t *testing.T) {
	file := mediaFile(t)

	_, err := executeExifTool(context.Background(), Config{}, "exiftool-not-installed", map[string]any{
		"file_path": file,
		"operation": "read",
	})
	assert.ErrorContains(t, err, "not installed")
}

func TestBuildWriteArgs(t *testing.T) {
	args, err := buildWriteArgs(map[string]any{"b": "2", "a": "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"-a=1", "-b=2"}, args)
}

func TestGoRunner(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns the go toolchain")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not in PATH")
	}

	dir := t.TempDir()
	ok := filepath.Join(dir, "ok.go")
	require.NoError(t, os.WriteFile(ok, []byte("package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println(\"ran\") }\n"), 0644))
	bad := filepath.Join(dir, "bad.go")
	require.NoError(t, os.WriteFile(bad, []byte("package main\n\nimport \"os\"\n\nfunc main() { os.Stderr.WriteString(\"boom\\n\"); os.Exit(3) }\n"), 0644))

	cfg := Config{Timeout: 2 * time.Minute, WorkingDir: dir}

	out, err := executeGoRunner(context.Background(), cfg, map[string]any{"script_path": ok})
	require.NoError(t, err)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "ran\n", out["output"])

	out, err = executeGoRunner(context.Background(), cfg, map[string]any{"script_path": bad})
	require.NoError(t, err)
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["stderr"], "boom")
}

func TestGoRunner_InputErrors(t *testing.T) {
	_, err := executeGoRunner(context.Background(), Config{}, map[string]any{})
	assert.ErrorContains(t, err, "script_path")

	_, err = executeGoRunner(context.Background(), Config{}, map[string]any{"script_path": "/nonexistent/main.go"})
	assert.ErrorContains(t, err, "file not found")
}

func TestRegisterAll(t *testing.T) {
	reg := tools.NewRegistry()
	require.NoError(t, RegisterAll(reg, Config{}))
	assert.Equal(t, []string{"exiftool_interface", "go_runner_tool"}, reg.Names())
}

func TestTruncate(t *testing.T) {
	short := "héllo"
	assert.Equal(t, short, truncate(short))

	// A two-byte rune straddles the limit.
	s := strings.Repeat("a", maxOutputBytes-1) + "é" + "tail"
	got := truncate(s)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", maxOutputBytes-1)+"\n...[truncated]", got)

	exact := strings.Repeat("b", maxOutputBytes+10)
	assert.Equal(t, strings.Repeat("b", maxOutputBytes)+"\n...[truncated]", truncate(exact))
}
