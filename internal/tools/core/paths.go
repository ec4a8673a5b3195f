package core

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// maxReportedMatches caps the candidates listed in an ambiguity error.
const maxReportedMatches = 50

// ExpandPath applies ~ and $VAR expansion and cleans the result.
func ExpandPath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), `"'`)
	p = expandUser(p)
	p = os.ExpandEnv(p)
	return filepath.Clean(p)
}

func expandUser(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return home + p[1:]
	}

	name, rest, _ := strings.Cut(p[1:], "/")
	u, err := user.Lookup(name)
	if err != nil {
		return p
	}
	if rest == "" {
		return u.HomeDir
	}
	return filepath.Join(u.HomeDir, rest)
}

func hasGlobMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// ResolveFile turns a user-supplied path into exactly one existing file.
// Glob patterns, including **, must match a single file.
func ResolveFile(raw string) (string, error) {
	expanded := ExpandPath(raw)

	candidate := expanded
	if hasGlobMeta(expanded) {
		matches, err := doublestar.FilepathGlob(expanded, doublestar.WithFilesOnly())
		if err != nil {
			return "", fmt.Errorf("invalid glob %q: %w", raw, err)
		}
		switch len(matches) {
		case 0:
			return "", fmt.Errorf("no files match path: %s (expanded: %s)", raw, expanded)
		case 1:
			candidate = matches[0]
		default:
			sort.Strings(matches)
			if len(matches) > maxReportedMatches {
				matches = matches[:maxReportedMatches]
			}
			return "", fmt.Errorf("ambiguous path matched multiple files: %s", strings.Join(matches, ", "))
		}
	}

	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", raw, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found at path: %s (expanded: %s)", raw, candidate)
		}
		return "", fmt.Errorf("failed to resolve %s: %w", raw, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", resolved, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is not a file: %s", resolved)
	}
	return resolved, nil
}
