package toolstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"toolforge/internal/logging"
)

// SourceExt is the file extension of unit sources in a DirStore.
const SourceExt = ".go"

// DirStore keeps one `<name>.go` file per tool in a directory.
type DirStore struct {
	dir string
}

// NewDirStore creates the directory if needed and returns a store over it.
func NewDirStore(dir string) (*DirStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &DirStore{dir: abs}, nil
}

// Dir returns the absolute directory backing the store.
func (s *DirStore) Dir() string {
	return s.dir
}

// Path returns the file path for name. The name must already be validated.
func (s *DirStore) Path(name string) string {
	return filepath.Join(s.dir, name+SourceExt)
}

func (s *DirStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	info, err := os.Stat(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (s *DirStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read unit %s: %w", name, err)
	}
	return data, nil
}

func (s *DirStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list store: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := NameFromFile(entry.Name())
		if !ok {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Create writes the source to a hidden temp file and hard-links it into
// place. The link fails if the name exists, so two concurrent creators of the
// same name cannot both succeed and readers never see a partial file.
func (s *DirStore) Create(ctx context.Context, name string, code []byte) error {
	if err := checkName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create unit %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(code); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write unit %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close unit %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to chmod unit %s: %w", name, err)
	}

	if err := os.Link(tmpPath, s.Path(name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
		}
		return fmt.Errorf("failed to publish unit %s: %w", name, err)
	}

	logging.Store("Created unit %s (%d bytes)", name, len(code))
	return nil
}

// NameFromFile maps a store file name to its tool name.
// Test files, hidden files and non-identifiers are skipped.
func NameFromFile(file string) (string, bool) {
	base := filepath.Base(file)
	if !strings.HasSuffix(base, SourceExt) || strings.HasSuffix(base, "_test.go") {
		return "", false
	}
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "__") {
		return "", false
	}
	name := strings.TrimSuffix(base, SourceExt)
	if checkName(name) != nil {
		return "", false
	}
	return name, true
}
