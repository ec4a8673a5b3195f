// Package toolstore persists tool unit sources keyed by tool name.
//
// The store is the durable half of the self-extension loop: tool_creator
// writes new entries here and the loader reads them back. Entries are never
// overwritten or deleted through this package.
package toolstore

import (
	"context"
	"errors"
	"fmt"

	"toolforge/internal/tools"
)

// Store errors.
var (
	// ErrNotFound is returned when no entry exists for a name.
	ErrNotFound = errors.New("unit not found in store")

	// ErrAlreadyExists is returned by Create for an existing name.
	ErrAlreadyExists = errors.New("unit already exists in store")

	// ErrInvalidName is returned for names that are not tool identifiers.
	ErrInvalidName = errors.New("invalid unit name")
)

// Store is a durable keyed blob store holding one source entry per tool.
type Store interface {
	// Exists reports whether an entry for name is present.
	Exists(ctx context.Context, name string) (bool, error)

	// Read returns the raw source of name, or ErrNotFound.
	Read(ctx context.Context, name string) ([]byte, error)

	// List returns every stored name, sorted.
	List(ctx context.Context) ([]string, error)

	// Create stores a new entry. It fails with ErrAlreadyExists and leaves
	// the store untouched if name is already present.
	Create(ctx context.Context, name string, code []byte) error
}

func checkName(name string) error {
	if !tools.ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
