// Package autopoiesis implements self-extension for toolforge: turning unit
// sources from the store into live tools, and running caller-supplied code.
//
// Units are Go source interpreted with Yaegi. Each load builds a fresh
// interpreter, so a reload never sees state left behind by an earlier load
// of the same (or any other) unit.
//
// Unit contract:
//
//	func Invoke(input map[string]any) (map[string]any, error)   // required
//	func Describe() map[string]any                              // optional
//
// Invoke may also return a bare map[string]any.
package autopoiesis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"time"

	"toolforge/internal/logging"
	"toolforge/internal/tools"
	"toolforge/internal/toolstore"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"golang.org/x/sync/errgroup"
)

// Loader resolves tool names to store entries and interprets them into tools.
type Loader struct {
	store          toolstore.Store
	blockedImports map[string]bool
	allowGo        bool
	env            []string
	toolOutput     io.Writer
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithBlockedImports rejects units importing any of pkgs.
// This is an authoring guard, not an isolation boundary.
func WithBlockedImports(pkgs ...string) LoaderOption {
	return func(l *Loader) {
		for _, p := range pkgs {
			l.blockedImports[p] = true
		}
	}
}

// WithGoStatements allows units to start goroutines. A panic on such a
// goroutine terminates the process, so units are refused by default.
func WithGoStatements(allowed bool) LoaderOption {
	return func(l *Loader) {
		l.allowGo = allowed
	}
}

// WithUnitEnv sets the environment units see through os.Getenv, as
// KEY=value pairs. Units see nothing else of the process environment.
func WithUnitEnv(env ...string) LoaderOption {
	return func(l *Loader) {
		l.env = append(l.env, env...)
	}
}

// WithToolOutput sets where interpreted units print to.
func WithToolOutput(w io.Writer) LoaderOption {
	return func(l *Loader) {
		l.toolOutput = w
	}
}

// NewLoader creates a loader over store.
func NewLoader(store toolstore.Store, opts ...LoaderOption) *Loader {
	l := &Loader{
		store:          store,
		blockedImports: make(map[string]bool),
		toolOutput:     logging.Writer(logging.CategoryTools),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load builds a new tool from the store entry for name.
// Every failure, including panics raised while interpreting the source,
// comes back as a *LoadError.
func (l *Loader) Load(ctx context.Context, name string) (tool *tools.Tool, err error) {
	defer func() {
		if r := recover(); r != nil {
			tool = nil
			err = newLoadError(LoadException, name, nil, "panic during load: %v", r)
		}
	}()

	logging.LoaderDebug("Loading unit %s", name)

	if name == tools.CodeExecutorName {
		return nil, newLoadError(LoadException, name, tools.ErrToolReserved, "%s is built in and cannot be loaded", name)
	}
	if !tools.ValidName(name) {
		return nil, newLoadError(LoadNotFound, name, toolstore.ErrInvalidName, "%q is not a valid tool name", name)
	}

	exists, err := l.store.Exists(ctx, name)
	if err != nil {
		return nil, newLoadError(LoadException, name, err, "store lookup failed: %v", err)
	}
	if !exists {
		return nil, newLoadError(LoadNotFound, name, toolstore.ErrNotFound, "no store entry for %s", name)
	}

	code, err := l.store.Read(ctx, name)
	if err != nil {
		if errors.Is(err, toolstore.ErrNotFound) {
			return nil, newLoadError(LoadNotFound, name, err, "store entry vanished: %v", err)
		}
		return nil, newLoadError(LoadException, name, err, "store read failed: %v", err)
	}

	src, pkg, err := prepareUnitSource(name, string(code))
	if err != nil {
		return nil, newLoadError(LoadException, name, err, "parse failed: %v", err)
	}
	if err := l.checkImports(name, src); err != nil {
		return nil, newLoadError(LoadException, name, err, "%v", err)
	}
	if !l.allowGo {
		if err := checkGoStatements(name+".go", src); err != nil {
			return nil, newLoadError(LoadException, name, err, "%v", err)
		}
	}

	i := interp.New(interp.Options{
		Stdout: l.toolOutput,
		Stderr: l.toolOutput,
		Env:    l.env,
	})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, newLoadError(LoadException, name, err, "failed to load stdlib: %v", err)
	}

	if _, err := i.EvalWithContext(ctx, src); err != nil {
		return nil, newLoadError(LoadException, name, err, "evaluation failed: %v", err)
	}

	invokeVal, err := i.EvalWithContext(ctx, pkg+".Invoke")
	if err != nil || !invokeVal.IsValid() {
		return nil, newLoadError(LoadMissingContract, name, err, "%s.Invoke is not defined", pkg)
	}
	execute, ok := adaptInvoke(invokeVal)
	if !ok {
		return nil, newLoadError(LoadMissingContract, name, nil,
			"%s.Invoke has signature %s (expected func(map[string]any) (map[string]any, error))", pkg, invokeVal.Type())
	}

	desc, err := describeUnit(ctx, i, pkg, name)
	if err != nil {
		return nil, newLoadError(LoadException, name, err, "%v", err)
	}

	sum := sha256.Sum256(code)
	tool = &tools.Tool{
		Name:        name,
		Description: desc.Description,
		Category:    tools.CategoryStore,
		Source:      tools.SourceStore,
		Execute:     execute,
		Schema:      desc.InputSchema,
		Hash:        hex.EncodeToString(sum[:]),
		LoadedAt:    time.Now(),
	}

	validator, err := tools.CompileSchema(name, desc.InputSchema)
	if err != nil {
		logging.LoaderWarn("Unit %s has an unusable input schema, validation disabled: %v", name, err)
	} else {
		tool.Validator = validator
	}

	logging.Loader("Loaded unit %s (hash=%s)", name, tool.Hash[:12])
	return tool, nil
}

// Activate loads name and installs it in reg. On failure reg is untouched,
// so a previously working tool of the same name stays servable.
func (l *Loader) Activate(ctx context.Context, reg *tools.Registry, name string) (*tools.Tool, error) {
	tool, err := l.Load(ctx, name)
	if err != nil {
		logging.LoaderWarn("Activation of %s failed: %v", name, err)
		return nil, err
	}
	if _, err := reg.Put(tool); err != nil {
		return nil, newLoadError(LoadException, name, err, "registry rejected unit: %v", err)
	}
	return tool, nil
}

// LoadReport summarizes a store scan.
type LoadReport struct {
	Loaded []string
	Failed map[string]error
}

// LoadAll activates every unit in the store, at most concurrency at a time.
// Failures are recorded and skipped; only a failure to list the store is
// returned as an error.
func (l *Loader) LoadAll(ctx context.Context, reg *tools.Registry, concurrency int) (*LoadReport, error) {
	names, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unit store: %w", err)
	}

	logging.Loader("Loading %d units from store", len(names))

	report := &LoadReport{Failed: make(map[string]error)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for _, name := range names {
		g.Go(func() error {
			_, err := l.Activate(gctx, reg, name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[name] = err
			} else {
				report.Loaded = append(report.Loaded, name)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.Loaded)
	logging.Loader("Store scan complete: %d loaded, %d failed", len(report.Loaded), len(report.Failed))
	return report, nil
}

// =============================================================================
// SOURCE PREPARATION
// =============================================================================

// prepareUnitSource returns the source to evaluate and its package name.
// A source without a package clause is placed in package main.
func prepareUnitSource(name, code string) (string, string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, name+".go", code, parser.PackageClauseOnly)
	if err == nil {
		return code, f.Name.Name, nil
	}

	wrapped := "package main\n\n" + code
	if _, err2 := parser.ParseFile(fset, name+".go", wrapped, parser.PackageClauseOnly); err2 != nil {
		return "", "", err
	}
	return wrapped, "main", nil
}

func (l *Loader) checkImports(name, src string) error {
	if len(l.blockedImports) == 0 {
		return nil
	}
	f, err := parser.ParseFile(token.NewFileSet(), name+".go", src, parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("import scan failed: %w", err)
	}

	var blocked []string
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		if l.blockedImports[path] {
			blocked = append(blocked, path)
		}
	}
	if len(blocked) > 0 {
		return fmt.Errorf("blocked imports: %v", blocked)
	}
	return nil
}

// =============================================================================
// CONTRACT ADAPTERS
// =============================================================================

func adaptInvoke(v reflect.Value) (tools.ExecuteFunc, bool) {
	switch fn := v.Interface().(type) {
	case func(map[string]interface{}) (map[string]interface{}, error):
		return func(ctx context.Context, input map[string]any) (map[string]any, error) {
			return fn(input)
		}, true
	case func(map[string]interface{}) map[string]interface{}:
		return func(ctx context.Context, input map[string]any) (map[string]any, error) {
			return fn(input), nil
		}, true
	default:
		return nil, false
	}
}

func describeUnit(ctx context.Context, i *interp.Interpreter, pkg, name string) (desc tools.Descriptor, err error) {
	desc = tools.Descriptor{Name: name, InputSchema: tools.EmptySchema()}

	v, evalErr := i.EvalWithContext(ctx, pkg+".Describe")
	if evalErr != nil || !v.IsValid() {
		// Describe is optional.
		return desc, nil
	}
	fn, ok := v.Interface().(func() map[string]interface{})
	if !ok {
		return desc, fmt.Errorf("%s.Describe has signature %s (expected func() map[string]any)", pkg, v.Type())
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s.Describe panicked: %v", pkg, r)
		}
	}()
	meta := fn()

	if reported, _ := meta["name"].(string); reported != "" && reported != name {
		logging.LoaderWarn("Unit %s describes itself as %q; using store name", name, reported)
	}
	if d, ok := meta["description"].(string); ok {
		desc.Description = d
	}
	if raw, present := meta["input_schema"]; present {
		schema, ok := raw.(map[string]interface{})
		if !ok {
			return desc, fmt.Errorf("%s.Describe input_schema must be a map, got %T", pkg, raw)
		}
		desc.InputSchema = schema
	}
	return desc, nil
}
