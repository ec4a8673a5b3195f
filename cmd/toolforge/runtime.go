package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"toolforge/internal/autopoiesis"
	"toolforge/internal/config"
	"toolforge/internal/dispatch"
	"toolforge/internal/logging"
	"toolforge/internal/tools"
	"toolforge/internal/tools/core"
	"toolforge/internal/tools/meta"
	"toolforge/internal/tools/research"
	"toolforge/internal/tools/shell"
	"toolforge/internal/toolstore"
)

// runtime is the in-process tool system: store, registry, loader and
// dispatcher wired from config.
type runtime struct {
	store      toolstore.Store
	dirStore   *toolstore.DirStore // nil for non-directory backends
	registry   *tools.Registry
	loader     *autopoiesis.Loader
	dispatcher *dispatch.Dispatcher
	closers    []io.Closer
}

// newRuntime builds the runtime and registers built-ins. Store units are
// not loaded until scan is called.
func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{registry: tools.NewRegistry()}

	if err := rt.openStore(cfg); err != nil {
		return nil, err
	}

	if err := rt.registerBuiltins(ctx, cfg); err != nil {
		rt.Close()
		return nil, err
	}

	loaderOpts := []autopoiesis.LoaderOption{
		autopoiesis.WithBlockedImports(cfg.Loader.BlockedImports...),
		autopoiesis.WithGoStatements(!cfg.Execution.Restricted),
	}
	if key := cfg.Integrations.Gemini.APIKey; key != "" {
		loaderOpts = append(loaderOpts, autopoiesis.WithUnitEnv("GOOGLE_API_KEY="+key))
	}
	rt.loader = autopoiesis.NewLoader(rt.store, loaderOpts...)
	rt.dispatcher = dispatch.New(rt.registry, rt.loader,
		autopoiesis.NewYaegiExecutor(cfg.Execution.Restricted),
		dispatch.WithInputValidation(cfg.Dispatch.ValidateInput),
	)
	return rt, nil
}

func (rt *runtime) openStore(cfg *config.Config) error {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.DatabasePath), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		s, err := toolstore.NewSQLiteStore(cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		rt.store = s
		rt.closers = append(rt.closers, s)
		logging.Boot("Unit store: sqlite %s", cfg.Store.DatabasePath)
	default:
		s, err := toolstore.NewDirStore(cfg.Store.Dir)
		if err != nil {
			return err
		}
		rt.store = s
		rt.dirStore = s
		logging.Boot("Unit store: directory %s", s.Dir())
	}
	return nil
}

func (rt *runtime) registerBuiltins(ctx context.Context, cfg *config.Config) error {
	if err := meta.RegisterAll(rt.registry, rt.store); err != nil {
		return fmt.Errorf("failed to register meta tools: %w", err)
	}
	if err := core.RegisterAll(rt.registry); err != nil {
		return fmt.Errorf("failed to register core tools: %w", err)
	}
	if err := shell.RegisterAll(rt.registry, shell.Config{
		Timeout:    cfg.GetProcessTimeout(),
		WorkingDir: cfg.Execution.WorkingDirectory,
	}); err != nil {
		return fmt.Errorf("failed to register shell tools: %w", err)
	}

	if cfg.IsGeminiEnabled() {
		g := cfg.Integrations.Gemini
		client, err := research.NewGeminiClient(ctx, g.APIKey, g.Model, cfg.GetGeminiTimeout())
		if err != nil {
			logging.BootWarn("Gemini disabled: %v", err)
		} else if err := research.RegisterAll(rt.registry, client); err != nil {
			return fmt.Errorf("failed to register research tools: %w", err)
		}
	} else {
		logging.BootDebug("gemini_query_tool not registered (no API key)")
	}

	logging.Boot("Registered %d built-in tools", rt.registry.Count())
	return nil
}

// scan loads every unit in the store. Failures are logged, not returned.
func (rt *runtime) scan(ctx context.Context, concurrency int) (*autopoiesis.LoadReport, error) {
	report, err := rt.loader.LoadAll(ctx, rt.registry, concurrency)
	if err != nil {
		return nil, err
	}
	for name, lerr := range report.Failed {
		logging.LoaderWarn("Skipping %s: %v", name, lerr)
	}
	return report, nil
}

// Close releases the store.
func (rt *runtime) Close() {
	for _, c := range rt.closers {
		if err := c.Close(); err != nil {
			logging.BootWarn("close failed: %v", err)
		}
	}
}
