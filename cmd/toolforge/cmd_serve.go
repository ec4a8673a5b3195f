package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"toolforge/internal/config"
	"toolforge/internal/logging"
	"toolforge/internal/mcp"
	"toolforge/internal/toolstore"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP tool server",
	Long: `Loads every unit in the store, then serves:

  POST /mcp                   tool requests
  GET  /tools                 tool descriptors
  POST /tools/{name}/reload   reload one unit from the store
  GET  /healthz               liveness

With a directory store and store.watch enabled, edited units are
reloaded automatically.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.scan(ctx, cfg.Loader.Concurrency)
	if err != nil {
		return err
	}
	logger.Info("unit store scanned",
		zap.Int("loaded", len(report.Loaded)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("tools", rt.registry.Count()))

	if w, err := startWatcher(ctx, cfg, rt); err != nil {
		return err
	} else if w != nil {
		defer w.Stop()
	}

	srv := newHTTPServer(cfg, rt)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func newHTTPServer(cfg *config.Config, rt *runtime) *http.Server {
	handler := mcp.NewServer(rt.dispatcher, rt.loader,
		mcp.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
	).Handler()

	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}
}

// startWatcher reloads units as they change on disk. It returns nil when the
// backend is not a directory or watching is disabled.
func startWatcher(ctx context.Context, cfg *config.Config, rt *runtime) (*toolstore.Watcher, error) {
	if rt.dirStore == nil || !cfg.Store.Watch {
		return nil, nil
	}

	w, err := toolstore.NewWatcher(rt.dirStore, func(ctx context.Context, name string) {
		tool, err := rt.loader.Activate(ctx, rt.registry, name)
		if err != nil {
			logging.LoaderWarn("Reload of %s failed, keeping previous version: %v", name, err)
			return
		}
		logging.Loader("Reloaded %s (%s)", name, shortHash(tool.Hash))
	})
	if err != nil {
		return nil, err
	}
	w.SetDebounce(cfg.GetWatchDebounce())
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
