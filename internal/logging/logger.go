// Package logging provides config-driven categorized logging for toolforge.
// Every subsystem logs through a category logger backed by a shared zap core.
// Until Initialize is called all loggers are no-ops, which keeps tests quiet.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config, shutdown
	CategoryRegistry  Category = "registry"  // Tool registration and hot-swap
	CategoryLoader    Category = "loader"    // Unit loading from the store
	CategoryDispatch  Category = "dispatch"  // Request routing and self-extension
	CategoryExecutor  Category = "executor"  // go_executor runs
	CategoryStore     Category = "store"     // Unit store reads/writes
	CategoryWatcher   Category = "watcher"   // Store file watching
	CategoryTools     Category = "tools"     // Built-in and interpreted tool bodies
	CategoryTransport Category = "transport" // HTTP envelope handling
)

// Options mirrors config.LoggingConfig to avoid circular imports.
type Options struct {
	Level      string          // debug, info, warn, error
	JSONFormat bool            // JSON encoder instead of console
	DebugMode  bool            // false = nothing is written
	Categories map[string]bool // per-category toggles; missing means enabled
	OutputPath string          // defaults to stderr
}

// Logger is a category-scoped sugared zap logger.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu         sync.RWMutex
	base       = zap.NewNop()
	level      = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	categories map[string]bool
	loggers    = make(map[Category]*Logger)
)

// Initialize builds the shared zap logger from opts.
// With DebugMode off the logger stays a no-op.
func Initialize(opts Options) error {
	if !opts.DebugMode {
		UseLogger(zap.NewNop(), nil)
		return nil
	}

	lvl, err := parseLevel(opts.Level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	if !opts.JSONFormat {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	if opts.OutputPath != "" {
		cfg.OutputPaths = []string{opts.OutputPath}
	}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	level = cfg.Level
	mu.Unlock()
	UseLogger(logger, opts.Categories)

	Boot("logging initialized (level=%s, json=%v)", lvl, opts.JSONFormat)
	return nil
}

// UseLogger installs a prebuilt zap logger, e.g. a zaptest/observer core.
func UseLogger(l *zap.Logger, cats map[string]bool) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	base = l
	categories = cats
	loggers = make(map[Category]*Logger)
}

// SetLevel changes the minimum level at runtime.
func SetLevel(l string) error {
	lvl, err := parseLevel(l)
	if err != nil {
		return err
	}
	mu.RLock()
	defer mu.RUnlock()
	level.SetLevel(lvl)
	return nil
}

// Zap returns the underlying zap logger.
func Zap() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered entries.
func Sync() {
	_ = Zap().Sync()
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if categories == nil {
		return true
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Disabled categories get a no-op logger.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	enabled := IsCategoryEnabled(category)

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	zl := zap.NewNop()
	if enabled {
		zl = base.Named(string(category))
	}
	l := &Logger{category: category, sugar: zl.Sugar()}
	loggers[category] = l
	return l
}

// With returns a child logger carrying structured key/value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

func parseLevel(l string) (zapcore.Level, error) {
	switch strings.ToLower(l) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", l)
	}
}

// =============================================================================
// WRITER ADAPTER
// =============================================================================

// Writer returns an io.Writer that logs each complete line at info level.
// Interpreted tools print through it instead of the process stdout.
func Writer(category Category) io.Writer {
	return &lineWriter{logger: Get(category)}
}

type lineWriter struct {
	mu     sync.Mutex
	logger *Logger
	buf    bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line; keep it for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.logger.Info("%s", strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }
func BootWarn(format string, args ...interface{})  { Get(CategoryBoot).Warn(format, args...) }
func BootError(format string, args ...interface{}) { Get(CategoryBoot).Error(format, args...) }

func Registry(format string, args ...interface{})      { Get(CategoryRegistry).Info(format, args...) }
func RegistryDebug(format string, args ...interface{}) { Get(CategoryRegistry).Debug(format, args...) }

func Loader(format string, args ...interface{})      { Get(CategoryLoader).Info(format, args...) }
func LoaderDebug(format string, args ...interface{}) { Get(CategoryLoader).Debug(format, args...) }
func LoaderWarn(format string, args ...interface{})  { Get(CategoryLoader).Warn(format, args...) }
func LoaderError(format string, args ...interface{}) { Get(CategoryLoader).Error(format, args...) }

func Dispatch(format string, args ...interface{})      { Get(CategoryDispatch).Info(format, args...) }
func DispatchDebug(format string, args ...interface{}) { Get(CategoryDispatch).Debug(format, args...) }
func DispatchWarn(format string, args ...interface{})  { Get(CategoryDispatch).Warn(format, args...) }

func Executor(format string, args ...interface{})      { Get(CategoryExecutor).Info(format, args...) }
func ExecutorDebug(format string, args ...interface{}) { Get(CategoryExecutor).Debug(format, args...) }

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }

func Watcher(format string, args ...interface{})      { Get(CategoryWatcher).Info(format, args...) }
func WatcherDebug(format string, args ...interface{}) { Get(CategoryWatcher).Debug(format, args...) }
func WatcherError(format string, args ...interface{}) { Get(CategoryWatcher).Error(format, args...) }

func Tools(format string, args ...interface{})      { Get(CategoryTools).Info(format, args...) }
func ToolsDebug(format string, args ...interface{}) { Get(CategoryTools).Debug(format, args...) }

func Transport(format string, args ...interface{})      { Get(CategoryTransport).Info(format, args...) }
func TransportDebug(format string, args ...interface{}) { Get(CategoryTransport).Debug(format, args...) }
