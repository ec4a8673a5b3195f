package main

import (
	"fmt"
	"os"

	"toolforge/internal/config"
	"toolforge/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	storeDir   string
	serverURL  string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "toolforge",
	Short: "toolforge - hot-reloadable tool registry and dispatcher",
	Long: `toolforge serves named tools over HTTP and lets new tools be written,
saved and activated while it keeps running.

Tools are Go source files in the unit store, interpreted on load. The
built-in tool_creator saves a new unit and the dispatcher activates it
before the request that created it returns.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if storeDir != "" {
			cfg.Store.Backend = config.BackendDir
			cfg.Store.Dir = storeDir
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if verbose {
			cfg.Logging.DebugMode = true
			cfg.Logging.Level = "debug"
		} else if cmd.Name() != serveCmd.Name() {
			// One-shot commands print results on stdout; keep stderr quiet.
			cfg.Logging.Level = "warn"
		}
		if err := logging.Initialize(cfg.Logging.ToLoggingOptions()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logging.Zap()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store", "", "Unit store directory (overrides config, forces the dir backend)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Talk to a running toolforge at this URL instead of an in-process runtime")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(reloadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
