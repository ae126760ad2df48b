// Package cli implements the recordkit command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/recordkit/internal/config"
	"github.com/mesh-intelligence/recordkit/internal/paths"
	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string

	// logLevelSet is true when --log-level was given explicitly; otherwise
	// the config file's log_level applies.
	logLevelSet bool
}

var flags rootFlags

// NewRootCmd creates the top-level "recordkit" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags = rootFlags{}
	root := &cobra.Command{
		Use:   "recordkit",
		Short: "Record helpers: identifiers, schema names, dates, sizes and enumerations",
		Long: "recordkit generates identifiers, derives constraint names, converts dates\n" +
			"between zones, parses size limits and inspects the reference SQLite host.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(flags.logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level %q", flags.logLevel)
			}
			flags.logLevelSet = cmd.Flags().Changed("log-level")
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .recordkit-db)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format instead of YAML")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", types.DefaultLogLevel, "log level: debug, info, warn or error")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newIdentifierCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newDateCmd())
	root.AddCommand(newSizeCmd())
	root.AddCommand(newEnumCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newTableCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// newLogger returns a text logger on w at the --log-level level.
func newLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flags.logLevel)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig resolves the config directory and loads config.yaml. The
// --data-dir flag and the config file's data_dir are resolved to an absolute
// path. Without --log-level the file's log_level is used for newLogger.
func loadConfig() (types.Config, string, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return types.Config{}, "", fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return types.Config{}, "", err
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, cfg.DataDir)
	if err != nil {
		return types.Config{}, "", fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir
	if !flags.logLevelSet && cfg.LogLevel != "" {
		flags.logLevel = cfg.LogLevel
	}
	return cfg, configDir, nil
}

// render writes v as YAML, or as indented JSON with --json.
func render(w io.Writer, v any) error {
	if flags.jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// exitError prints the error to stderr and exits with the given code.
func exitError(cmd *cobra.Command, code int, msg string) error {
	fmt.Fprintln(cmd.ErrOrStderr(), msg)
	os.Exit(code)
	return nil // unreachable
}
