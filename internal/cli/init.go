package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordkit/internal/config"
	"github.com/mesh-intelligence/recordkit/internal/paths"
	"github.com/mesh-intelligence/recordkit/internal/sqlite"
)

func newInitCmd() *cobra.Command {
	var user bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and the SQLite host",
		Long: "Write config.yaml when it is missing, then create the data directory and\n" +
			"the database file. With --user the platform directories are used instead\n" +
			"of the working directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, user)
		},
	}
	cmd.Flags().BoolVar(&user, "user", false, "use the per-user config and data directories")
	return cmd
}

func runInit(cmd *cobra.Command, user bool) error {
	if user {
		if flags.configDir == "" {
			dir, err := paths.DefaultConfigDir()
			if err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("resolve config directory: %s", err))
			}
			flags.configDir = dir
		}
		if flags.dataDir == "" {
			dir, err := paths.DefaultDataDir()
			if err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("resolve data directory: %s", err))
			}
			flags.dataDir = dir
		}
	}

	cfg, configDir, err := loadConfig()
	if err != nil {
		return err
	}

	written, err := config.WriteDefault(configDir, cfg)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("write config: %s", err))
	}

	backend := sqlite.NewBackend()
	backend.Logger = newLogger(cmd.ErrOrStderr())
	if err := backend.Attach(cfg); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("initialize storage: %s", err))
	}
	if err := backend.Detach(); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("finalize storage: %s", err))
	}

	out := cmd.OutOrStdout()
	if written {
		fmt.Fprintf(out, "Wrote %s\n", config.FileName)
	}
	fmt.Fprintf(out, "Data directory %s initialized\n", cfg.DataDir)
	return nil
}
