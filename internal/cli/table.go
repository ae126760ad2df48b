package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordkit/internal/sqlite"
	"github.com/mesh-intelligence/recordkit/pkg/schema"
)

func newTableCmd() *cobra.Command {
	var prefix bool
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Count, export and import rows of a SQLite host table",
	}
	cmd.PersistentFlags().BoolVar(&prefix, "prefix", false, "apply the configured table prefix")

	open := func(cmd *cobra.Command, name string) (*sqlite.Backend, *sqlite.Table, error) {
		cfg, _, err := loadConfig()
		if err != nil {
			return nil, nil, err
		}
		backend := sqlite.NewBackend()
		backend.Logger = newLogger(cmd.ErrOrStderr())
		if err := backend.Attach(cfg); err != nil {
			return nil, nil, fmt.Errorf("attach: %w", err)
		}
		if prefix {
			name = schema.PrefixedTable(name)
		}
		tbl, err := backend.Table(name)
		if err != nil {
			backend.Detach()
			return nil, nil, err
		}
		return backend, tbl, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "count TABLE",
		Short: "Print the number of rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, tbl, err := open(cmd, args[0])
			if err != nil {
				return err
			}
			defer backend.Detach()
			n, err := tbl.Count(nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "export TABLE FILE",
		Short: "Write every row to a JSONL file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, tbl, err := open(cmd, args[0])
			if err != nil {
				return err
			}
			defer backend.Detach()
			return tbl.Export(args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import TABLE FILE",
		Short: "Insert or replace rows from a JSONL file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, tbl, err := open(cmd, args[0])
			if err != nil {
				return err
			}
			defer backend.Detach()
			n, err := tbl.Import(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows into %s\n", n, tbl.Name())
			return nil
		},
	})
	return cmd
}
