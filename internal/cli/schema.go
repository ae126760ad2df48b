package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordkit/internal/sqlite"
	"github.com/mesh-intelligence/recordkit/pkg/schema"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Derive constraint names and inspect the SQLite host",
	}
	cmd.AddCommand(newSchemaFKNameCmd())
	cmd.AddCommand(newSchemaIndexNameCmd())
	cmd.AddCommand(newSchemaCheckCmd())
	return cmd
}

func newSchemaFKNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fk-name TABLE COLUMNS",
		Short: "Print the conventional foreign key name",
		Long:  "COLUMNS is a comma separated list, e.g. \"customer_id,region_id\".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), schema.ForeignKeyName(args[0], schema.SplitColumns(args[1]), ""))
			return nil
		},
	}
}

func newSchemaIndexNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index-name COLUMNS",
		Short: "Print the conventional index name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), schema.IndexName(schema.SplitColumns(args[0]), ""))
			return nil
		},
	}
}

// checkResult is the output of schema check.
type checkResult struct {
	Table       string `json:"table" yaml:"table"`
	Exists      bool   `json:"exists" yaml:"exists"`
	Columns     bool   `json:"columns" yaml:"columns"`
	ForeignKeys bool   `json:"foreign_keys" yaml:"foreign_keys"`
}

func newSchemaCheckCmd() *cobra.Command {
	var columns, foreignKeys []string
	var prefix bool
	cmd := &cobra.Command{
		Use:   "check TABLE",
		Short: "Report whether a table, its columns and foreign keys exist",
		Long: "Attach the SQLite host and check TABLE. Each --fk value is a comma\n" +
			"separated column list; the conventional constraint name is derived\n" +
			"from it. With --prefix the configured table prefix is applied.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			backend := sqlite.NewBackend()
			backend.Logger = newLogger(cmd.ErrOrStderr())
			if err := backend.Attach(cfg); err != nil {
				return fmt.Errorf("attach: %w", err)
			}
			defer backend.Detach()

			table := args[0]
			res := checkResult{Table: table}
			if res.Exists, err = schema.TablesExist(backend, []string{table}, prefix); err != nil {
				return err
			}
			if res.Columns, err = schema.ColumnsExist(backend, table, columns, prefix); err != nil {
				return err
			}
			if res.ForeignKeys, err = schema.ForeignKeysExist(backend, table, foreignKeys, true, prefix); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringSliceVar(&columns, "column", nil, "column that must exist (repeatable)")
	cmd.Flags().StringArrayVar(&foreignKeys, "fk", nil, "foreign key columns that must be constrained (repeatable)")
	cmd.Flags().BoolVar(&prefix, "prefix", false, "apply the configured table prefix")
	return cmd
}
