package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordkit/pkg/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the configured cache",
	}
	cmd.AddCommand(newCacheClearCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "clear TYPE...",
		Short: "Invalidate everything cached for record types",
		Long: "Invalidate the type tag of each TYPE in the cache named by config.yaml.\n" +
			"With --tag only TYPE.TAG is invalidated for each TYPE, so --tag common\n" +
			"clears the common set and --tag 42 the entries of record 42.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr())
			backend := cache.Open(cfg.Cache, logger)
			if closer, ok := backend.(io.Closer); ok {
				defer closer.Close()
			}
			for _, name := range args {
				c := cache.NewTagCache(name, backend)
				c.Logger = logger
				if len(tags) > 0 {
					qualified := make([]string, len(tags))
					for i, tag := range tags {
						qualified[i] = name + "." + tag
					}
					err = c.ClearByTags(qualified...)
				} else {
					err = c.InvalidateAll()
				}
				if err != nil {
					return fmt.Errorf("clear %s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to invalidate under each TYPE (repeatable)")
	return cmd
}
