package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordkit/pkg/files"
)

func newSizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Parse and format byte sizes",
	}
	cmd.AddCommand(newSizeParseCmd())
	cmd.AddCommand(newSizeFormatCmd())
	cmd.AddCommand(newSizeLimitCmd())
	return cmd
}

func newSizeParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse SIZE",
		Short: "Print the byte count of a size such as \"2M\" or \"1.5g\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := files.ParseSize(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(n, 'f', -1, 64))
			return nil
		},
	}
}

func newSizeFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format BYTES",
		Short: "Print a byte count in binary units",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid byte count %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), files.FormatSize(n))
			return nil
		},
	}
}

func newSizeLimitCmd() *cobra.Command {
	var postMax, uploadMax string
	var userLimit int64
	cmd := &cobra.Command{
		Use:   "limit",
		Short: "Print the effective upload limit in bytes",
		Long: "--post-max is the starting point and a lower --upload-max replaces it.\n" +
			"--user-limit caps the result. -1 means no limit is known.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var limit *int64
			if cmd.Flags().Changed("user-limit") {
				limit = &userLimit
			}
			n, err := files.UploadMaxSize(postMax, uploadMax, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(n, 'f', -1, 64))
			return nil
		},
	}
	cmd.Flags().StringVar(&postMax, "post-max", "", "request body limit, e.g. \"8M\"")
	cmd.Flags().StringVar(&uploadMax, "upload-max", "", "per-file limit, e.g. \"2M\"")
	cmd.Flags().Int64Var(&userLimit, "user-limit", 0, "application limit in bytes")
	return cmd
}
