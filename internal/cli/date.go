package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordkit/pkg/dateformat"
)

func newDateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "date",
		Short: "Convert and format date-times across zones",
	}
	cmd.AddCommand(newDateConvertCmd())
	cmd.AddCommand(newDateFormatCmd())
	return cmd
}

func newDateConvertCmd() *cobra.Command {
	var opts dateformat.ConvertOptions
	cmd := &cobra.Command{
		Use:   "convert VALUE",
		Short: "Move a date-time from one zone to another",
		Long: "Parse VALUE in --from (default UTC) and print it in --to (default the\n" +
			"configured time_zone) using the Go layout --layout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			f := dateformat.New(cfg.TimeZone, nil, newLogger(cmd.ErrOrStderr()))
			out, _ := f.Convert(args[0], opts).(string)
			if out == "" {
				return fmt.Errorf("could not convert %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.From, "from", "", "zone of VALUE (default UTC)")
	cmd.Flags().StringVar(&opts.To, "to", "", "zone of the output (default time_zone)")
	cmd.Flags().StringVar(&opts.Layout, "layout", "", "Go layout of the output (default \"2006-01-02 15:04:05\")")
	cmd.Flags().BoolVar(&opts.SkipZeroTime, "skip-zero-time", false, "omit the time when it is midnight")
	return cmd
}

func newDateFormatCmd() *cobra.Command {
	var tz, template, pattern, locale string
	cmd := &cobra.Command{
		Use:   "format VALUE",
		Short: "Render a date-time through a template",
		Long: "Render VALUE, read in --tz (default time_zone), with a placeholder\n" +
			"template such as \"{weekdayName}, {day} {monthName} {year}\" or with a\n" +
			"strftime --pattern such as \"%Y-%m-%d %H:%M\".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			f := dateformat.New(cfg.TimeZone, nil, newLogger(cmd.ErrOrStderr()))
			if tz == "" {
				tz = cfg.TimeZone
			}
			var out string
			if pattern != "" {
				out = f.Strftime(args[0], tz, pattern)
			} else {
				out = f.Format(args[0], tz, template, locale)
			}
			if out == "" {
				return fmt.Errorf("could not format %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&tz, "tz", "", "zone of VALUE and of the output (default time_zone)")
	cmd.Flags().StringVar(&template, "template", "", "placeholder template (default \""+dateformat.DefaultTemplate+"\")")
	cmd.Flags().StringVar(&pattern, "pattern", "", "strftime pattern; overrides --template")
	cmd.Flags().StringVar(&locale, "locale", "", "locale of month and weekday names")
	return cmd
}
