package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordkit/pkg/identifier"
)

func newIdentifierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "identifier",
		Aliases: []string{"id"},
		Short:   "Generate random identifiers",
	}
	cmd.AddCommand(newIdentifierGenerateCmd())
	return cmd
}

type identifierOptions struct {
	length           int
	count            int
	charset          string
	prefix           string
	suffix           string
	excludeLookAlike bool
	excludeLowercase bool
	eachOnce         bool
}

func newIdentifierGenerateCmd() *cobra.Command {
	var opts identifierOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print one or more identifiers",
		Long: "Generate identifiers of the form prefix + random body + suffix. Flags\n" +
			"override the identifier section of config.yaml.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentifierGenerate(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&opts.length, "length", "n", 0, "maximum identifier length including prefix and suffix")
	f.IntVarP(&opts.count, "count", "c", 1, "number of identifiers to print")
	f.StringVar(&opts.charset, "charset", "", "characters the random body is drawn from")
	f.StringVar(&opts.prefix, "prefix", "", "identifier prefix")
	f.StringVar(&opts.suffix, "suffix", "", "identifier suffix")
	f.BoolVar(&opts.excludeLookAlike, "exclude-look-alike", false, "drop characters that are easy to confuse")
	f.BoolVar(&opts.excludeLowercase, "exclude-lowercase", false, "drop lowercase characters")
	f.BoolVar(&opts.eachOnce, "each-once", false, "use every character at most once")
	return cmd
}

func runIdentifierGenerate(cmd *cobra.Command, opts identifierOptions) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ic := cfg.Identifier
	f := cmd.Flags()
	if f.Changed("length") {
		ic.MaximumLength = opts.length
	}
	if f.Changed("charset") {
		ic.Charset = opts.charset
	}
	if f.Changed("prefix") {
		ic.Prefix = opts.prefix
	}
	if f.Changed("suffix") {
		ic.Suffix = opts.suffix
	}
	if f.Changed("exclude-look-alike") {
		ic.ExcludeLookAlike = opts.excludeLookAlike
	}
	if f.Changed("exclude-lowercase") {
		ic.ExcludeLowercase = opts.excludeLowercase
	}
	if f.Changed("each-once") {
		ic.EachCharacterOnce = opts.eachOnce
	}
	if ic.MaximumLength < 1 {
		return fmt.Errorf("--length must be at least 1")
	}
	if opts.count < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	creator := identifier.NewCreator(ic)
	creator.Logger = newLogger(cmd.ErrOrStderr())
	ids := make([]string, 0, opts.count)
	for range opts.count {
		id, err := creator.Generate(ic.MaximumLength)
		if err != nil {
			return fmt.Errorf("generate identifier: %w", err)
		}
		ids = append(ids, id)
	}

	if flags.jsonMode {
		return render(cmd.OutOrStdout(), ids)
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}
