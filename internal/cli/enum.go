package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/recordkit/pkg/enum"
	"github.com/mesh-intelligence/recordkit/pkg/i18n"
)

// enumFile is the YAML (or JSON) layout read by enum show.
type enumFile struct {
	Category string `yaml:"category"`
	Entries  []struct {
		Code  int    `yaml:"code"`
		Label string `yaml:"label"`
	} `yaml:"entries"`
	// Translations maps locale -> label -> translated label.
	Translations map[string]map[string]string `yaml:"translations"`
}

func newEnumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enum",
		Short: "Inspect enumeration definitions",
	}
	cmd.AddCommand(newEnumShowCmd())
	return cmd
}

func newEnumShowCmd() *cobra.Command {
	var locale string
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print the codes and labels of an enumeration file",
		Long: "FILE lists entries (code, label) in declaration order and, optionally,\n" +
			"translations per locale. Labels are rendered for --locale.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnumFile(args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), e.Labels(locale))
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "", "locale of the labels")
	return cmd
}

// loadEnumFile builds a translated Enumeration from path.
func loadEnumFile(path string) (*enum.Enumeration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read enumeration: %w", err)
	}
	var f enumFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse enumeration %s: %w", path, err)
	}
	if f.Category == "" {
		f.Category = "app"
	}

	catalog := i18n.NewCatalog("en")
	for locale, messages := range f.Translations {
		if err := catalog.SetAll(locale, f.Category, messages); err != nil {
			return nil, fmt.Errorf("translations: %w", err)
		}
	}

	messages := make(map[int]string, len(f.Entries))
	order := make([]int, 0, len(f.Entries))
	for _, entry := range f.Entries {
		if _, dup := messages[entry.Code]; !dup {
			order = append(order, entry.Code)
		}
		messages[entry.Code] = entry.Label
	}
	return enum.Translated(catalog, f.Category, messages, order...), nil
}
