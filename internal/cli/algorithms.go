package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowpack/pkg/layout"
)

// algorithmInfo is the JSON form of one algorithm.
type algorithmInfo struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Default     bool              `json:"default"`
	Options     map[string]string `json:"options"`
}

// algorithmsCommand creates the algorithms command.
func (c *CLI) algorithmsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "algorithms",
		Short: "List the layout algorithms and their tuning",
		Long: `List the layout algorithms and their tuning.

The tuning column shows the options each algorithm adds over the common
defaults. Any of them can be overridden with "layout --set key=value" or
in the [overrides] table of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return c.writeAlgorithmsJSON()
			}
			fmt.Fprintln(c.Out, algorithmTable())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (c *CLI) writeAlgorithmsJSON() error {
	out := make([]algorithmInfo, len(layout.Algorithms))
	for i, a := range layout.Algorithms {
		out[i] = algorithmInfo{
			Name:        a.String(),
			Description: a.Description(),
			Default:     a == layout.DefaultAlgorithm,
			Options:     layout.Options(a, nil),
		}
	}
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
