package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowpack/pkg/diagram"
	"github.com/matzehuels/flowpack/pkg/measure"
	"github.com/matzehuels/flowpack/pkg/pipeline"
)

// parseOpts holds the command-line flags for the parse command.
type parseOpts struct {
	output  string // output file path (stdout if empty)
	measure string // measurer name; empty keeps the config value
	noCache bool
}

// parseCommand creates the parse command.
func (c *CLI) parseCommand() *cobra.Command {
	var opts parseOpts

	cmd := &cobra.Command{
		Use:   "parse [diagram]",
		Short: "Parse flowchart text into a graph",
		Long: `Parse flowchart text into a flat graph.

Each line holds an edge ("A[Start] -->|yes| B[End]") or a bracketed node
("X[Alone]"). Lines that match neither form are skipped; run with --verbose
to see each one. Nodes carry measured sizes but no positions.

The graph is written as JSON to stdout, or to the file given by -o.
Use "-" as the input to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runParse(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&opts.measure, "measure", "", fmt.Sprintf("label measurer: %v", measure.Names))
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runParse(ctx context.Context, input string, opts parseOpts) error {
	source, err := c.readSource(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	runner := c.newRunner(ctx, cfg, opts.noCache)
	defer runner.Close()

	popts := pipeline.Options{Measure: cfg.Measure, Logger: c.Logger}
	if opts.measure != "" {
		popts.Measure = opts.measure
	}

	res, err := runner.Parse(ctx, source, popts)
	if err != nil {
		return err
	}

	if err := c.writeGraph(res.Graph, opts.output); err != nil {
		return err
	}

	printSuccess("Parsed %s", displayName(input))
	if opts.output != "" {
		printFile(opts.output)
	}
	printStats(runStats{
		nodes:   len(res.Graph.Nodes),
		edges:   len(res.Graph.Edges),
		skipped: len(res.Skipped),
		cached:  res.CacheHit,
	})
	return nil
}

// writeGraph writes g to path, or to c.Out when path is empty or "-".
func (c *CLI) writeGraph(g *diagram.Graph, path string) error {
	if path == "" || path == "-" {
		return diagram.WriteGraph(g, c.Out)
	}
	if err := diagram.WriteGraphFile(g, path); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}

func displayName(input string) string {
	if input == "-" {
		return "stdin"
	}
	return input
}
