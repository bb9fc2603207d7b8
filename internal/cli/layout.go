package cli

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowpack/pkg/errors"
	"github.com/matzehuels/flowpack/pkg/layout"
	"github.com/matzehuels/flowpack/pkg/measure"
	"github.com/matzehuels/flowpack/pkg/pipeline"
)

// layoutOpts holds the command-line flags for the layout command.
type layoutOpts struct {
	output      string
	algorithm   string
	measure     string
	set         []string
	gap         float64
	widthFactor float64
	targetWidth float64
	maxParallel int
	interactive bool
	noCache     bool
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOpts

	cmd := &cobra.Command{
		Use:   "layout [diagram]",
		Short: "Lay out flowchart text and pack its components",
		Long: `Lay out flowchart text and pack its components onto one canvas.

The diagram is split into connected components. Each component is laid out
independently with the chosen algorithm, then the components are packed
left to right into rows. A component the engine cannot lay out is reported
and left in place without coordinates; the rest of the canvas is still
produced.

The algorithm comes from -a, else the diagram's frontmatter, else the
config file, else "layered". Engine options can be tuned with --set:

  flowpack layout flow.mmd -a force --set elk.spacing.nodeNode=120

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.layout.json, stdout for stdin)")
	cmd.Flags().StringVarP(&opts.algorithm, "algorithm", "a", "", "layout algorithm: "+strings.Join(layout.AlgorithmNames(), ", "))
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "choose the algorithm interactively")
	cmd.Flags().StringVar(&opts.measure, "measure", "", fmt.Sprintf("label measurer: %v", measure.Names))
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "engine option override as key=value (repeatable)")
	cmd.Flags().Float64Var(&opts.gap, "gap", 0, "spacing between packed components")
	cmd.Flags().Float64Var(&opts.widthFactor, "width-factor", 0, "scale of the area-derived row width")
	cmd.Flags().Float64Var(&opts.targetWidth, "target-width", 0, "fixed row width (overrides --width-factor)")
	cmd.Flags().IntVar(&opts.maxParallel, "max-parallel", 0, "concurrent component layouts (0: unlimited)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	_ = cmd.RegisterFlagCompletionFunc("algorithm", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return layout.AlgorithmNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runLayout reads the diagram, runs the pipeline, and writes the packed graph.
func (c *CLI) runLayout(ctx context.Context, input string, opts layoutOpts) error {
	source, err := c.readSource(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	popts, err := opts.pipelineOptions(cfg.PipelineOptions())
	if err != nil {
		return err
	}
	popts.Logger = c.Logger

	if opts.interactive {
		current, _ := layout.ParseAlgorithm(cmp.Or(popts.Algorithm, popts.FallbackAlgorithm))
		alg, ok, err := pickAlgorithm(current)
		if err != nil {
			return err
		}
		if !ok {
			return context.Canceled
		}
		popts.Algorithm = alg.String()
	}

	runner := c.newRunner(ctx, cfg, opts.noCache)
	defer runner.Close()

	spinner := newSpinner(ctx, "Computing layout...")
	popts.OnProgress = spinner.Progress
	spinner.Start()

	res, err := runner.Execute(ctx, source, popts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	output := opts.output
	if output == "" && input != "-" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}
	if err := c.writeGraph(res.Graph, output); err != nil {
		return err
	}

	printSuccess("Layout complete %s", StyleDim.Render(fmt.Sprintf("(%s, %.0f×%.0f)", res.Algorithm, res.Graph.Width, res.Graph.Height)))
	if output != "" && output != "-" {
		printFile(output)
	}
	printStats(runStats{
		nodes:      res.Stats.NodeCount,
		edges:      res.Stats.EdgeCount,
		components: res.Stats.ComponentCount,
		skipped:    res.Stats.SkippedLines,
		failed:     len(res.Failures),
		cached:     res.CacheHit,
	})
	for _, f := range res.Failures {
		printWarning("%s was not laid out: %s", f.Component, f.Message)
	}
	if res.Degraded() {
		printNextStep("Try another algorithm", appName+" layout -i "+input)
	}

	return nil
}

// pipelineOptions applies the command-line flags over base.
func (o layoutOpts) pipelineOptions(base pipeline.Options) (pipeline.Options, error) {
	if o.algorithm != "" {
		base.Algorithm = o.algorithm
	}
	if o.measure != "" {
		base.Measure = o.measure
	}
	if o.maxParallel != 0 {
		base.MaxParallel = o.maxParallel
	}
	if o.gap != 0 {
		base.Pack.Gap = o.gap
	}
	if o.widthFactor != 0 {
		base.Pack.WidthFactor = o.widthFactor
	}
	if o.targetWidth != 0 {
		base.Pack.TargetWidth = o.targetWidth
	}

	set, err := parseAssignments(o.set)
	if err != nil {
		return base, err
	}
	if len(set) > 0 {
		if base.Overrides == nil {
			base.Overrides = make(map[string]string, len(set))
		}
		for k, v := range set {
			base.Overrides[k] = v
		}
	}
	return base, nil
}

// parseAssignments turns "key=value" pairs into a map. Values may contain
// '=' and ','; only the first '=' separates.
func parseAssignments(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid --set %q (want key=value)", p)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
