package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/multilevel/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output         string   // output file (single format) or base path
	formats        []string // dot, svg, json, text
	level          int      // level whose subgraphs become clusters
	direction      string   // Graphviz rankdir
	detailed       bool     // show labels and metadata in node labels
	hideCrossEdges bool     // omit edges between different clusters
	strategy       string
	parallel       int
	noCache        bool
	refresh        bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [document]",
		Short: "Render one level of a hierarchy with Graphviz",
		Long: `Render draws the base graph with one cluster per parent at the chosen level.
Edges inside a cluster are solid, edges between clusters are dashed.

DOT and SVG output is cached by document content and render options; text and
JSON dumps are always built fresh.`,
		Example: `  multilevel render services.yaml --level 1 -o services.svg
  multilevel render services.yaml -f dot,svg -o out/services
  multilevel render services.yaml -f dot | dot -Tpng > services.png`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr, opts.output)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			c.applyRenderConfig(cmd, &opts)
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg, dot, json, text (comma-separated; default from -o or svg)")
	cmd.Flags().IntVarP(&opts.level, "level", "l", 0, "level to draw as clusters")
	cmd.Flags().StringVar(&opts.direction, "direction", "", "layout direction: TB (default), LR, BT, RL")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node labels and metadata")
	cmd.Flags().BoolVar(&opts.hideCrossEdges, "hide-cross-edges", false, "omit edges between clusters")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "edge projection strategy: indexed (default), rescan")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 0, "build up to N levels concurrently")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts and re-render")

	return cmd
}

// applyRenderConfig fills flags the user did not set from the config file.
func (c *CLI) applyRenderConfig(cmd *cobra.Command, opts *renderOpts) {
	flags := cmd.Flags()
	if !flags.Changed("direction") {
		opts.direction = c.Config.Render.Direction
	}
	if !flags.Changed("detailed") {
		opts.detailed = c.Config.Render.Detailed
	}
	if !flags.Changed("hide-cross-edges") {
		opts.hideCrossEdges = c.Config.Render.HideCrossEdges
	}
	if !flags.Changed("strategy") {
		opts.strategy = c.Config.Build.Strategy
	}
	if !flags.Changed("parallel") {
		opts.parallel = c.Config.Build.Parallel
	}
}

// parseFormats parses the --format flag. Without it the format follows the
// extension of output, falling back to svg.
func parseFormats(s, output string) []string {
	if s == "" {
		if ext := strings.TrimPrefix(filepath.Ext(output), "."); pipeline.ValidFormats[ext] {
			return []string{ext}
		}
		return []string{pipeline.FormatSVG}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" && !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	return formats
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input. If output has a
// format extension, it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPaths maps each format to its file. A single format without -o is
// written to stdout (empty path).
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

func (c *CLI) runRender(ctx context.Context, stdout io.Writer, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	doc, err := runner.Load(input)
	if err != nil {
		return err
	}

	var spinner *Spinner
	if slices.Contains(opts.formats, pipeline.FormatSVG) && opts.output != "" {
		spinner = newSpinnerWithContext(ctx, "Rendering SVG...")
		spinner.Start()
	}
	res, err := runner.Execute(ctx, doc, pipeline.Options{
		Strategy:       opts.strategy,
		Parallel:       opts.parallel,
		Formats:        opts.formats,
		Level:          opts.level,
		Direction:      opts.direction,
		Detailed:       opts.detailed,
		HideCrossEdges: opts.hideCrossEdges,
		Refresh:        opts.refresh,
		Logger:         logger,
	})
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	paths := outputPaths(opts.output, input, opts.formats)
	toFiles := false
	for _, f := range opts.formats {
		if err := writeOutput(stdout, paths[f], res.Artifacts[f]); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		toFiles = toFiles || paths[f] != ""
	}

	if toFiles {
		printSuccess("Rendered level %d of %s", opts.level, input)
		for _, f := range opts.formats {
			printFile(paths[f])
		}
		var cached *bool
		if slices.Contains(opts.formats, pipeline.FormatDOT) || slices.Contains(opts.formats, pipeline.FormatSVG) {
			cached = &res.CacheInfo.RenderHit
		}
		printStats(res.Stats.LevelCount, res.Stats.NodeCount, res.Stats.EdgeCount, cached)
	}
	return nil
}
