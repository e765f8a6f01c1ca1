package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/multilevel/pkg/errors"
	mlio "github.com/matzehuels/multilevel/pkg/io"
	"github.com/matzehuels/multilevel/pkg/pipeline"
)

// buildOpts holds the flags of the build command.
type buildOpts struct {
	strategy string
	parallel int
	verify   bool
	format   string
	table    bool
	output   string
	export   string
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	opts := buildOpts{format: pipeline.FormatText}

	cmd := &cobra.Command{
		Use:   "build [document]",
		Short: "Build the hierarchy of a document and print a summary",
		Long: `Build resolves a JSON, YAML or TOML document, builds the subgraph of every
parent at every level, and prints the result as text or JSON.

With --export the resolved document is written back in the format given by
the file extension, which converts between document formats.`,
		Example: `  multilevel build services.yaml
  multilevel build services.yaml --strategy rescan --verify
  multilevel build services.yaml --format json -o summary.json
  multilevel build services.yaml --export services.toml`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyBuildConfig(cmd, &opts)
			if opts.format != pipeline.FormatText && opts.format != pipeline.FormatJSON {
				return apperr.New(apperr.ErrCodeInvalidFormat, "invalid format: %q (must be 'text' or 'json')", opts.format)
			}
			return c.runBuild(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "edge projection strategy: indexed (default), rescan")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 0, "build up to N levels concurrently (0 = sequential)")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "check the result against the membership table")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text, json")
	cmd.Flags().BoolVar(&opts.table, "table", false, "draw levels as tables (text format)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.export, "export", "", "write the resolved document to this path (.json, .yaml, .toml)")

	return cmd
}

// applyBuildConfig fills flags the user did not set from the config file.
func (c *CLI) applyBuildConfig(cmd *cobra.Command, opts *buildOpts) {
	flags := cmd.Flags()
	if !flags.Changed("strategy") {
		opts.strategy = c.Config.Build.Strategy
	}
	if !flags.Changed("parallel") {
		opts.parallel = c.Config.Build.Parallel
	}
	if !flags.Changed("verify") {
		opts.verify = c.Config.Build.Verify
	}
}

func (c *CLI) runBuild(ctx context.Context, stdout io.Writer, input string, opts buildOpts) error {
	logger := loggerFromContext(ctx)
	runner := pipeline.NewRunner(nil, nil, logger)

	doc, err := runner.Load(input)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	popts := pipeline.Options{
		Strategy: opts.strategy,
		Parallel: opts.parallel,
		Verify:   opts.verify,
		Formats:  []string{opts.format},
		Table:    opts.table,
	}
	h, err := runner.Build(ctx, doc, popts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Built %d levels over %d nodes", h.Depth(), h.Base().NodeCount()))
	if h.Depth() == 0 {
		logger.Warn("document declares no levels", "path", input)
	}

	data, err := pipeline.Render(ctx, h, doc.LevelNames(), opts.format, popts)
	if err != nil {
		return err
	}
	if err := writeOutput(stdout, opts.output, data); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess("Wrote %s summary", opts.format)
		printFile(opts.output)
		printNextStep("Render a level", fmt.Sprintf("%s render %s --level 0 -o %s.svg", appName, input, basePath("", input)))
	}

	if opts.export != "" {
		base, table, err := doc.Resolve()
		if err != nil {
			return err
		}
		names := make([]string, len(doc.Levels))
		for i, l := range doc.Levels {
			names[i] = l.Name
		}
		if err := mlio.ExportDocument(mlio.FromHierarchy(base, table, names...), opts.export); err != nil {
			return err
		}
		logger.Info("Exported document", "path", opts.export)
	}
	return nil
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := apperr.ValidatePath(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
