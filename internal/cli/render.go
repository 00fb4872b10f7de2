package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/codexrender/internal/atomicfile"
	"github.com/matzehuels/codexrender/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
// Unset flags fall back to the [render] section of the configuration.
type renderOpts struct {
	template    string
	width       int
	height      int
	noWatermark bool
	output      string // "" stores through the sink, "-" writes to stdout
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <entry-id>",
		Short: "Render a codex entry to PNG",
		Long: `Render a codex entry to PNG.

By default the image is stored in the output directory under a timestamped
name. Use --output to write it to a specific file instead, or "-" for stdout.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeEntryIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg.RenderDefaults(args[0])
			flags := cmd.Flags()
			if flags.Changed("template") {
				cfg.Template = opts.template
			}
			if flags.Changed("width") {
				cfg.Width = opts.width
			}
			if flags.Changed("height") {
				cfg.Height = opts.height
			}
			if opts.noWatermark {
				cfg.Watermark = false
			}
			return c.runRender(cmd.Context(), cfg, opts.output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "template: parchment, open-weave, spiral")
	cmd.Flags().IntVar(&opts.width, "width", 0, "image width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 0, "image height in pixels")
	cmd.Flags().BoolVar(&opts.noWatermark, "no-watermark", false, "omit the watermark label")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file, or "-" for stdout`)
	_ = cmd.RegisterFlagCompletionFunc("template", completeTemplates)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, cfg pipeline.Config, output string, stdout io.Writer) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)

	if output == "" {
		res, err := runner.Render(ctx, cfg)
		if err != nil {
			return err
		}
		prog.done(fmt.Sprintf("Rendered %s", cfg.EntryID))
		printSuccess("Rendered %s (%s, %dx%d)", cfg.EntryID, cfg.Template, cfg.Width, cfg.Height)
		printFile(filepath.Join(c.cfg.RenderOut(), res.FileName))
		printKeyValue("url", res.Locator)
		return nil
	}

	res, err := runner.Compose(ctx, cfg)
	if err != nil {
		return err
	}
	if output == "-" {
		_, err := stdout.Write(res.Image)
		return err
	}
	if err := atomicfile.Write(output, res.Image, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	prog.done(fmt.Sprintf("Rendered %s", cfg.EntryID))
	printSuccess("Rendered %s (%s, %dx%d)", cfg.EntryID, cfg.Template, cfg.Width, cfg.Height)
	printFile(output)
	return nil
}
