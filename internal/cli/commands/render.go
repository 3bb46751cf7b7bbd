package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/probeplot/pkg/logfile"
	"github.com/ccollicutt/probeplot/pkg/probelog"
	"github.com/ccollicutt/probeplot/pkg/render"
)

// RenderOptions holds command-line options for the render command.
type RenderOptions struct {
	Format string
	Out    string
	Width  int
	Height int
	Title  string
}

// NewRenderCommand creates the render command.
func NewRenderCommand(g *GlobalOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <log-file>",
		Short: "Draw probe samples, temperatures and runs as a PNG or SVG chart",
		Long: `Render a chart of a Klipper log: probe Z values as dots, temperature series
on a secondary axis, and a shaded band for each PROBE_ACCURACY run.

The image is written next to the log as <name>.<format> unless --out is
given. Use --out - to write to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "png", "Image format (png|svg)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Output file (default <log-name>.<format>, - for stdout)")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "Image width in pixels (default from config)")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "Image height in pixels (default from config)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "Chart title (default from config)")

	return cmd
}

func runRender(cmd *cobra.Command, path string, g *GlobalOptions, opts *RenderOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := g.LoadConfig(ctx)
	if err != nil {
		return err
	}
	logger := g.Logger(cfg, cmd.ErrOrStderr(), false)

	format, err := render.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	ropts := render.Options{
		Width:      cfg.Chart.Width,
		Height:     cfg.Chart.Height,
		Format:     format,
		Title:      cfg.Chart.Title,
		BandColors: cfg.Chart.BandColors,
	}
	if opts.Width > 0 {
		ropts.Width = opts.Width
	}
	if opts.Height > 0 {
		ropts.Height = opts.Height
	}
	if opts.Title != "" {
		ropts.Title = opts.Title
	}

	log, err := logfile.Load(ctx, path, int64(cfg.Parser.MaxLogSize))
	if err != nil {
		return err
	}

	var res *probelog.Result
	if cfg.Parser.Strict {
		if res, err = probelog.ParseStrict(log.Text); err != nil {
			return fmt.Errorf("%s: %w", log.Name, err)
		}
	} else {
		res = probelog.Parse(log.Text)
	}

	out := opts.Out
	if out == "" {
		out = strings.TrimSuffix(log.Path, filepath.Ext(log.Path)) + "." + string(format)
	}

	if err := writeChart(out, cmd.OutOrStdout(), res, ropts); err != nil {
		return fmt.Errorf("rendering %s: %w", log.Name, err)
	}

	logger.Info("chart written",
		"file", out,
		"format", format,
		"samples", len(res.Samples),
		"runs", len(res.Runs))

	if out != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d samples, %d runs)\n", out, len(res.Samples), len(res.Runs))
	}

	return nil
}

// writeChart renders into memory first so a failed render never leaves a
// partial image at path. A path of "-" writes to stdout.
func writeChart(path string, stdout io.Writer, res *probelog.Result, opts render.Options) error {
	var buf bytes.Buffer
	if err := render.Render(&buf, res, opts); err != nil {
		return err
	}

	if path == "-" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { // #nosec G306 -- charts are meant to be shared
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
