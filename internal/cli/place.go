package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridplan/gridplan/pkg/pipeline"
)

// placeCommand creates the place command.
func (c *CLI) placeCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		capacity   int
		noCache    bool
		refresh    bool
		detailed   bool
	)

	cmd := &cobra.Command{
		Use:   "place [design.toml]",
		Short: "Run initial placement on a design file",
		Long: `Run initial placement on a design file.

The place command loads a TOML design, runs the three placement phases
(constrained, connectivity, whitespace spreading) over the bin grid,
and writes the requested reports.

Results are cached locally for faster subsequent runs; use --refresh to
force recomputation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				DesignPath: args[0],
				Capacity:   capacity,
				Refresh:    refresh,
				Detailed:   detailed,
				Formats:    parseFormats(formatsStr),
				Logger:     c.Logger,
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runPlace(cmd.Context(), opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when a cached result exists")

	// Placement flags
	cmd.Flags().IntVar(&capacity, "capacity", 0, "per-bin capacity (default 1250)")

	// Report flags
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): text (default), json, svg, dot, netsvg (comma-separated)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include cell types and pins in dot/netsvg output")

	return cmd
}

// runPlace executes the pipeline and writes the artifacts.
func (c *CLI) runPlace(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Placing %s...", filepath.Base(opts.DesignPath)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Placement failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Placed %d nets", result.Placement.TotalNets))

	printSuccess("Placed %s on %s", StyleValue.Render(result.Design.Name), StyleValue.Render(result.Device.Name))
	printStats(result.Stats.CellCount, result.Stats.NetCount, result.CacheInfo.PlaceHit)

	return writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     opts.DesignPath,
		output:    output,
	})
}

// artifactWriteParams bundles the inputs for writeArtifacts.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
}

// writeArtifacts writes rendered artifacts to disk. The text format
// goes to stdout unless an explicit output path is given; other
// formats derive their path from the output base (or the input name).
// A single requested format with an explicit output writes exactly to
// that path.
func writeArtifacts(p artifactWriteParams) error {
	if len(p.formats) == 1 && p.output != "" {
		if err := os.WriteFile(p.output, p.artifacts[p.formats[0]], 0644); err != nil {
			return fmt.Errorf("write %s: %w", p.output, err)
		}
		printFile(p.output)
		return nil
	}

	base := p.output
	if base == "" {
		base = strings.TrimSuffix(p.input, filepath.Ext(p.input))
	}

	for _, format := range p.formats {
		if format == pipeline.FormatText && p.output == "" {
			fmt.Print(string(p.artifacts[format]))
			continue
		}
		path := fmt.Sprintf("%s.place.%s", base, formatExt(format))
		if err := os.WriteFile(path, p.artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// formatExt maps a report format to its file extension.
func formatExt(format string) string {
	switch format {
	case pipeline.FormatText:
		return "txt"
	case pipeline.FormatNetSVG:
		return "net.svg"
	}
	return format
}
