package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/gridplan/gridplan/pkg/cache"
	"github.com/gridplan/gridplan/pkg/perrors"
	"github.com/gridplan/gridplan/pkg/report"
)

const testDesign = `
name = "blinky"

[device]
name = "g48"
width = 48
height = 48

[[device.sites]]
name = "IOB_X0Y0"
type = "IOB"
x = 0
y = 0

[[device.sites]]
name = "SLICE_X4Y2"
type = "LUT4"
x = 4
y = 2

[[cells]]
name = "clk_pad"
type = "IOB"
[cells.attrs]
LOC = "IOB_X0Y0"

[[cells]]
name = "lut0"
type = "LUT4"

[[nets]]
name = "clk"
driver = "clk_pad"
users = [{ cell = "lut0", pin = "I0" }]

[[nets]]
name = "q"
driver = "lut0"
`

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func writeDesign(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blinky.toml")
	if err := os.WriteFile(path, []byte(testDesign), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOptionsValidation(t *testing.T) {
	// Missing input
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("empty options should not validate")
	}

	// Invalid format
	opts = Options{DesignData: []byte("x"), Formats: []string{"png"}}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("unknown format should not validate")
	}

	// Defaults applied
	opts = Options{DesignData: []byte("x")}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults error: %v", err)
	}
	if opts.Capacity != DefaultCapacity {
		t.Errorf("Capacity = %d, want %d", opts.Capacity, DefaultCapacity)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatText {
		t.Errorf("Formats = %v, want [text]", opts.Formats)
	}

	// Idempotent
	opts.Formats = nil
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second ValidateAndSetDefaults error: %v", err)
	}
}

func TestExecute(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		DesignPath: writeDesign(t),
		Formats:    []string{FormatText, FormatJSON, FormatSVG, FormatDOT},
		Logger:     quietLogger(),
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID should be set")
	}
	if result.Stats.CellCount != 2 || result.Stats.NetCount != 2 {
		t.Errorf("Stats = %+v, want 2 cells, 2 nets", result.Stats)
	}
	if result.Placement == nil || result.Placement.TotalNets != 2 {
		t.Fatalf("Placement = %+v, want 2 placed nets", result.Placement)
	}
	if len(result.Placement.Phases) != 3 {
		t.Errorf("placement phases = %d, want 3", len(result.Placement.Phases))
	}

	for _, format := range []string{FormatText, FormatJSON, FormatSVG, FormatDOT} {
		if len(result.Artifacts[format]) == 0 {
			t.Errorf("missing %s artifact", format)
		}
	}

	// The JSON artifact is a parseable report.
	rep, err := report.Unmarshal(result.Artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("JSON artifact does not parse: %v", err)
	}
	if rep.Design != "blinky" || rep.TotalNets != 2 {
		t.Errorf("report = design %q, %d nets, want blinky with 2", rep.Design, rep.TotalNets)
	}
	if _, ok := rep.Assignments["clk"]; !ok {
		t.Error("report missing assignment for constrained net")
	}

	if !strings.Contains(string(result.Artifacts[FormatDOT]), `"clk_pad" -> "lut0"`) {
		t.Error("DOT artifact missing netlist edge")
	}
}

func TestExecuteNetlistSVG(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		DesignPath: writeDesign(t),
		Formats:    []string{FormatNetSVG},
		Logger:     quietLogger(),
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	svg := string(result.Artifacts[FormatNetSVG])
	if !strings.Contains(svg, "<svg") {
		t.Fatal("netsvg artifact should be an SVG document")
	}
	if !strings.Contains(svg, `viewBox="0 0`) {
		t.Error("netsvg artifact should carry a rehomed viewBox")
	}
	for _, cell := range []string{"clk_pad", "lut0"} {
		if !strings.Contains(svg, cell) {
			t.Errorf("netsvg artifact missing cell %q", cell)
		}
	}
}

func TestExecuteCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, quietLogger())
	defer runner.Close()

	opts := Options{
		DesignPath: writeDesign(t),
		Formats:    []string{FormatText, FormatJSON},
		Logger:     quietLogger(),
	}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute error: %v", err)
	}
	if first.CacheInfo.PlaceHit || first.CacheInfo.ReportHit {
		t.Error("first run should miss the cache")
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute error: %v", err)
	}
	if !second.CacheInfo.PlaceHit {
		t.Error("second run should hit the placement cache")
	}
	if !second.CacheInfo.ReportHit {
		t.Error("second run should hit the report cache")
	}
	if second.Placement.TotalNets != first.Placement.TotalNets {
		t.Error("cached placement should match the computed one")
	}

	// Refresh bypasses the cache.
	opts.Refresh = true
	third, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("refresh Execute error: %v", err)
	}
	if third.CacheInfo.PlaceHit {
		t.Error("refresh run should not hit the placement cache")
	}
}

func TestExecuteLoadErrors(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	defer runner.Close()

	// Unparseable design data
	_, err := runner.Execute(context.Background(), Options{
		DesignData: []byte("not toml {"),
		Logger:     quietLogger(),
	})
	if !perrors.Is(err, perrors.ErrCodeInvalidDesign) {
		t.Errorf("Execute error = %v, want INVALID_DESIGN", err)
	}

	// Missing file
	_, err = runner.Execute(context.Background(), Options{
		DesignPath: filepath.Join(t.TempDir(), "missing.toml"),
		Logger:     quietLogger(),
	})
	if err == nil {
		t.Error("Execute with missing file should error")
	}
}

func TestExecutePlacementError(t *testing.T) {
	bad := strings.Replace(testDesign, `LOC = "IOB_X0Y0"`, `LOC = "IOB_X9Y9"`, 1)
	runner := NewRunner(nil, nil, quietLogger())
	defer runner.Close()

	_, err := runner.Execute(context.Background(), Options{
		DesignData: []byte(bad),
		Logger:     quietLogger(),
	})
	if !perrors.Is(err, perrors.ErrCodeUnknownSite) {
		t.Errorf("Execute error = %v, want UNKNOWN_SITE", err)
	}
}
