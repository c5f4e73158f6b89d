// Package pipeline provides the core placement pipeline for Gridplan.
//
// This package implements the complete load → place → report pipeline
// that can be used by CLI and server components. By centralizing this
// logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Parse the TOML design file into a netlist and device
//  2. Place: Run the three initial-placement phases over the bin grid
//  3. Report: Generate output in various formats (text, JSON, SVG, DOT)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    DesignPath: "blinky.toml",
//	    Formats:    []string{"text", "json"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(string(result.Artifacts["text"]))
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gridplan/gridplan/pkg/cache"
	"github.com/gridplan/gridplan/pkg/design"
	"github.com/gridplan/gridplan/pkg/place"
	"github.com/gridplan/gridplan/pkg/report"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

// DefaultCapacity is the per-bin capacity used when Options.Capacity
// is unset.
const DefaultCapacity = place.DefaultBinCapacity

// Format constants for output formats. FormatSVG is the occupancy
// heatmap; FormatNetSVG is the netlist graph laid out by Graphviz.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatSVG    = "svg"
	FormatDOT    = "dot"
	FormatNetSVG = "netsvg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText:   true,
	FormatJSON:   true,
	FormatSVG:    true,
	FormatDOT:    true,
	FormatNetSVG: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the placement pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Load options. Exactly one of DesignPath or DesignData feeds the
	// pipeline; DesignData wins when both are set (server uploads).
	DesignPath string `json:"design_path,omitempty"`
	DesignData []byte `json:"design_data,omitempty"`

	// Place options
	Capacity int  `json:"capacity,omitempty"`
	Refresh  bool `json:"refresh,omitempty"` // bypass and overwrite cached results

	// Report options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // verbose DOT labels

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this pipeline execution.
	RunID string

	// Design and Device are the loaded inputs.
	Design *design.Design
	Device *design.Device

	// DesignHash is the content hash of the raw design file.
	DesignHash string

	// Placement is the placer's result.
	Placement *place.Result

	// Report is the assembled placement report.
	Report *report.Report

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	CellCount  int
	NetCount   int
	LoadTime   time.Duration
	PlaceTime  time.Duration
	ReportTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	PlaceHit  bool // Whether the placement result came from cache
	ReportHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: text, json, svg, dot, netsvg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetPlaceDefaults()
	o.SetReportDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading.
func (o *Options) ValidateForLoad() error {
	if o.DesignPath == "" && len(o.DesignData) == 0 {
		return fmt.Errorf("design_path or design_data is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetPlaceDefaults sets default values for placement.
func (o *Options) SetPlaceDefaults() {
	if o.Capacity == 0 {
		o.Capacity = DefaultCapacity
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetReportDefaults sets default values for reporting.
func (o *Options) SetReportDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatText}
	}
}

// ResultKeyOpts returns cache key options for the placement stage.
func (o *Options) ResultKeyOpts() cache.ResultKeyOpts {
	return cache.ResultKeyOpts{
		Capacity: o.Capacity,
	}
}

// ReportKeyOpts returns cache key options for one report format.
func (o *Options) ReportKeyOpts(format string) cache.ReportKeyOpts {
	return cache.ReportKeyOpts{
		Format: format,
	}
}
