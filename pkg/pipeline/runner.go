package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gridplan/gridplan/pkg/cache"
	"github.com/gridplan/gridplan/pkg/design"
	"github.com/gridplan/gridplan/pkg/observability"
	"github.com/gridplan/gridplan/pkg/perrors"
	"github.com/gridplan/gridplan/pkg/place"
	"github.com/gridplan/gridplan/pkg/report"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → place → report pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.DesignPath)
	d, dev, hash, err := r.Load(opts)
	result.Stats.LoadTime = time.Since(loadStart)
	observability.Pipeline().OnLoadComplete(ctx, opts.DesignPath, netCountOf(d), result.Stats.LoadTime, err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Design = d
	result.Device = dev
	result.DesignHash = hash
	result.Stats.CellCount = d.CellCount()
	result.Stats.NetCount = d.NetCount()

	r.Logger.Info("loaded design",
		"design", d.Name,
		"cells", d.CellCount(),
		"nets", d.NetCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Place
	placeStart := time.Now()
	observability.Pipeline().OnPlaceStart(ctx, d.NetCount())
	placement, placeHit, err := r.PlaceWithCacheInfo(ctx, d, dev, hash, opts)
	result.Stats.PlaceTime = time.Since(placeStart)
	observability.Pipeline().OnPlaceComplete(ctx, result.Stats.PlaceTime, err)
	if err != nil {
		return nil, fmt.Errorf("place: %w", err)
	}
	result.Placement = placement
	result.CacheInfo.PlaceHit = placeHit

	r.Logger.Info("placed nets",
		"nets", placement.TotalNets,
		"cached", placeHit,
		"duration", result.Stats.PlaceTime)

	result.Report = report.New(result.RunID, d.Name, dev.Name, opts.Capacity, placement)

	// Stage 3: Report
	reportStart := time.Now()
	observability.Pipeline().OnReportStart(ctx, opts.Formats)
	artifacts, reportHit, err := r.ReportWithCacheInfo(ctx, d, result.Report, opts)
	result.Stats.ReportTime = time.Since(reportStart)
	observability.Pipeline().OnReportComplete(ctx, opts.Formats, result.Stats.ReportTime, err)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.ReportHit = reportHit

	r.Logger.Info("rendered reports",
		"formats", opts.Formats,
		"duration", result.Stats.ReportTime)

	return result, nil
}

// Load reads and parses the design input, returning the design, the
// device, and the content hash of the raw file.
func (r *Runner) Load(opts Options) (*design.Design, *design.Device, string, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, nil, "", err
	}

	data := opts.DesignData
	if len(data) == 0 {
		b, err := os.ReadFile(opts.DesignPath)
		if err != nil {
			return nil, nil, "", err
		}
		data = b
	}

	d, dev, err := design.Parse(data)
	if err != nil {
		return nil, nil, "", err
	}
	return d, dev, cache.Hash(data), nil
}

// PlaceWithCacheInfo runs placement with caching and returns cache hit info.
//
// A cache hit restores the recorded assignments and phase stats without
// re-running the placer, so the device is left without the site
// bindings a fresh constrained phase would commit. Callers that need
// the bindings (reporting does not) should set opts.Refresh.
func (r *Runner) PlaceWithCacheInfo(ctx context.Context, d *design.Design, dev *design.Device, designHash string, opts Options) (*place.Result, bool, error) {
	opts.SetPlaceDefaults()
	cacheKey := r.Keyer.ResultKey(designHash, opts.ResultKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached place.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "result")
				return &cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "result")
	}

	placer := place.New(d, dev,
		place.WithCapacity(opts.Capacity),
		place.WithLogger(opts.Logger))
	placement, err := placer.Run(ctx)
	if err != nil {
		if !perrors.Is(err, perrors.ErrCodeNotImplemented) {
			return nil, false, err
		}
		// The stage beyond initial placement is unimplemented; the
		// initial placement itself completed and is reportable.
		r.Logger.Debug("stopping after initial placement", "reason", perrors.UserMessage(err))
	}

	// Cache the result
	if data, err := json.Marshal(placement); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLResult); err == nil {
			observability.Cache().OnCacheSet(ctx, "result", len(data))
		}
	}

	return placement, false, nil
}

// Place is a convenience wrapper that calls PlaceWithCacheInfo and discards the cache hit info.
func (r *Runner) Place(ctx context.Context, d *design.Design, dev *design.Device, designHash string, opts Options) (*place.Result, error) {
	placement, _, err := r.PlaceWithCacheInfo(ctx, d, dev, designHash, opts)
	return placement, err
}

// ReportWithCacheInfo renders report artifacts with caching and returns cache hit info.
func (r *Runner) ReportWithCacheInfo(ctx context.Context, d *design.Design, rep *report.Report, opts Options) (map[string][]byte, bool, error) {
	opts.SetReportDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	// Key renders off the placement content, not the run metadata, so
	// identical placements share artifacts across runs.
	resultData, err := json.Marshal(struct {
		Assignments map[string]place.BinCoord `json:"assignments"`
		Occupancy   place.Occupancy           `json:"occupancy"`
	}{rep.Assignments, rep.Occupancy})
	if err != nil {
		return nil, false, fmt.Errorf("serialize placement for cache key: %w", err)
	}
	resultHash := cache.Hash(resultData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ReportKey(resultHash, opts.ReportKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "report")
			artifacts[format] = data
		} else {
			observability.Cache().OnCacheMiss(ctx, "report")
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil // All artifacts from cache
	}

	// Render all formats
	rendered, err := r.render(d, rep, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ReportKey(resultHash, opts.ReportKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLReport); err == nil {
			observability.Cache().OnCacheSet(ctx, "report", len(data))
		}
	}

	return rendered, false, nil // Cache miss
}

// render produces every requested artifact format.
func (r *Runner) render(d *design.Design, rep *report.Report, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		switch format {
		case FormatText:
			var buf bytes.Buffer
			buf.WriteString(report.PhaseText(rep.Phases))
			buf.WriteString(report.OccupancyText(rep.Occupancy))
			artifacts[format] = buf.Bytes()
		case FormatJSON:
			data, err := rep.MarshalIndent()
			if err != nil {
				return nil, fmt.Errorf("render json: %w", err)
			}
			artifacts[format] = data
		case FormatSVG:
			artifacts[format] = report.OccupancySVG(rep.Occupancy, rep.Capacity)
		case FormatDOT:
			artifacts[format] = []byte(report.ToDOT(d, report.DOTOptions{Detailed: opts.Detailed}))
		case FormatNetSVG:
			dot := report.ToDOT(d, report.DOTOptions{Detailed: opts.Detailed})
			data, err := report.RenderSVG(dot)
			if err != nil {
				return nil, fmt.Errorf("render netlist svg: %w", err)
			}
			artifacts[format] = data
		default:
			return nil, ValidateFormat(format)
		}
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func netCountOf(d *design.Design) int {
	if d == nil {
		return 0
	}
	return d.NetCount()
}
