package place

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gridplan/gridplan/pkg/design"
	"github.com/gridplan/gridplan/pkg/observability"
	"github.com/gridplan/gridplan/pkg/perrors"
)

// Phase names reported in stats, logs, and observability hooks.
const (
	PhaseConstrained  = "constrained"
	PhaseConnectivity = "connectivity"
	PhaseSpread       = "spread"
)

// ErrDetailedPlacementUnimplemented is the explicit terminal outcome of
// a placement run. The stage that would follow the spreading pass
// (detailed placement and legalization) is deliberately unimplemented;
// Run reports that with this NOT_IMPLEMENTED coded error rather than
// passing through silently. Check for it with
// perrors.Is(err, perrors.ErrCodeNotImplemented).
var ErrDetailedPlacementUnimplemented = perrors.New(perrors.ErrCodeNotImplemented,
	"detailed placement is not implemented")

// PhaseStats records one phase's outcome.
type PhaseStats struct {
	Name      string        `json:"name"`
	Duration  time.Duration `json:"duration"`
	Placed    int           `json:"placed"` // nets placed, or moved for the spread phase
	Occupancy Occupancy     `json:"occupancy"`
}

// Result is the outcome of a completed initial placement.
type Result struct {
	Assignments map[string]BinCoord `json:"assignments"` // net name -> bin
	Phases      []PhaseStats        `json:"phases"`
	TotalNets   int                 `json:"total_nets"`
}

// Placer drives the three placement phases over one design. It owns the
// grid for the duration of a run and is single-use: create a new Placer
// per run. The only externally visible side effects are the cell-to-site
// bindings committed during the constrained phase; they are not rolled
// back when a later phase aborts.
type Placer struct {
	design *design.Design
	device *design.Device
	grid   *Grid
	logger *log.Logger
}

// Option configures a Placer.
type Option func(*Placer)

// WithCapacity overrides the per-bin capacity (default 1250).
func WithCapacity(capacity int) Option {
	return func(p *Placer) { p.grid = NewGrid(capacity) }
}

// WithLogger sets the logger used for phase progress. The default
// discards output.
func WithLogger(logger *log.Logger) Option {
	return func(p *Placer) { p.logger = logger }
}

// New creates a placer for the given design and device.
func New(d *design.Design, dev *design.Device, opts ...Option) *Placer {
	p := &Placer{
		design: d,
		device: dev,
		grid:   NewGrid(DefaultBinCapacity),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Grid exposes the placer's grid for reporting. The grid must not be
// mutated by callers while a run is in progress.
func (p *Placer) Grid() *Grid { return p.grid }

// Run executes the three phases in order: constrained placement,
// connectivity-based placement, whitespace spreading. The first fatal
// condition aborts the whole run with a nil result; committed bindings
// stay in place. When all three phases complete, Run returns the
// populated result together with ErrDetailedPlacementUnimplemented,
// the named terminal outcome for the unimplemented stage beyond this
// one. There is no cancellation or retry mid-run.
func (p *Placer) Run(ctx context.Context) (*Result, error) {
	result := &Result{}
	start := time.Now()

	if err := p.runPhase(ctx, result, PhaseConstrained, p.placeConstraints); err != nil {
		return nil, err
	}
	if err := p.runPhase(ctx, result, PhaseConnectivity, p.placeRest); err != nil {
		return nil, err
	}
	if err := p.runPhase(ctx, result, PhaseSpread, p.spread); err != nil {
		return nil, err
	}

	result.Assignments = p.grid.Assignments()
	result.TotalNets = p.grid.TotalNets()

	p.logger.Info("initial placement complete",
		"nets", result.TotalNets,
		"duration", time.Since(start).Round(time.Millisecond))
	for _, ph := range result.Phases {
		p.logger.Info("phase timing", "phase", ph.Name, "duration", ph.Duration.Round(time.Millisecond))
	}

	return result, ErrDetailedPlacementUnimplemented
}

// runPhase times one phase, records its stats and occupancy snapshot,
// and emits observability events.
func (p *Placer) runPhase(ctx context.Context, result *Result, name string, fn func() (int, error)) error {
	observability.Placement().OnPhaseStart(ctx, name)
	start := time.Now()
	placed, err := fn()
	elapsed := time.Since(start)
	observability.Placement().OnPhaseComplete(ctx, name, placed, elapsed, err)
	if err != nil {
		return err
	}
	result.Phases = append(result.Phases, PhaseStats{
		Name:      name,
		Duration:  elapsed,
		Placed:    placed,
		Occupancy: p.grid.Occupancy(),
	})
	p.logger.Info("phase complete", "phase", name, "placed", placed,
		"duration", elapsed.Round(time.Millisecond))
	return nil
}

// placeConstraints is Phase A: nets whose driver carries a LOC
// attribute are bound to the named site and inserted into the bin
// covering it. Absent drivers, pseudo cells, and unconstrained cells
// are silent skips; every failure to honour a constraint is fatal.
func (p *Placer) placeConstraints() (int, error) {
	placed := 0
	for _, net := range p.design.Nets() {
		cell := net.Driver
		if cell == nil || cell.IsPseudo() {
			continue
		}
		loc, ok := cell.Loc()
		if !ok {
			continue // handled by the connectivity phase
		}

		site, ok := p.device.Site(loc)
		if !ok {
			return placed, perrors.New(perrors.ErrCodeUnknownSite,
				"no site named %q on device %q (processing LOC attribute on cell %q)",
				loc, p.device.Name, cell.Name)
		}
		if !p.device.Accepts(site, cell.Type) {
			return placed, perrors.New(perrors.ErrCodeSiteTypeMismatch,
				"site %q of type %q does not match cell %q of type %q",
				site.Name, site.Type, cell.Name, cell.Type)
		}
		if bound := p.device.BoundCell(site); bound != nil {
			if bound != cell {
				return placed, perrors.New(perrors.ErrCodeSiteConflict,
					"cell %q cannot be bound to site %q: already bound to cell %q",
					cell.Name, site.Name, bound.Name)
			}
			continue // already bound to itself, nothing to do
		}

		p.device.Bind(site, cell, design.StrengthUser)

		coord, err := MapToBin(site.X, site.Y, p.device.Width, p.device.Height)
		if err != nil {
			return placed, perrors.Wrap(perrors.ErrCodeInternal, err, "map site %q", site.Name)
		}
		if err := p.grid.InsertNet(coord, net); err != nil {
			return placed, err
		}

		if ok, explain := p.device.IsSiteValid(site); !ok {
			return placed, perrors.New(perrors.ErrCodeIllegalBinding,
				"binding cell %q to site %q is not legal: %s", cell.Name, site.Name, explain)
		}
		placed++
	}
	return placed, nil
}

// placeRest is Phase B: every net with a real, unconstrained driver is
// inserted into the highest-scoring bin.
func (p *Placer) placeRest() (int, error) {
	placed := 0
	for _, net := range p.design.Nets() {
		cell := net.Driver
		if cell == nil || cell.IsPseudo() {
			continue
		}
		if _, ok := cell.Loc(); ok {
			continue // constrained nets were placed in the previous phase
		}

		if err := p.grid.InsertNet(p.grid.HighestConnectivity(net), net); err != nil {
			return placed, err
		}
		placed++
	}
	return placed, nil
}

// spread is Phase C: a single whitespace-spreading pass over the grid.
func (p *Placer) spread() (int, error) {
	return p.grid.SpreadWhitespace(), nil
}
