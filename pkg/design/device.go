package design

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimensions is returned by [NewDevice] when the grid
	// width or height is not strictly positive.
	ErrInvalidDimensions = errors.New("device dimensions must be positive")

	// ErrDuplicateSite is returned by [Device.AddSite] when a site with
	// the same name already exists. Site names are unique per device.
	ErrDuplicateSite = errors.New("duplicate site name")

	// ErrSiteOutsideGrid is returned by [Device.AddSite] when the site
	// coordinate falls outside the device grid.
	ErrSiteOutsideGrid = errors.New("site coordinate outside device grid")
)

// Strength is the level at which a cell is bound to a site. Stronger
// bindings survive later flow stages; placement-phase moves never
// displace a user or fixed binding.
type Strength int

const (
	StrengthNone Strength = iota
	StrengthWeak
	StrengthStrong
	StrengthPlacer
	StrengthFixed
	StrengthUser
)

// String returns the lowercase name of the strength level.
func (s Strength) String() string {
	switch s {
	case StrengthNone:
		return "none"
	case StrengthWeak:
		return "weak"
	case StrengthStrong:
		return "strong"
	case StrengthPlacer:
		return "placer"
	case StrengthFixed:
		return "fixed"
	case StrengthUser:
		return "user"
	default:
		return fmt.Sprintf("strength(%d)", int(s))
	}
}

// Site is a concrete physical location on the device. A site accepts
// cells of exactly its type and holds at most one bound cell.
type Site struct {
	Name string
	Type string
	X, Y int
}

// binding pairs a bound cell with its binding strength.
type binding struct {
	cell     *Cell
	strength Strength
}

// Device models the physical target: a W×H coordinate grid of named
// sites with cell-to-site binding state. The zero value is not usable -
// use NewDevice. Device is not safe for concurrent use.
type Device struct {
	Name   string
	Width  int
	Height int

	sites    map[string]*Site
	bindings map[string]binding // site name -> bound cell
}

// NewDevice creates a device with the given grid dimensions.
// Returns ErrInvalidDimensions unless both dimensions are positive.
func NewDevice(name string, width, height int) (*Device, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &Device{
		Name:     name,
		Width:    width,
		Height:   height,
		sites:    make(map[string]*Site),
		bindings: make(map[string]binding),
	}, nil
}

// AddSite registers a site on the device and returns the stored instance.
func (d *Device) AddSite(s Site) (*Site, error) {
	if s.Name == "" {
		return nil, ErrInvalidName
	}
	if _, exists := d.sites[s.Name]; exists {
		return nil, ErrDuplicateSite
	}
	if s.X < 0 || s.X >= d.Width || s.Y < 0 || s.Y >= d.Height {
		return nil, ErrSiteOutsideGrid
	}
	site := &s
	d.sites[site.Name] = site
	return site, nil
}

// Site resolves a location name to a site. The second return value is
// false when no site with that name exists.
func (d *Device) Site(name string) (*Site, bool) {
	s, ok := d.sites[name]
	return s, ok
}

// SiteCount returns the number of sites on the device.
func (d *Device) SiteCount() int { return len(d.sites) }

// Accepts reports whether the site accepts cells of the given type.
func (d *Device) Accepts(s *Site, cellType string) bool {
	return s.Type == cellType
}

// BoundCell returns the cell currently bound to the site, or nil.
func (d *Device) BoundCell(s *Site) *Cell {
	return d.bindings[s.Name].cell
}

// Bind binds a cell to a site at the given strength, replacing any
// existing binding. Callers are expected to check BoundCell first;
// binding over a different cell is a conflict the placer treats as
// fatal before ever calling Bind.
func (d *Device) Bind(s *Site, c *Cell, strength Strength) {
	d.bindings[s.Name] = binding{cell: c, strength: strength}
}

// Unbind removes the binding on a site, if any.
func (d *Device) Unbind(s *Site) {
	delete(d.bindings, s.Name)
}

// BindingStrength returns the strength of the site's current binding,
// or StrengthNone when the site is unbound.
func (d *Device) BindingStrength(s *Site) Strength {
	return d.bindings[s.Name].strength
}

// IsSiteValid checks that the site's current binding is locally legal.
// When invalid it returns false and an explanation. An unbound site is
// always legal.
func (d *Device) IsSiteValid(s *Site) (bool, string) {
	b, ok := d.bindings[s.Name]
	if !ok || b.cell == nil {
		return true, ""
	}
	if !d.Accepts(s, b.cell.Type) {
		return false, fmt.Sprintf("site %q of type %q cannot hold cell %q of type %q",
			s.Name, s.Type, b.cell.Name, b.cell.Type)
	}
	return true, ""
}
