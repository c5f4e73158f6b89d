package design

import (
	"errors"
)

var (
	// ErrInvalidName is returned by [Design.AddCell] and [Design.AddNet]
	// when the entity name is empty. All cells and nets must have
	// non-empty identifiers.
	ErrInvalidName = errors.New("name must not be empty")

	// ErrDuplicateCell is returned by [Design.AddCell] when a cell with
	// the same name already exists. Cell names are unique per design.
	ErrDuplicateCell = errors.New("duplicate cell name")

	// ErrDuplicateNet is returned by [Design.AddNet] when a net with the
	// same name already exists. Net names are unique per design.
	ErrDuplicateNet = errors.New("duplicate net name")

	// ErrUnknownCell is returned by [Design.AddNet] when the driver or a
	// user references a cell that has not been added to the design.
	ErrUnknownCell = errors.New("unknown cell")
)

// AttrLoc is the attribute key carrying a fixed-location constraint.
// A cell with this attribute is pinned to the named site during the
// constrained placement phase.
const AttrLoc = "LOC"

// Cell is a circuit element: a typed, named entity that may carry
// string attributes. Cells are owned by the Design; the placement core
// only holds references and uses cell names as connectivity keys.
type Cell struct {
	Name   string
	Type   string
	Pseudo bool              // synthetic cell, skipped by placement
	Attrs  map[string]string // named attributes (never nil after AddCell)
}

// IsPseudo reports whether the cell is synthetic. Pseudo cells are
// bookkeeping entities (constants, internal ties) and are never placed.
func (c *Cell) IsPseudo() bool { return c.Pseudo }

// Attr looks up a named attribute by exact key match.
func (c *Cell) Attr(key string) (string, bool) {
	v, ok := c.Attrs[key]
	return v, ok
}

// Loc returns the cell's fixed-location constraint, if any.
func (c *Cell) Loc() (string, bool) { return c.Attr(AttrLoc) }

// Port is a sink connection on a net: the cell it lands on and the pin
// name on that cell.
type Port struct {
	Cell *Cell
	Pin  string
}

// Net is a driver cell plus its ordered fanout. The driver may be nil
// for undriven nets (external inputs during early flow stages); such
// nets are skipped by placement.
type Net struct {
	Name   string
	Driver *Cell // may be nil
	Users  []Port
}

// Fanout returns the number of sink pins on the net.
func (n *Net) Fanout() int { return len(n.Users) }

// Design is the netlist database: the owning container for all cells
// and nets of one design. The zero value is not usable - use New.
// Design is not safe for concurrent use without external synchronization.
type Design struct {
	Name string

	cells    map[string]*Cell
	nets     map[string]*Net
	netOrder []*Net
}

// New creates an empty design with the given name.
func New(name string) *Design {
	return &Design{
		Name:  name,
		cells: make(map[string]*Cell),
		nets:  make(map[string]*Net),
	}
}

// AddCell adds a cell to the design and returns the stored instance.
// Returns ErrInvalidName for an empty name or ErrDuplicateCell if the
// name is taken. The cell's Attrs map is initialized if nil.
func (d *Design) AddCell(c Cell) (*Cell, error) {
	if c.Name == "" {
		return nil, ErrInvalidName
	}
	if _, exists := d.cells[c.Name]; exists {
		return nil, ErrDuplicateCell
	}
	if c.Attrs == nil {
		c.Attrs = make(map[string]string)
	}
	cell := &c
	d.cells[cell.Name] = cell
	return cell, nil
}

// AddNet adds a net to the design and returns the stored instance.
// The driver (if non-nil) and every user cell must already belong to
// this design; ErrUnknownCell is returned otherwise. Nets are
// enumerated by [Design.Nets] in the order they were added.
func (d *Design) AddNet(n Net) (*Net, error) {
	if n.Name == "" {
		return nil, ErrInvalidName
	}
	if _, exists := d.nets[n.Name]; exists {
		return nil, ErrDuplicateNet
	}
	if n.Driver != nil && d.cells[n.Driver.Name] != n.Driver {
		return nil, ErrUnknownCell
	}
	for _, u := range n.Users {
		if u.Cell == nil || d.cells[u.Cell.Name] != u.Cell {
			return nil, ErrUnknownCell
		}
	}
	net := &n
	d.nets[net.Name] = net
	d.netOrder = append(d.netOrder, net)
	return net, nil
}

// Cell returns the cell with the given name and true, or nil and false.
func (d *Design) Cell(name string) (*Cell, bool) {
	c, ok := d.cells[name]
	return c, ok
}

// Net returns the net with the given name and true, or nil and false.
func (d *Design) Net(name string) (*Net, bool) {
	n, ok := d.nets[name]
	return n, ok
}

// Nets returns all nets in insertion order. The returned slice is shared
// with the design and must not be modified.
func (d *Design) Nets() []*Net { return d.netOrder }

// CellCount returns the number of cells in the design.
func (d *Design) CellCount() int { return len(d.cells) }

// NetCount returns the number of nets in the design.
func (d *Design) NetCount() int { return len(d.nets) }
