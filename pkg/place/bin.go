package place

import (
	"cmp"
	"slices"

	"github.com/gridplan/gridplan/pkg/design"
)

// Bin is a capacity-bounded container of nets with an incrementally
// maintained connectivity map. The map counts, per cell, how many
// resident nets touch that cell (driver and every sink count as one
// touch each, per net). Capacity is advisory: InsertNet never rejects.
//
// Bin is not safe for concurrent use.
type Bin struct {
	capacity int
	nets     []*design.Net
	conns    map[string]int // cell name -> touch count
}

// NewBin creates a bin with the given capacity. A non-positive capacity
// selects DefaultBinCapacity.
func NewBin(capacity int) *Bin {
	if capacity <= 0 {
		capacity = DefaultBinCapacity
	}
	return &Bin{
		capacity: capacity,
		conns:    make(map[string]int),
	}
}

// Capacity returns the bin's advisory capacity.
func (b *Bin) Capacity() int { return b.capacity }

// NetCount returns the number of resident nets.
func (b *Bin) NetCount() int { return len(b.nets) }

// Nets returns the resident nets in their current order. The slice is
// shared with the bin and must not be modified.
func (b *Bin) Nets() []*design.Net { return b.nets }

// Whitespace returns the bin's remaining capacity. It may be negative:
// capacity is not enforced at insertion, so an over-full bin reports
// negative whitespace until a spreading pass relieves it.
func (b *Bin) Whitespace() int {
	return b.capacity - len(b.nets)
}

// EdgeCount sums the connectivity counts for the candidate net's driver
// cell and every sink cell, treating absent cells as zero. This measures
// how entangled the candidate already is with the nets resident here.
func (b *Bin) EdgeCount(net *design.Net) int {
	edges := 0
	if net.Driver != nil {
		edges += b.conns[net.Driver.Name]
	}
	for _, u := range net.Users {
		edges += b.conns[u.Cell.Name]
	}
	return edges
}

// Gamma scores how connected the net is to this bin's residents,
// normalized by fanout: (1 + edgeCount) / (1 + fanout). The +1 in the
// numerator keeps a zero edge count from erasing the whitespace term in
// Connectivity; the +1 in the denominator handles sink-less nets.
// The result is always strictly positive.
func (b *Bin) Gamma(net *design.Net) float64 {
	return float64(1+b.EdgeCount(net)) / float64(1+net.Fanout())
}

// Connectivity is the combined selection score: gamma weighted by free
// space. It rewards bins that are both roomy and already entangled with
// the candidate; an empty, unconnected bin still scores positively on
// whitespace alone.
func (b *Bin) Connectivity(net *design.Net) float64 {
	return b.Gamma(net) * float64(b.Whitespace())
}

// InsertNet appends the net to the residents and increments the
// connectivity count for its driver and every sink cell. Capacity is
// not checked.
func (b *Bin) InsertNet(net *design.Net) {
	b.nets = append(b.nets, net)
	if net.Driver != nil {
		b.conns[net.Driver.Name]++
	}
	for _, u := range net.Users {
		b.conns[u.Cell.Name]++
	}
}

// Sort orders resident nets by descending gamma, leaving the least
// connected net at the tail where PopLeastConnected removes it.
func (b *Bin) Sort() {
	slices.SortStableFunc(b.nets, func(x, y *design.Net) int {
		return cmp.Compare(b.Gamma(y), b.Gamma(x))
	})
}

// PopLeastConnected removes and returns the net at the tail of the
// resident order, decrementing the connectivity counts for its driver
// and sink cells. Counts reach zero but never go below; a zero count is
// logically absent and need not be deleted. Returns nil when the bin is
// empty. The tail is only the least-connected net if Sort ran since the
// last insertion.
func (b *Bin) PopLeastConnected() *design.Net {
	if len(b.nets) == 0 {
		return nil
	}
	net := b.nets[len(b.nets)-1]
	b.nets = b.nets[:len(b.nets)-1]
	if net.Driver != nil {
		b.decrement(net.Driver.Name)
	}
	for _, u := range net.Users {
		b.decrement(u.Cell.Name)
	}
	return net
}

func (b *Bin) decrement(cell string) {
	if b.conns[cell] > 0 {
		b.conns[cell]--
	}
}
