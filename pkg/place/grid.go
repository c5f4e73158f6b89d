package place

import (
	"math"

	"github.com/gridplan/gridplan/pkg/design"
	"github.com/gridplan/gridplan/pkg/perrors"
)

// Occupancy is a whitespace snapshot of every bin, indexed [x][y].
// Negative entries mark over-full bins.
type Occupancy [GridSize][GridSize]int

// Grid is the fixed 12×12 array of bins. It is exclusively owned by a
// single placement run; no concurrent access is permitted mid-run.
type Grid struct {
	capacity int
	bins     [GridSize][GridSize]*Bin
}

// NewGrid creates a grid whose bins all share the given capacity.
// A non-positive capacity selects DefaultBinCapacity.
func NewGrid(capacity int) *Grid {
	if capacity <= 0 {
		capacity = DefaultBinCapacity
	}
	g := &Grid{capacity: capacity}
	for x := 0; x < GridSize; x++ {
		for y := 0; y < GridSize; y++ {
			g.bins[x][y] = NewBin(capacity)
		}
	}
	return g
}

// Capacity returns the shared per-bin capacity.
func (g *Grid) Capacity() int { return g.capacity }

// Bin returns the bin at the given coordinate, or an OUT_OF_BOUNDS
// error for coordinates off the grid.
func (g *Grid) Bin(c BinCoord) (*Bin, error) {
	if !c.InBounds() {
		return nil, perrors.New(perrors.ErrCodeOutOfBounds, "bin coordinate %s outside %dx%d grid",
			c, GridSize, GridSize)
	}
	return g.bins[c.X][c.Y], nil
}

// HighestConnectivity scans every bin in row-major order (x outer, y
// inner, starting at (0,0)) and returns the coordinate of the bin with
// the strictly highest connectivity score for the net. Ties resolve to
// the earliest-scanned coordinate.
func (g *Grid) HighestConnectivity(net *design.Net) BinCoord {
	best := BinCoord{}
	bestScore := g.bins[0][0].Connectivity(net)
	for x := 0; x < GridSize; x++ {
		for y := 0; y < GridSize; y++ {
			if x == 0 && y == 0 {
				continue
			}
			if score := g.bins[x][y].Connectivity(net); score > bestScore {
				bestScore = score
				best = BinCoord{X: x, Y: y}
			}
		}
	}
	return best
}

// InsertNet inserts the net into the addressed bin. Returns an
// OUT_OF_BOUNDS error for coordinates off the grid; correct coordinate
// mapping never produces one, so a failure here is a programming error.
func (g *Grid) InsertNet(c BinCoord, net *design.Net) error {
	bin, err := g.Bin(c)
	if err != nil {
		return err
	}
	bin.InsertNet(net)
	return nil
}

// SpreadWhitespace performs the single grid-wide congestion-relief
// pass: every bin is visited exactly once in row-major order, and its
// least-connected nets are pushed into roomier neighbours while doing
// so strictly reduces congestion. Net count is conserved: every popped
// net is reinserted somewhere exactly once. Returns the number of nets
// moved to a different bin.
func (g *Grid) SpreadWhitespace() int {
	moves := 0
	for x := 0; x < GridSize; x++ {
		for y := 0; y < GridSize; y++ {
			moves += g.spreadBin(x, y)
		}
	}
	return moves
}

// spreadBin relieves one bin. Residents are sorted once by gamma, then
// popped least-connected-first; each popped net moves to the Moore
// neighbour with the lowest congestion score, or goes back into the bin
// (ending the loop) when no move strictly improves congestion.
func (g *Grid) spreadBin(x, y int) int {
	bin := g.bins[x][y]
	bin.Sort()

	moves := 0
	for {
		net := bin.PopLeastConnected()
		if net == nil {
			return moves
		}

		best := BinCoord{}
		bestScore := math.MaxInt
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				nx, ny := x+dx, y+dy
				if dx == 0 && dy == 0 || nx < 0 || nx >= GridSize || ny < 0 || ny >= GridSize {
					continue
				}
				// Lower is better: emptier neighbours win first, then
				// the distance term separates equally-empty ones.
				score := (g.capacity - g.bins[nx][ny].Whitespace()) + (1 - (abs(dx) + abs(dy)))
				if score < bestScore {
					bestScore = score
					best = BinCoord{X: nx, Y: ny}
				}
			}
		}

		if bestScore < g.capacity+1-bin.Whitespace() {
			g.bins[best.X][best.Y].InsertNet(net)
			moves++
		} else {
			bin.InsertNet(net)
			return moves
		}
	}
}

// TotalNets returns the number of nets resident across the whole grid.
func (g *Grid) TotalNets() int {
	total := 0
	for x := 0; x < GridSize; x++ {
		for y := 0; y < GridSize; y++ {
			total += g.bins[x][y].NetCount()
		}
	}
	return total
}

// Occupancy captures a whitespace snapshot of every bin.
func (g *Grid) Occupancy() Occupancy {
	var occ Occupancy
	for x := 0; x < GridSize; x++ {
		for y := 0; y < GridSize; y++ {
			occ[x][y] = g.bins[x][y].Whitespace()
		}
	}
	return occ
}

// Assignments returns the current net-to-bin mapping, keyed by net name.
func (g *Grid) Assignments() map[string]BinCoord {
	assign := make(map[string]BinCoord)
	for x := 0; x < GridSize; x++ {
		for y := 0; y < GridSize; y++ {
			for _, net := range g.bins[x][y].Nets() {
				assign[net.Name] = BinCoord{X: x, Y: y}
			}
		}
	}
	return assign
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
