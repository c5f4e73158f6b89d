package place

import (
	"fmt"

	"github.com/gridplan/gridplan/pkg/perrors"
)

const (
	// GridSize is the number of bins along each axis of the coarse grid.
	// The grid is a design-time constant, not a tunable.
	GridSize = 12

	// DefaultBinCapacity is the advisory net capacity of a single bin.
	DefaultBinCapacity = 1250
)

// BinCoord addresses a bin on the coarse grid. Valid coordinates lie in
// [0, GridSize) on both axes.
type BinCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String formats the coordinate as "(x,y)".
func (c BinCoord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// InBounds reports whether the coordinate lies on the grid.
func (c BinCoord) InBounds() bool {
	return c.X >= 0 && c.X < GridSize && c.Y >= 0 && c.Y < GridSize
}

// MapToBin scales a device coordinate into bin space by proportional
// scaling: floor(coord * GridSize / dimension) per axis. For device
// coordinates inside the grid the result is clamped to [0, GridSize) by
// construction. Returns an INVALID_INPUT error when either device
// dimension is not strictly positive.
func MapToBin(x, y, width, height int) (BinCoord, error) {
	if width <= 0 || height <= 0 {
		return BinCoord{}, perrors.New(perrors.ErrCodeInvalidInput,
			"device dimensions must be positive, got %dx%d", width, height)
	}
	return BinCoord{
		X: x * GridSize / width,
		Y: y * GridSize / height,
	}, nil
}
