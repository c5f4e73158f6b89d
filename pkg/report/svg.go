package report

import (
	"bytes"
	"fmt"

	"github.com/gridplan/gridplan/pkg/place"
)

const (
	cellSize = 48
	cellGap  = 4
)

// OccupancySVG renders the whitespace heatmap as a standalone SVG.
// Bin shading tracks utilization: white for empty, saturating to red
// at full, dark red for over-full bins. Orientation matches
// OccupancyText, the highest y row at the top.
func OccupancySVG(occ place.Occupancy, capacity int) []byte {
	if capacity <= 0 {
		capacity = place.DefaultBinCapacity
	}
	side := place.GridSize*(cellSize+cellGap) + cellGap

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`,
		side, side, side, side)
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, `  <rect width="%d" height="%d" fill="#1a1a2e"/>`, side, side)
	buf.WriteByte('\n')

	for x := 0; x < place.GridSize; x++ {
		for y := 0; y < place.GridSize; y++ {
			px := cellGap + x*(cellSize+cellGap)
			py := cellGap + (place.GridSize-1-y)*(cellSize+cellGap)
			used := capacity - occ[x][y]
			fmt.Fprintf(&buf, `  <rect x="%d" y="%d" width="%d" height="%d" fill="%s" rx="3"><title>bin (%d,%d): whitespace %d</title></rect>`,
				px, py, cellSize, cellSize, binFill(used, capacity), x, y, occ[x][y])
			buf.WriteByte('\n')
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// binFill maps a bin's utilization to a fill color.
func binFill(used, capacity int) string {
	if used > capacity {
		return "#7f1d1d" // over-full
	}
	if used <= 0 {
		return "#ffffff"
	}
	// Linear white -> red ramp on the green/blue channels.
	frac := float64(used) / float64(capacity)
	gb := int(255 * (1 - frac))
	return fmt.Sprintf("#ff%02x%02x", gb, gb)
}
