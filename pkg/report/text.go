package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gridplan/gridplan/pkg/place"
)

// OccupancyText renders a whitespace heatmap as fixed-width text. Rows
// run top-down from the highest y so the output matches the device's
// visual orientation; columns run left to right. Negative values mark
// over-full bins.
func OccupancyText(occ place.Occupancy) string {
	var buf bytes.Buffer
	buf.WriteByte('\n')
	for y := place.GridSize - 1; y >= 0; y-- {
		for x := 0; x < place.GridSize; x++ {
			fmt.Fprintf(&buf, "%4d,", occ[x][y])
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// PhaseText renders one line per phase: name, nets handled, duration.
func PhaseText(phases []place.PhaseStats) string {
	var buf bytes.Buffer
	for _, ph := range phases {
		fmt.Fprintf(&buf, "%-14s %6d nets  %s\n", ph.Name, ph.Placed, ph.Duration.Round(time.Microsecond))
	}
	return buf.String()
}
