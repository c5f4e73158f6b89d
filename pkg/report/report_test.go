package report

import (
	"strings"
	"testing"
	"time"

	"github.com/gridplan/gridplan/pkg/place"
)

func TestOccupancyText(t *testing.T) {
	var occ place.Occupancy
	for x := 0; x < place.GridSize; x++ {
		for y := 0; y < place.GridSize; y++ {
			occ[x][y] = 1250
		}
	}
	occ[0][11] = 7
	occ[3][0] = -42

	out := OccupancyText(occ)
	if !strings.HasPrefix(out, "\n") {
		t.Error("OccupancyText should start with a blank line")
	}

	lines := strings.Split(strings.TrimPrefix(out, "\n"), "\n")
	if len(lines) != place.GridSize+1 { // 12 rows + trailing newline
		t.Fatalf("OccupancyText rows = %d, want %d", len(lines)-1, place.GridSize)
	}
	for i := 0; i < place.GridSize; i++ {
		if got := strings.Count(lines[i], ","); got != place.GridSize {
			t.Errorf("row %d has %d fields, want %d", i, got, place.GridSize)
		}
	}

	// Highest y renders first: occ[0][11] leads the first row.
	if !strings.HasPrefix(lines[0], "   7,") {
		t.Errorf("first row = %q, want leading %q", lines[0], "   7,")
	}
	// Lowest y renders last, negatives keep the fixed width.
	if !strings.Contains(lines[place.GridSize-1], " -42,") {
		t.Errorf("last row = %q, want to contain %q", lines[place.GridSize-1], " -42,")
	}
}

func TestPhaseText(t *testing.T) {
	phases := []place.PhaseStats{
		{Name: "constrained", Placed: 3, Duration: 1500 * time.Microsecond},
		{Name: "spread", Placed: 12, Duration: 80 * time.Microsecond},
	}
	out := PhaseText(phases)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("PhaseText lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "constrained") || !strings.Contains(lines[0], "3 nets") {
		t.Errorf("line 0 = %q, want phase name and count", lines[0])
	}
}

func TestReportRoundTrip(t *testing.T) {
	result := &place.Result{
		TotalNets: 2,
		Assignments: map[string]place.BinCoord{
			"clk": {X: 0, Y: 6},
			"q0":  {X: 11, Y: 11},
		},
		Phases: []place.PhaseStats{
			{Name: "constrained", Placed: 1},
			{Name: "connectivity", Placed: 1},
			{Name: "spread", Placed: 0},
		},
	}
	result.Phases[2].Occupancy[0][6] = 1249

	r := New("run-1", "blinky", "test48", 1250, result)
	if r.GridSize != place.GridSize {
		t.Errorf("GridSize = %d, want %d", r.GridSize, place.GridSize)
	}
	if r.Occupancy[0][6] != 1249 {
		t.Error("report should carry the final phase's occupancy snapshot")
	}

	data, err := r.MarshalIndent()
	if err != nil {
		t.Fatalf("MarshalIndent error: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if back.RunID != "run-1" || back.Design != "blinky" || back.TotalNets != 2 {
		t.Errorf("round trip lost metadata: %+v", back)
	}
	if back.Assignments["clk"] != (place.BinCoord{X: 0, Y: 6}) {
		t.Errorf("Assignments[clk] = %v, want (0,6)", back.Assignments["clk"])
	}
}

func TestOccupancySVG(t *testing.T) {
	var occ place.Occupancy
	for x := 0; x < place.GridSize; x++ {
		for y := 0; y < place.GridSize; y++ {
			occ[x][y] = 4
		}
	}
	occ[5][5] = -1 // over-full

	svg := string(OccupancySVG(occ, 4))
	if !strings.HasPrefix(svg, "<svg xmlns=") {
		t.Error("OccupancySVG should emit a standalone SVG document")
	}
	// One background rect plus one per bin.
	if got := strings.Count(svg, "<rect"); got != place.GridSize*place.GridSize+1 {
		t.Errorf("rect count = %d, want %d", got, place.GridSize*place.GridSize+1)
	}
	if !strings.Contains(svg, "#7f1d1d") {
		t.Error("over-full bin should use the over-full fill")
	}
	if !strings.Contains(svg, `fill="#ffffff"`) {
		t.Error("empty bins should be white")
	}
}

func TestBinFill(t *testing.T) {
	tests := []struct {
		used, capacity int
		want           string
	}{
		{0, 10, "#ffffff"},
		{-2, 10, "#ffffff"},
		{10, 10, "#ff0000"},
		{11, 10, "#7f1d1d"},
	}
	for _, tt := range tests {
		if got := binFill(tt.used, tt.capacity); got != tt.want {
			t.Errorf("binFill(%d, %d) = %q, want %q", tt.used, tt.capacity, got, tt.want)
		}
	}
}
