package report

import (
	"encoding/json"
	"time"

	"github.com/gridplan/gridplan/pkg/place"
)

// Report is the machine-readable placement document. It wraps the
// placer's result with run metadata so a stored report is
// self-describing.
type Report struct {
	RunID       string                    `json:"run_id"`
	Design      string                    `json:"design"`
	Device      string                    `json:"device"`
	Capacity    int                       `json:"capacity"`
	GridSize    int                       `json:"grid_size"`
	GeneratedAt time.Time                 `json:"generated_at"`
	TotalNets   int                       `json:"total_nets"`
	Phases      []place.PhaseStats        `json:"phases"`
	Assignments map[string]place.BinCoord `json:"assignments"`
	Occupancy   place.Occupancy           `json:"occupancy"`
}

// New builds a report from a completed placement result.
func New(runID, designName, deviceName string, capacity int, result *place.Result) *Report {
	r := &Report{
		RunID:       runID,
		Design:      designName,
		Device:      deviceName,
		Capacity:    capacity,
		GridSize:    place.GridSize,
		GeneratedAt: time.Now().UTC(),
		TotalNets:   result.TotalNets,
		Phases:      result.Phases,
		Assignments: result.Assignments,
	}
	if n := len(result.Phases); n > 0 {
		r.Occupancy = result.Phases[n-1].Occupancy
	}
	return r
}

// MarshalIndent renders the report as indented JSON.
func (r *Report) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Unmarshal parses a stored JSON report.
func Unmarshal(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
