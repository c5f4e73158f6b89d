package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gridplan/gridplan/pkg/pipeline"
	"github.com/gridplan/gridplan/pkg/place"
)

// heatmapCommand creates the interactive occupancy viewer command.
func (c *CLI) heatmapCommand() *cobra.Command {
	var (
		capacity int
		noCache  bool
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "heatmap [design.toml]",
		Short: "Browse per-phase bin occupancy interactively",
		Long: `Browse per-phase bin occupancy interactively.

The heatmap command places the design and opens a terminal viewer
showing the whitespace of every bin after each placement phase. Use
the arrow keys to step between phases and watch the spreading pass
relieve congestion.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			result, err := runner.Execute(cmd.Context(), pipeline.Options{
				DesignPath: args[0],
				Capacity:   capacity,
				Refresh:    refresh,
				Formats:    []string{pipeline.FormatText},
				Logger:     c.Logger,
			})
			if err != nil {
				return err
			}

			model := newHeatmapModel(result.Design.Name, capacityOrDefault(capacity), result.Placement.Phases)
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}

	cmd.Flags().IntVar(&capacity, "capacity", 0, "per-bin capacity (default 1250)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when a cached result exists")

	return cmd
}

func capacityOrDefault(capacity int) int {
	if capacity <= 0 {
		return pipeline.DefaultCapacity
	}
	return capacity
}

// Heatmap cell styles, keyed by congestion band.
var (
	heatStyleFree  = lipgloss.NewStyle().Foreground(colorGreen)
	heatStyleBusy  = lipgloss.NewStyle().Foreground(colorYellow)
	heatStyleFull  = lipgloss.NewStyle().Foreground(colorRed)
	heatStyleOver  = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	heatStyleEmpty = lipgloss.NewStyle().Foreground(colorDim)
)

// heatmapModel is the bubbletea model for the occupancy viewer.
type heatmapModel struct {
	Design   string
	Capacity int
	Phases   []place.PhaseStats
	Cursor   int
}

// newHeatmapModel creates a viewer positioned on the final phase.
func newHeatmapModel(designName string, capacity int, phases []place.PhaseStats) heatmapModel {
	cursor := len(phases) - 1
	if cursor < 0 {
		cursor = 0
	}
	return heatmapModel{
		Design:   designName,
		Capacity: capacity,
		Phases:   phases,
		Cursor:   cursor,
	}
}

func (m heatmapModel) Init() tea.Cmd {
	return nil
}

func (m heatmapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "right", "l":
			if m.Cursor < len(m.Phases)-1 {
				m.Cursor++
			}
		}
	}
	return m, nil
}

func (m heatmapModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Occupancy " + iconArrow + " " + m.Design))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ phase  q quit"))
	b.WriteString("\n\n")

	if len(m.Phases) == 0 {
		b.WriteString(StyleDim.Render("no phases recorded"))
		b.WriteString("\n")
		return b.String()
	}

	// Phase strip with the current one highlighted.
	var names []string
	for i, ph := range m.Phases {
		name := ph.Name
		if i == m.Cursor {
			name = StyleTitle.Render("[" + name + "]")
		} else {
			name = StyleDim.Render(name)
		}
		names = append(names, name)
	}
	b.WriteString(strings.Join(names, StyleDim.Render(" · ")))
	b.WriteString("\n\n")

	ph := m.Phases[m.Cursor]
	// Top row is the highest y, matching the device orientation.
	for y := place.GridSize - 1; y >= 0; y-- {
		for x := 0; x < place.GridSize; x++ {
			ws := ph.Occupancy[x][y]
			b.WriteString(m.cellStyle(ws).Render(fmt.Sprintf("%5d", ws)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("%s: %d nets in %s", ph.Name, ph.Placed, ph.Duration.Round(time.Microsecond))))
	b.WriteString("\n")
	return b.String()
}

// cellStyle picks a style for a bin by how much whitespace remains.
func (m heatmapModel) cellStyle(ws int) lipgloss.Style {
	switch {
	case ws < 0:
		return heatStyleOver
	case ws == 0:
		return heatStyleFull
	case ws < m.Capacity/4:
		return heatStyleBusy
	case ws == m.Capacity:
		return heatStyleEmpty
	default:
		return heatStyleFree
	}
}
