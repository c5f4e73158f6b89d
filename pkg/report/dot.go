package report

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/gridplan/gridplan/pkg/design"
)

// DOTOptions configures netlist diagram rendering.
type DOTOptions struct {
	// Detailed includes cell types and pin names in the output.
	// When false, only cell names are shown.
	Detailed bool
}

// ToDOT converts a netlist to Graphviz DOT format: one node per cell,
// one edge per driver-to-sink connection. Pseudo cells are rendered
// with dashed outlines and grey fill to distinguish them from real
// cells; driverless nets contribute no edges.
func ToDOT(d *design.Design, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	seen := make(map[string]bool)
	emit := func(c *design.Cell) {
		if c == nil || seen[c.Name] {
			return
		}
		seen[c.Name] = true
		attrs := fmtCellAttrs(c, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", c.Name, strings.Join(attrs, ", "))
	}
	for _, net := range d.Nets() {
		emit(net.Driver)
		for _, u := range net.Users {
			emit(u.Cell)
		}
	}

	buf.WriteString("\n")
	for _, net := range d.Nets() {
		if net.Driver == nil {
			continue
		}
		for _, u := range net.Users {
			if opts.Detailed {
				fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", net.Driver.Name, u.Cell.Name,
					fmt.Sprintf("%s.%s", net.Name, u.Pin))
			} else {
				fmt.Fprintf(&buf, "  %q -> %q;\n", net.Driver.Name, u.Cell.Name)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtCellAttrs(c *design.Cell, detailed bool) []string {
	label := c.Name
	if detailed {
		label = fmt.Sprintf("%s\n%s", c.Name, c.Type)
		if loc, ok := c.Loc(); ok {
			label += "\n@" + loc
		}
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if c.IsPseudo() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz SVG header so the viewBox
// starts at the origin and the pixel size matches it. Graphviz emits
// point-based sizes that scale inconsistently across renderers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
