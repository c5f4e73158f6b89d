// Package report renders placement results for humans and tools:
// a plain-text whitespace heatmap, a JSON document, an SVG heatmap,
// and a Graphviz view of the netlist.
package report
