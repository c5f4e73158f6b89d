// Package pkg provides the core libraries for gridplan coarse placement.
//
// # Overview
//
// Gridplan spreads a netlist over a fixed grid of capacity-bounded bins.
// Cells are grouped by the nets that connect them, nets are scored by how
// strongly they share cells with a bin, and overfull bins shed their least
// connected nets to neighbouring bins. The pkg directory is organized into
// four main areas:
//
//  1. [place] - Domain logic (bins, the grid, the placement phases)
//  2. [design] - Designs and devices (netlist, sites, TOML loading)
//  3. [pipeline] - Orchestration (load → place → report)
//  4. [report] - Rendering (text occupancy, JSON, SVG heatmap, DOT)
//
// Supporting packages: [cache] (file/Redis result caching), [perrors]
// (coded errors), [observability] (hook registry), [buildinfo].
//
// # Architecture
//
// The typical data flow through gridplan:
//
//	Design file (TOML)
//	         ↓
//	design.Parse → Design + Device
//	         ↓
//	place.Placer.Run → per-phase bin assignments
//	         ↓
//	report.* → text / JSON / SVG / DOT artifacts
//
// The pipeline package ties the stages together with caching and hooks;
// internal/cli exposes them as the gridplan command.
package pkg
