// Package design models the netlist and device database consumed by the
// placer.
//
// The package has three parts:
//
//   - The netlist: [Cell], [Port], [Net], and the [Design] container that
//     owns them. Nets and cells are created once when a design is built
//     and are referenced (never copied) by the placement core.
//   - The device: [Device], [Site], and site binding with a [Strength]
//     level, modelling the physical grid that constrained cells are
//     pinned to.
//   - The loader: [Load] and [Parse] read a TOML design file into a
//     validated Design/Device pair.
//
// Net enumeration order is the insertion order of the design file. This
// is deliberate: tie-breaking during bin selection depends on scan
// order, so enumeration must be deterministic for reproducible runs.
package design
