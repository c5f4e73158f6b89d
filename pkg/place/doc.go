// Package place implements seeded coarse placement of nets onto a fixed
// 12×12 grid of capacity-bounded bins.
//
// Placement runs in three phases:
//
//  1. Constrained placement: cells carrying a LOC attribute are bound to
//     their named device site and their nets land in the bin covering
//     that site.
//  2. Connectivity placement: every remaining net is inserted into the
//     bin with the highest combined affinity/whitespace score.
//  3. Whitespace spreading: a single congestion-relief pass moves the
//     least-connected nets out of crowded bins into roomier neighbours.
//
// The result is a seeded, legal-enough bin assignment for later, more
// precise placement stages. Bin capacity is advisory: insertion never
// checks it, so bins may be over-full until the spreading pass runs.
// Congestion is corrected after the fact, not prevented.
//
// Bins hold references to nets owned by the design database; they never
// copy them, and all bin state is discarded when a run ends. The only
// durable side effect of a run is the cell-to-site binding committed
// during the constrained phase.
package place
