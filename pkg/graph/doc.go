// Package graph provides the reactive core for Ripple.
//
// A Graph is an explicit, declarative dependency graph with three node
// kinds: Sources (externally set values), Derived nodes (pure computations
// over upstream values, recomputed when an upstream changes), and Effects
// (terminal side-effecting consumers). Unlike ambient-reactivity systems
// that track reads implicitly, every edge here is declared at registration
// time, which makes propagation deterministic and cycle detection a
// build-time concern.
//
// # Core Types
//
// Registering nodes:
//
//	g := graph.New()
//	g.RegisterSource("region", "CA")
//	g.RegisterDerived("choices", []string{"region"}, computeChoices)
//	g.RegisterEffect("push", []string{"choices"}, pushToSurface)
//
// Propagation:
//
//	g.Set("region", "TX")
//	result := g.Propagate([]string{"region"})
//	if !result.OK() {
//	    // result.Errors lists per-node failures
//	}
//
// One call to Propagate is one pass: the transitively affected nodes are
// recomputed exactly once each, in an order that respects dependencies
// (Kahn's algorithm over the induced subgraph), and effects run only after
// every derived node they depend on has settled.
//
// # Failure Isolation
//
// A failing compute or run poisons only its own downstream subtree for the
// remainder of the pass. Unrelated subtrees still complete. The failing
// node keeps its last-good cached value and stays dirty so it is retried
// by the next pass that touches it. Failures are collected on the
// PassResult, never thrown through the scheduler.
//
// # Thread Safety
//
// Graph methods are safe for concurrent use, but the intended model is
// single-threaded and cooperative: one pass runs to completion before the
// next begins. Session (pkg/session) serializes external changes into
// coalesced batches and drains them one pass at a time.
package graph
