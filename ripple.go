// Package ripple provides the public API for the Ripple reactive graph
// engine.
//
// This is the recommended import for most applications:
//
//	import "github.com/ripple-dev/ripple"
//
// Usage:
//
//	g := ripple.NewGraph()
//	g.RegisterSource("region", "CA")
//	g.RegisterDerived("choices", []string{"region"}, compute)
//	result := g.Propagate([]string{"region"})
//
// For session-scoped graphs with queued, coalesced source changes, use
// NewSession; for the full server assembly, use NewApp.
package ripple

import (
	"log/slog"

	"github.com/ripple-dev/ripple/pkg/graph"
	"github.com/ripple-dev/ripple/pkg/session"
)

// Graph is the reactive dependency graph.
type Graph = graph.Graph

// Kind identifies a node's role: Source, Derived, or Effect.
type Kind = graph.Kind

// Node kinds.
const (
	KindSource  = graph.KindSource
	KindDerived = graph.KindDerived
	KindEffect  = graph.KindEffect
)

// ComputeFunc computes a Derived node's value from its upstream values.
type ComputeFunc = graph.ComputeFunc

// RunFunc performs an Effect node's side effect.
type RunFunc = graph.RunFunc

// PassResult reports what one propagation pass did.
type PassResult = graph.PassResult

// NodeError records a compute or run failure for one node during a pass.
type NodeError = graph.NodeError

// Construction-time registration errors.
type (
	DuplicateKeyError    = graph.DuplicateKeyError
	UnknownUpstreamError = graph.UnknownUpstreamError
	CycleError           = graph.CycleError
	TerminalNodeError    = graph.TerminalNodeError
)

// Session owns a graph and serializes source changes into passes.
type Session = session.Session

// NewGraph creates an empty reactive graph.
func NewGraph() *Graph {
	return graph.New()
}

// NewSession creates a session with a fresh graph. A nil logger falls
// back to slog.Default().
func NewSession(id string, logger *slog.Logger) *Session {
	return session.New(id, logger)
}
