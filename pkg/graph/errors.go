package graph

import "fmt"

// DuplicateKeyError is returned when registering a node under a key that
// already exists in the graph.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("graph: node %q already registered", e.Key)
}

// UnknownUpstreamError is returned when a registration names an upstream
// key that has not been registered yet.
type UnknownUpstreamError struct {
	Key      string
	Upstream string
}

func (e *UnknownUpstreamError) Error() string {
	return fmt.Sprintf("graph: node %q depends on unregistered node %q", e.Key, e.Upstream)
}

// TerminalNodeError is returned when a registration names an Effect node
// as an upstream. Effects are terminal consumers and have no downstream
// readers.
type TerminalNodeError struct {
	Key      string
	Upstream string
}

func (e *TerminalNodeError) Error() string {
	return fmt.Sprintf("graph: node %q cannot read effect node %q", e.Key, e.Upstream)
}

// CycleError is returned when adding a node's edges would create a cycle.
// The registration is rejected and the graph is left unchanged.
type CycleError struct {
	Key      string
	Upstream string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("graph: edge %q -> %q would create a cycle", e.Upstream, e.Key)
}

// UnknownKeyError is returned when an operation names a key that is not
// registered in the graph.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("graph: unknown node %q", e.Key)
}

// NotSourceError is returned when Set is called on a node that is not a
// Source. Derived and Effect nodes are only ever updated by propagation.
type NotSourceError struct {
	Key  string
	Kind Kind
}

func (e *NotSourceError) Error() string {
	return fmt.Sprintf("graph: cannot set %s node %q", e.Kind, e.Key)
}

// NodeError records a compute or run failure for one node during a pass.
type NodeError struct {
	Key string
	Err error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("graph: node %q: %v", e.Key, e.Err)
}

// Unwrap returns the underlying failure for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}
