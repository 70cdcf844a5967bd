package graph

// Kind identifies the role of a node in the graph.
type Kind uint8

const (
	// KindSource is an externally set value with no upstream.
	KindSource Kind = iota + 1

	// KindDerived is a pure computation over upstream values.
	KindDerived

	// KindEffect is a terminal side-effecting consumer.
	KindEffect
)

// String returns a human-readable name for the node kind.
func (k Kind) String() string {
	switch k {
	case KindSource:
		return "Source"
	case KindDerived:
		return "Derived"
	case KindEffect:
		return "Effect"
	default:
		return "Unknown"
	}
}

// ComputeFunc computes a Derived node's value from the current values of
// its upstream nodes, in the order they were declared at registration.
// Compute functions must be pure: same inputs, same output, no writes
// back into the graph.
type ComputeFunc func(upstream []any) (any, error)

// RunFunc performs an Effect node's side effect. It receives the current
// upstream values in declaration order; its return value is only used to
// report failure. Run functions must not mutate sources synchronously;
// source changes made from inside an effect go through the owning
// session's queue and land in the next pass.
type RunFunc func(upstream []any) error

// node is a single entry in the graph. Sources cache an externally set
// value, Derived nodes cache their last computed value, Effects cache
// nothing.
type node struct {
	key      string
	kind     Kind
	upstream []string

	compute ComputeFunc
	run     RunFunc

	// value is the cached value (Source and Derived only).
	value any

	// dirty marks a node whose cached value may no longer reflect its
	// upstream values. Set when a pass touches the node, cleared on
	// successful recompute. A node left dirty by a failed or skipped
	// recompute is retried by the next pass that reaches it.
	dirty bool
}
