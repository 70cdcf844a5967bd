package graph

import (
	"sort"
	"sync"
)

// Graph holds node definitions and the derived-from edges between them.
// Nodes are registered once at construction time and never structurally
// change; only cached values and dirty flags mutate afterwards.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*node

	// dependents is the one-hop reverse index: for each key, the keys
	// that list it among their upstream.
	dependents map[string][]string

	released bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:      make(map[string]*node),
		dependents: make(map[string][]string),
	}
}

// RegisterSource creates a Source node with the given initial value.
// Returns DuplicateKeyError if the key is already registered.
func (g *Graph) RegisterSource(key string, initial any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[key]; exists {
		return &DuplicateKeyError{Key: key}
	}

	g.nodes[key] = &node{
		key:   key,
		kind:  KindSource,
		value: initial,
	}
	return nil
}

// RegisterDerived creates a Derived node whose compute function receives
// the current values of the upstream keys, in the order given.
//
// Registration is atomic: on any failure (duplicate key, unknown or
// terminal upstream, cycle) the graph is left unchanged.
func (g *Graph) RegisterDerived(key string, upstream []string, compute ComputeFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.validateRegistration(key, upstream); err != nil {
		return err
	}

	g.insert(&node{
		key:      key,
		kind:     KindDerived,
		upstream: append([]string(nil), upstream...),
		compute:  compute,
	})
	return nil
}

// RegisterEffect creates an Effect node. The run function receives the
// current upstream values and performs a side effect; its return value is
// only used to report failure. Effects are terminal: no other node may
// list an effect as upstream.
func (g *Graph) RegisterEffect(key string, upstream []string, run RunFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.validateRegistration(key, upstream); err != nil {
		return err
	}

	g.insert(&node{
		key:      key,
		kind:     KindEffect,
		upstream: append([]string(nil), upstream...),
		run:      run,
	})
	return nil
}

// validateRegistration checks a registration without mutating the graph.
// Caller holds g.mu.
func (g *Graph) validateRegistration(key string, upstream []string) error {
	if _, exists := g.nodes[key]; exists {
		return &DuplicateKeyError{Key: key}
	}

	for _, up := range upstream {
		if up == key {
			// Self-edge is the smallest cycle.
			return &CycleError{Key: key, Upstream: up}
		}
		dep, ok := g.nodes[up]
		if !ok {
			return &UnknownUpstreamError{Key: key, Upstream: up}
		}
		if dep.kind == KindEffect {
			return &TerminalNodeError{Key: key, Upstream: up}
		}
		// Reachability check: if key is reachable from the upstream by
		// walking upstream edges, the new edge up -> key closes a cycle.
		if g.reaches(up, key) {
			return &CycleError{Key: key, Upstream: up}
		}
	}
	return nil
}

// reaches reports whether target is reachable from start by following
// upstream edges. Caller holds g.mu.
func (g *Graph) reaches(start, target string) bool {
	seen := map[string]bool{start: true}
	stack := []string{start}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n, ok := g.nodes[cur]
		if !ok {
			continue
		}
		for _, up := range n.upstream {
			if up == target {
				return true
			}
			if !seen[up] {
				seen[up] = true
				stack = append(stack, up)
			}
		}
	}
	return false
}

// insert adds a validated node and updates the reverse index.
// Caller holds g.mu.
func (g *Graph) insert(n *node) {
	g.nodes[n.key] = n
	for _, up := range n.upstream {
		g.dependents[up] = append(g.dependents[up], n.key)
	}
}

// DependentsOf returns the keys that list key among their upstream keys
// (one hop, not transitive). The result is a copy.
func (g *Graph) DependentsOf(key string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.dependents[key]...)
}

// UpstreamOf returns the declared upstream keys of a node, in order.
func (g *Graph) UpstreamOf(key string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[key]
	if !ok {
		return nil
	}
	return append([]string(nil), n.upstream...)
}

// Set stores a new value on a Source node. It does not propagate; the
// caller batches changed keys and runs Propagate. Equal values are not
// short-circuited: a Set always counts as a change, which keeps passes
// deterministic.
func (g *Graph) Set(key string, value any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[key]
	if !ok {
		return &UnknownKeyError{Key: key}
	}
	if n.kind != KindSource {
		return &NotSourceError{Key: key, Kind: n.kind}
	}

	n.value = value
	return nil
}

// Value returns the cached value of a Source or Derived node. The second
// return is false for unknown keys and for Effect nodes, which cache
// nothing.
func (g *Graph) Value(key string) (any, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[key]
	if !ok || n.kind == KindEffect {
		return nil, false
	}
	return n.value, true
}

// Dirty reports whether a node's cached value is stale (its last
// recompute failed or was skipped).
func (g *Graph) Dirty(key string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[key]
	return ok && n.dirty
}

// Kind returns the kind of a registered node.
func (g *Graph) Kind(key string) (Kind, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[key]
	if !ok {
		return 0, false
	}
	return n.kind, true
}

// Keys returns all registered node keys, sorted.
func (g *Graph) Keys() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.nodes))
	for k := range g.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Release drops all cached node values. Called at session teardown; the
// graph is unusable afterwards.
func (g *Graph) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return
	}
	g.released = true

	for _, n := range g.nodes {
		n.value = nil
		n.compute = nil
		n.run = nil
	}
}

// Released reports whether Release has been called.
func (g *Graph) Released() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.released
}
