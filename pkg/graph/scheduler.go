package graph

// PassResult reports what one propagation pass did. Failures are
// collected here rather than thrown, so the caller that triggered the
// pass can decide whether to retry, log, or surface them.
type PassResult struct {
	// Changed holds the source keys that triggered the pass, after
	// deduplication, in the order first seen.
	Changed []string

	// Recomputed holds the derived keys recomputed this pass, in
	// evaluation order.
	Recomputed []string

	// EffectsRun holds the effect keys whose run function was invoked,
	// in evaluation order.
	EffectsRun []string

	// Skipped holds the keys not evaluated because a node upstream of
	// them failed during this pass. They remain dirty and are retried by
	// the next pass that touches them.
	Skipped []string

	// Errors holds one entry per failing compute or run.
	Errors []NodeError
}

// OK reports whether the pass completed without node failures.
func (r *PassResult) OK() bool {
	return len(r.Errors) == 0
}

// Propagate runs one pass for a batch of just-changed source keys.
//
// The transitive closure of affected nodes is found by breadth-first
// traversal over the one-hop dependents index, topologically ordered with
// Kahn's algorithm over the induced subgraph, and evaluated exactly once
// each: derived nodes in order, then effects, after every derived node
// they depend on has settled.
//
// A failing compute leaves the node's last-good cached value in place,
// flags it dirty, and skips its downstream subtree for the remainder of
// the pass; unrelated subtrees still complete. Unknown and non-source
// keys in changed are ignored.
func (g *Graph) Propagate(changed []string) *PassResult {
	result := &PassResult{}

	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return result
	}

	// Deduplicate the batch, keeping only registered sources.
	seen := make(map[string]bool, len(changed))
	for _, key := range changed {
		if seen[key] {
			continue
		}
		n, ok := g.nodes[key]
		if !ok || n.kind != KindSource {
			continue
		}
		seen[key] = true
		result.Changed = append(result.Changed, key)
	}
	if len(result.Changed) == 0 {
		g.mu.Unlock()
		return result
	}

	// Affected set: BFS from the changed sources over dependents.
	affected := make(map[string]bool, len(result.Changed))
	queue := append([]string(nil), result.Changed...)
	for _, key := range queue {
		affected[key] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range g.dependents[cur] {
			if !affected[dep] {
				affected[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	// Mark affected non-source nodes stale up front. Successful
	// recomputes clear the flag; failed and skipped ones keep it.
	for key := range affected {
		if n := g.nodes[key]; n.kind != KindSource {
			n.dirty = true
		}
	}

	order := g.topoOrder(affected, result.Changed)
	g.mu.Unlock()

	// poisoned marks nodes whose subtree is aborted for this pass.
	poisoned := make(map[string]bool)

	var effects []string
	for _, key := range order {
		g.mu.Lock()
		n := g.nodes[key]
		if n.kind == KindSource {
			g.mu.Unlock()
			continue
		}

		if g.upstreamPoisoned(n, affected, poisoned) {
			poisoned[key] = true
			result.Skipped = append(result.Skipped, key)
			g.mu.Unlock()
			continue
		}

		if n.kind == KindEffect {
			// Effects run after all derived nodes have settled.
			effects = append(effects, key)
			g.mu.Unlock()
			continue
		}

		vals := g.gatherUpstream(n)
		compute := n.compute
		g.mu.Unlock()

		value, err := compute(vals)

		g.mu.Lock()
		if err != nil {
			// Last-good value stays; node stays dirty for retry.
			poisoned[key] = true
			result.Errors = append(result.Errors, NodeError{Key: key, Err: err})
		} else {
			n.value = value
			n.dirty = false
			result.Recomputed = append(result.Recomputed, key)
		}
		g.mu.Unlock()
	}

	for _, key := range effects {
		g.mu.Lock()
		n := g.nodes[key]
		vals := g.gatherUpstream(n)
		run := n.run
		g.mu.Unlock()

		if err := run(vals); err != nil {
			result.Errors = append(result.Errors, NodeError{Key: key, Err: err})
			continue
		}

		g.mu.Lock()
		n.dirty = false
		g.mu.Unlock()
		result.EffectsRun = append(result.EffectsRun, key)
	}

	return result
}

// topoOrder returns a Kahn ordering of the affected subgraph, seeded with
// the changed sources. Caller holds g.mu.
func (g *Graph) topoOrder(affected map[string]bool, changed []string) []string {
	// In-degree counts only edges internal to the affected set.
	indegree := make(map[string]int, len(affected))
	for key := range affected {
		n := g.nodes[key]
		deg := 0
		for _, up := range n.upstream {
			if affected[up] {
				deg++
			}
		}
		indegree[key] = deg
	}

	// Sources carry no upstream, so the changed sources are exactly the
	// zero-degree roots of the induced subgraph.
	queue := make([]string, 0, len(affected))
	queue = append(queue, changed...)

	order := make([]string, 0, len(affected))
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)

		for _, dep := range g.dependents[cur] {
			if !affected[dep] {
				continue
			}
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	return order
}

// upstreamPoisoned reports whether any upstream of n, within this pass's
// affected set, failed or was skipped. Caller holds g.mu.
func (g *Graph) upstreamPoisoned(n *node, affected, poisoned map[string]bool) bool {
	for _, up := range n.upstream {
		if affected[up] && poisoned[up] {
			return true
		}
	}
	return false
}

// gatherUpstream collects the current values of n's upstream nodes, in
// declaration order. Caller holds g.mu.
func (g *Graph) gatherUpstream(n *node) []any {
	vals := make([]any, len(n.upstream))
	for i, up := range n.upstream {
		vals[i] = g.nodes[up].value
	}
	return vals
}
