package graph

// WouldCreateCircularDependency reports whether adding from -> to would
// close a cycle, i.e. whether from is reachable from to. A node depending on
// itself always would. The graph is not modified.
func (g *Graph) WouldCreateCircularDependency(from, to string) bool {
	if from == to {
		return true
	}
	src, ok := g.nodeIdx[to]
	if !ok {
		return false
	}
	dst, ok := g.nodeIdx[from]
	if !ok {
		return false
	}
	found := false
	g.bfs(src, false, func(i int) bool {
		if i == dst {
			found = true
			return false
		}
		return true
	})
	return found
}

// Dependencies returns every node path transitively depends on, in node
// order. path itself is only included when it lies on a cycle.
func (g *Graph) Dependencies(path string) []string {
	return g.reachable(path, false)
}

// Dependents returns every node that transitively depends on path, in node
// order. path itself is only included when it lies on a cycle.
func (g *Graph) Dependents(path string) []string {
	return g.reachable(path, true)
}

// ValidTargets returns the nodes from could depend on without creating a
// cycle: everything except from and its dependents, in node order.
func (g *Graph) ValidTargets(from string) []string {
	excluded := make(map[string]bool)
	excluded[from] = true
	for _, p := range g.Dependents(from) {
		excluded[p] = true
	}
	out := make([]string, 0, len(g.nodes))
	for _, p := range g.nodes {
		if !excluded[p] {
			out = append(out, p)
		}
	}
	return out
}

func (g *Graph) reachable(path string, reverse bool) []string {
	start, ok := g.nodeIdx[path]
	if !ok {
		return nil
	}
	seen := make([]bool, len(g.nodes))
	g.bfs(start, reverse, func(i int) bool {
		seen[i] = true
		return true
	})
	var out []string
	for i, hit := range seen {
		if hit {
			out = append(out, g.nodes[i])
		}
	}
	return out
}

// bfs visits every node reachable from start, following edges backwards
// when reverse is set. start itself is only visited if reached again.
// visit returning false stops the search.
func (g *Graph) bfs(start int, reverse bool, visit func(int) bool) {
	adj, ends := g.outEdges, g.targets
	if reverse {
		adj, ends = g.inEdges, g.sources
	}
	seen := make([]bool, len(g.nodes))
	queue := []int{start}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, id := range adj[u] {
			v := ends[id]
			if seen[v] {
				continue
			}
			seen[v] = true
			if !visit(v) {
				return
			}
			queue = append(queue, v)
		}
	}
}
