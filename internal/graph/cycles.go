package graph

// Cycle is one elementary cycle found by FindCycles. Path starts and ends
// with the same node; Edges[i] runs from Path[i] to Path[i+1].
type Cycle struct {
	Path  []string `json:"cycle" yaml:"cycle" toml:"cycle"`
	Edges []Edge   `json:"edges" yaml:"edges" toml:"edges"`
}

// CycleReport is the result of FindCycles.
type CycleReport struct {
	IsAcyclic bool    `json:"isAcyclic" yaml:"isAcyclic" toml:"isAcyclic"`
	Cycles    []Cycle `json:"cycles" yaml:"cycles" toml:"cycles"`
}

type visitState uint8

const (
	stateUnvisited visitState = iota
	stateVisiting
	stateDone
)

// FindCycles runs a depth-first traversal from every node in insertion
// order and reports one cycle per back-edge. Disjoint cycles are all
// reported; an edge may take part in more than one reported cycle.
func (g *Graph) FindCycles() CycleReport {
	n := len(g.nodes)
	states := make([]visitState, n)
	stackPos := make([]int, n)

	var stack []int
	var edgeStack []int
	var cycles []Cycle

	var visit func(u int)
	visit = func(u int) {
		states[u] = stateVisiting
		stackPos[u] = len(stack)
		stack = append(stack, u)

		for _, id := range g.outEdges[u] {
			v := g.targets[id]
			switch states[v] {
			case stateUnvisited:
				edgeStack = append(edgeStack, id)
				visit(v)
				edgeStack = edgeStack[:len(edgeStack)-1]
			case stateVisiting:
				cycles = append(cycles, g.cycleFrom(stack[stackPos[v]:], edgeStack[stackPos[v]:], id))
			}
		}

		stack = stack[:len(stack)-1]
		states[u] = stateDone
	}

	for u := 0; u < n; u++ {
		if states[u] == stateUnvisited {
			visit(u)
		}
	}
	return CycleReport{IsAcyclic: len(cycles) == 0, Cycles: cycles}
}

// cycleFrom copies the stack slice into a Cycle closed by edge closing.
func (g *Graph) cycleFrom(nodes, edges []int, closing int) Cycle {
	c := Cycle{
		Path:  make([]string, 0, len(nodes)+1),
		Edges: make([]Edge, 0, len(edges)+1),
	}
	for _, i := range nodes {
		c.Path = append(c.Path, g.nodes[i])
	}
	c.Path = append(c.Path, g.nodes[nodes[0]])
	for _, id := range edges {
		c.Edges = append(c.Edges, g.edges[id])
	}
	c.Edges = append(c.Edges, g.edges[closing])
	return c
}
