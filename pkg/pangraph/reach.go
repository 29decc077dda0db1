package pangraph

// Ancestors returns every node that can reach target, including target
// itself. Nodes not in the graph yield an empty set.
//
// # Algorithm
//
// Breadth-first search over incoming edges starting at target.
//
// # Performance
//
// O(V + E) time and O(V) space.
func (g *Graph) Ancestors(target Node) map[Node]bool {
	return g.bfs(target, g.in)
}

// Descendants returns every node reachable from source, including source.
func (g *Graph) Descendants(source Node) map[Node]bool {
	return g.bfs(source, g.out)
}

func (g *Graph) bfs(start Node, adj map[Node][]Node) map[Node]bool {
	seen := make(map[Node]bool)
	if !g.HasNode(start) {
		return seen
	}
	seen[start] = true
	queue := []Node{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range adj[n] {
			if !seen[m] {
				seen[m] = true
				queue = append(queue, m)
			}
		}
	}
	return seen
}

// HasPath reports whether target is reachable from source.
func (g *Graph) HasPath(source, target Node) bool {
	if !g.HasNode(source) || !g.HasNode(target) {
		return false
	}
	if source == target {
		return true
	}
	return g.Descendants(source)[target]
}

// WeakComponents partitions the nodes into weakly connected components.
// Components are ordered by their earliest inserted node, and the nodes of
// each component keep insertion order.
func (g *Graph) WeakComponents() [][]Node {
	comp := make(map[Node]int, len(g.order))
	count := 0
	for _, n := range g.order {
		if _, ok := comp[n]; ok {
			continue
		}
		comp[n] = count
		stack := []Node{n}
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, adj := range [][]Node{g.out[u], g.in[u]} {
				for _, v := range adj {
					if _, ok := comp[v]; !ok {
						comp[v] = count
						stack = append(stack, v)
					}
				}
			}
		}
		count++
	}
	result := make([][]Node, count)
	for _, n := range g.order {
		result[comp[n]] = append(result[comp[n]], n)
	}
	return result
}
