package validation

import "github.com/botblocks/botblocks/pkg/models"

// Traversal colors for the iterative DFS. An explicit stack is used instead
// of recursion so arbitrarily deep graphs cannot exhaust the goroutine stack.
const (
	white = iota // Not yet visited
	gray         // On the active DFS path
	black        // Fully explored
)

type frame struct {
	node string
	next int
}

// adjacency builds the node-id -> outgoing-edge list index once per
// traversal. Edges with endpoints that do not resolve are skipped; they are
// reported separately by the per-edge checks.
func adjacency(nodes []models.Node, edges []models.Edge) (map[string][]models.Edge, map[string]bool) {
	exists := make(map[string]bool, len(nodes))
	for i := range nodes {
		exists[nodes[i].ID] = true
	}

	out := make(map[string][]models.Edge, len(nodes))

	for _, edge := range edges {
		if exists[edge.Source] && exists[edge.Target] {
			out[edge.Source] = append(out[edge.Source], edge)
		}
	}

	return out, exists
}

// detectCycles returns, for every DFS root whose traversal closes a loop,
// the node that was found on its own still-active path. Nodes are visited
// in declaration order so the result is deterministic for a given schema.
func detectCycles(nodes []models.Node, edges []models.Edge) []string {
	out, _ := adjacency(nodes, edges)
	color := make(map[string]int, len(nodes))

	var cycleNodes []string

	for i := range nodes {
		root := nodes[i].ID
		if color[root] != white {
			continue
		}

		if found, ok := dfsCycle(root, out, color); ok {
			cycleNodes = append(cycleNodes, found)
		}
	}

	return cycleNodes
}

// dfsCycle walks from root and reports the first node re-encountered while
// still on the active path. The stack is unwound with every frame marked
// black so later roots never see stale path state.
func dfsCycle(root string, out map[string][]models.Edge, color map[string]int) (string, bool) {
	stack := []frame{{node: root}}
	color[root] = gray

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		next := out[top.node]

		if top.next < len(next) {
			neighbor := next[top.next].Target
			top.next++

			switch color[neighbor] {
			case gray:
				for _, f := range stack {
					color[f.node] = black
				}

				return neighbor, true
			case white:
				color[neighbor] = gray

				stack = append(stack, frame{node: neighbor})
			}

			continue
		}

		color[top.node] = black
		stack = stack[:len(stack)-1]
	}

	return "", false
}

// CycleEdges returns the edges that close directed cycles: for each cycle
// found, the edge from the last node on the active path back into the
// already-active node. The auto-fixer removes exactly these edges.
func CycleEdges(nodes []models.Node, edges []models.Edge) []models.Edge {
	out, _ := adjacency(nodes, edges)
	color := make(map[string]int, len(nodes))

	var closing []models.Edge

	for i := range nodes {
		root := nodes[i].ID
		if color[root] != white {
			continue
		}

		stack := []frame{{node: root}}
		color[root] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			next := out[top.node]

			if top.next < len(next) {
				edge := next[top.next]
				top.next++

				switch color[edge.Target] {
				case gray:
					closing = append(closing, edge)

					for _, f := range stack {
						color[f.node] = black
					}

					stack = stack[:0]
				case white:
					color[edge.Target] = gray

					stack = append(stack, frame{node: edge.Target})
				}

				continue
			}

			color[top.node] = black
			stack = stack[:len(stack)-1]
		}
	}

	return closing
}

// reachableFrom computes forward reachability from the given root ids.
func reachableFrom(roots []string, nodes []models.Node, edges []models.Edge) map[string]bool {
	out, exists := adjacency(nodes, edges)
	reachable := make(map[string]bool, len(nodes))

	stack := make([]string, 0, len(roots))

	for _, root := range roots {
		if exists[root] && !reachable[root] {
			reachable[root] = true

			stack = append(stack, root)
		}
	}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, edge := range out[current] {
			if !reachable[edge.Target] {
				reachable[edge.Target] = true

				stack = append(stack, edge.Target)
			}
		}
	}

	return reachable
}
