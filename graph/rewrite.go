package graph

// RemoveTrailingSigmoid excises a trailing sigmoid node so the graph emits raw
// scores. The node feeding the sigmoid takes over the designated output
// tensor, so the graph's output name is unchanged. Returns true when a node
// was removed; calling it again on a graph without a trailing sigmoid is a
// no-op.
//
// Probability computation for excised graphs happens outside the graph, on
// dequantized scores.
func RemoveTrailingSigmoid(g *Graph) bool {
	n := len(g.Nodes)
	if n == 0 {
		return false
	}
	last := g.Nodes[n-1]
	if last.Op != OpSigmoid {
		return false
	}
	if n == 1 {
		// A lone sigmoid has no upstream node to reconnect.
		return false
	}
	g.Nodes[n-2].Output = last.Output
	g.Nodes = g.Nodes[:n-1]
	return true
}
