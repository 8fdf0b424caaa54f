package track

// PathResult describes a route between two nodes: the ordered node list,
// its total distance, and, if a single direction reversal was used to find
// it, the node it reversed at and the cumulative distance up to that point.
// Grounded on original_source's PathRespond struct (path, path_len,
// reverse, rev_offset).
type PathResult struct {
	Path   []int16
	Length int32

	Reversed      bool
	ReverseAt     int16 // node the path reverses at, or NoNode
	ReverseOffset int32 // distance from the source up to ReverseAt
}

// ShortestPath finds the lowest-distance route from `from` to `to`,
// optionally permitting a single direction reversal and refusing to route
// through any node in `banned`. Grounded on original_source's
// TRACK_GET_PATH handler, which runs plain Dijkstra on edge distance over a
// state space doubled by "has this path already reversed once" -- crossing
// to a node's Reverse costs no distance, since it is the same physical
// location.
//
// The track topologies in this repository are small enough (on the order
// of tens of nodes, see SPEC_FULL.md's Open Question on track scale) that a
// simple O(V^2) selection loop, rather than a heap, is the right amount of
// machinery -- exactly the complexity budget a course kernel's own path
// search would spend.
func (g *Graph) ShortestPath(from, to int16, allowReverse bool, banned []int16) (PathResult, bool) {
	n := len(g.Nodes)
	if int(from) < 0 || int(from) >= n || int(to) < 0 || int(to) >= n {
		return PathResult{}, false
	}

	bannedSet := make(map[int16]bool, len(banned))
	for _, b := range banned {
		bannedSet[b] = true
	}

	const inf = 1 << 30
	size := n * 2 // state = node*2 + (1 if a reversal has been used)

	dist := make([]int, size)
	prevState := make([]int, size)
	visited := make([]bool, size)
	for i := range dist {
		dist[i] = inf
		prevState[i] = -1
	}

	start := int(from) * 2
	dist[start] = 0

	for {
		u, best := -1, inf
		for i := 0; i < size; i++ {
			if !visited[i] && dist[i] < best {
				best, u = dist[i], i
			}
		}
		if u == -1 {
			break
		}
		visited[u] = true

		node := int16(u / 2)
		reversedUsed := u%2 == 1
		if bannedSet[node] && node != from {
			continue
		}

		nd, ok := g.Node(node)
		if !ok {
			continue
		}

		parity := 0
		if reversedUsed {
			parity = 1
		}

		exits := 1
		if nd.Kind == KindSwitch {
			exits = 2
		}
		for i := 0; i < exits; i++ {
			nb := nd.Next[i]
			if nb == NoNode || bannedSet[nb] {
				continue
			}
			v := int(nb)*2 + parity
			nd2 := dist[u] + int(nd.Distance[i])
			if nd2 < dist[v] {
				dist[v] = nd2
				prevState[v] = u
			}
		}

		if allowReverse && !reversedUsed && nd.Reverse != NoNode && !bannedSet[nd.Reverse] {
			v := int(nd.Reverse)*2 + 1
			if dist[u] < dist[v] {
				dist[v] = dist[u]
				prevState[v] = u
			}
		}
	}

	best := -1
	for _, key := range [2]int{int(to) * 2, int(to)*2 + 1} {
		if dist[key] < inf && (best == -1 || dist[key] < dist[best]) {
			best = key
		}
	}
	if best == -1 {
		return PathResult{}, false
	}

	var path []int16
	var states []int
	for cur := best; cur != -1; cur = prevState[cur] {
		path = append([]int16{int16(cur / 2)}, path...)
		states = append([]int{cur}, states...)
	}

	res := PathResult{Path: path, Length: int32(dist[best]), ReverseAt: NoNode}
	for i := 1; i < len(states); i++ {
		if states[i]%2 == 1 && states[i-1]%2 == 0 {
			res.Reversed = true
			res.ReverseAt = int16(states[i-1] / 2)
			res.ReverseOffset = int32(dist[states[i-1]])
			break
		}
	}
	return res, true
}
