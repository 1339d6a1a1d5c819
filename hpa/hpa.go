package hpa

import (
	"container/heap"
	"time"

	"pathkeep/grid"
)

// FindPathHPA answers a path query hierarchically: it connects start and
// goal into the abstract graph as temporary virtual nodes, searches the
// small abstract graph instead of the whole map, then refines the resulting
// sequence of abstract edges back into real cells. Grounded in the
// original's two-phase FindPathHPA (virtual-node insertion + RunHPAStar),
// generalized here to also refine vertical (ladder/ramp) edges as a direct
// climb instead of a second A* call, since a shaft or ramp step needs no
// search of its own.
func FindPathHPA(w *grid.World, g *Graph, start, goal grid.Point, opts Options) (Path, bool) {
	if start.Z == goal.Z {
		scx, scy := start.X/chunkWOf(w), start.Y/chunkHOf(w)
		gcx, gcy := goal.X/chunkWOf(w), goal.Y/chunkHOf(w)
		if scx == gcx && scy == gcy {
			chunkStart := time.Now()
			minX, minY, maxX, maxY := w.ChunkBounds(scx, scy)
			path, ok := AStarChunk(w, start, goal, minX, minY, maxX, maxY, opts)
			if opts.OnStats != nil {
				opts.OnStats(HPAStats{SameChunk: true, ChunkTime: time.Since(chunkStart)})
			}
			return path, ok
		}
	}

	n := len(g.Entrances)
	startID, goalID := n, n+1

	startChunk := chunkID(start.X/chunkWOf(w), start.Y/chunkHOf(w), chunksXOf(w))
	goalChunk := chunkID(goal.X/chunkWOf(w), goal.Y/chunkHOf(w), chunksXOf(w))

	startEdges := connectVirtual(w, g, start, startChunk, opts)
	goalEdges := connectVirtual(w, g, goal, goalChunk, opts)
	if len(startEdges) == 0 || len(goalEdges) == 0 {
		return Path{}, false
	}

	posOf := func(node int) grid.Point {
		switch node {
		case startID:
			return start
		case goalID:
			return goal
		default:
			return g.Entrances[node].PointA
		}
	}

	neighbors := func(node int) []abEdge {
		var out []abEdge
		switch node {
		case startID:
			for to, cost := range startEdges {
				out = append(out, abEdge{to: to, cost: cost})
			}
		case goalID:
			for to, cost := range goalEdges {
				out = append(out, abEdge{to: to, cost: cost})
			}
		default:
			for _, e := range g.Neighbors(node) {
				out = append(out, abEdge{to: e.To, cost: e.Cost})
			}
			if cost, ok := startEdges[node]; ok {
				out = append(out, abEdge{to: startID, cost: cost})
			}
			if cost, ok := goalEdges[node]; ok {
				out = append(out, abEdge{to: goalID, cost: cost})
			}
		}
		return out
	}

	abstractStart := time.Now()
	nodes, ok := abstractAStar(neighbors, posOf, startID, goalID, opts.Use8Dir)
	abstractTime := time.Since(abstractStart)
	if !ok {
		if opts.OnStats != nil {
			opts.OnStats(HPAStats{AbstractTime: abstractTime})
		}
		return Path{}, false
	}

	refineStart := time.Now()
	path, ok := refine(w, g, nodes, start, goal, startChunk, goalChunk, opts)
	refineTime := time.Since(refineStart)
	if opts.OnStats != nil {
		opts.OnStats(HPAStats{AbstractTime: abstractTime, RefinementTime: refineTime})
	}
	return path, ok
}

type abEdge struct {
	to, cost int
}

type abNode struct {
	g, f      int
	parent    int
	hasParent bool
	closed    bool
}

type abEntry struct {
	id, g, f, seq, index int
}

type abHeap []*abEntry

func (h abHeap) Len() int { return len(h) }
func (h abHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].g != h[j].g {
		return h[i].g < h[j].g
	}
	return h[i].seq < h[j].seq
}
func (h abHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *abHeap) Push(x any) {
	e := x.(*abEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *abHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// abstractAStar runs A* over the small abstract graph (entrances plus the
// two virtual nodes), returning the node sequence from start to goal.
func abstractAStar(neighbors func(int) []abEdge, posOf func(int) grid.Point, startID, goalID int, use8Dir bool) ([]int, bool) {
	nodes := make(map[int]*abNode)
	goalPos := posOf(goalID)

	nodes[startID] = &abNode{g: 0, f: Heuristic(posOf(startID), goalPos, use8Dir)}
	open := &abHeap{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &abEntry{id: startID, g: 0, f: nodes[startID].f, seq: seq})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*abEntry)
		curNode := nodes[cur.id]
		if curNode.closed {
			continue
		}
		curNode.closed = true

		if cur.id == goalID {
			var path []int
			id := goalID
			for {
				path = append([]int{id}, path...)
				if id == startID {
					break
				}
				n := nodes[id]
				if n == nil || !n.hasParent {
					break
				}
				id = n.parent
			}
			return path, true
		}

		for _, e := range neighbors(cur.id) {
			tentativeG := curNode.g + e.cost
			n, exists := nodes[e.to]
			if exists && n.closed {
				continue
			}
			if exists && tentativeG >= n.g {
				continue
			}
			f := tentativeG + Heuristic(posOf(e.to), goalPos, use8Dir)
			if !exists {
				n = &abNode{}
				nodes[e.to] = n
			}
			n.g = tentativeG
			n.f = f
			n.parent = cur.id
			n.hasParent = true
			seq++
			heap.Push(open, &abEntry{id: e.to, g: tentativeG, f: f, seq: seq})
		}
	}
	return nil, false
}

// connectVirtual links a query point to every entrance sharing its chunk and
// z-level via a chunk-confined A*, returning the reachable entrances and
// their costs.
func connectVirtual(w *grid.World, g *Graph, p grid.Point, chunk int, opts Options) map[int]int {
	cx, cy := p.X/chunkWOf(w), p.Y/chunkHOf(w)
	minX, minY, maxX, maxY := w.ChunkBounds(cx, cy)
	members := membersOf(g, chunk, p.Z)

	out := make(map[int]int, len(members))
	for _, m := range members {
		path, ok := AStarChunk(w, p, m.point, minX, minY, maxX, maxY, opts)
		if !ok {
			continue
		}
		out[m.index] = path.Cost
	}
	return out
}

// refine turns an abstract node sequence into a real, goal-to-start cell
// path by re-running a chunk-confined A* across every intra-chunk edge and
// walking directly across every vertical link.
func refine(w *grid.World, g *Graph, nodes []int, start, goal grid.Point, startChunk, goalChunk int, opts Options) (Path, bool) {
	n := len(g.Entrances)
	startID, goalID := n, n+1

	pointFor := func(node, chunk int) grid.Point {
		switch node {
		case startID:
			return start
		case goalID:
			return goal
		default:
			e := g.Entrances[node]
			if chunk < 0 || e.ChunkA == chunk {
				return e.PointA
			}
			return e.PointB
		}
	}

	var full []grid.Point // start-to-goal order while building, reversed at the end
	full = append(full, start)
	totalCost := 0

	for i := 0; i < len(nodes)-1; i++ {
		a, b := nodes[i], nodes[i+1]
		chunk, vertical, edgeCost := edgeChunk(g, a, b, startID, goalID, startChunk, goalChunk)

		pa := pointFor(a, chunk)
		pb := pointFor(b, chunk)

		if vertical {
			full = append(full, pb)
			totalCost += edgeCost
			continue
		}

		cx, cy := pa.X/chunkWOf(w), pa.Y/chunkHOf(w)
		minX, minY, maxX, maxY := w.ChunkBounds(cx, cy)
		sub, ok := AStarChunk(w, pa, pb, minX, minY, maxX, maxY, opts)
		if !ok {
			if opts.OnRefinementFailed != nil {
				from, to := a, b
				if from == startID || from == goalID {
					from = -1
				}
				if to == startID || to == goalID {
					to = -1
				}
				opts.OnRefinementFailed(from, to)
			}
			return Path{}, false
		}
		// sub.Points is goal-to-start (pb to pa); append reversed, skipping
		// pa when it is already the last point in full. After a border
		// crossing full ends on the other side of the border, so pa is kept.
		from := len(sub.Points) - 1
		if full[len(full)-1] == sub.Points[from] {
			from--
		}
		for k := from; k >= 0; k-- {
			full = append(full, sub.Points[k])
		}
		totalCost += sub.Cost
	}

	if len(full) == 0 || full[len(full)-1] != goal {
		full = append(full, goal)
	}

	reversed := make([]grid.Point, len(full))
	for i, p := range full {
		reversed[len(full)-1-i] = p
	}
	return Path{Points: reversed, Cost: totalCost}, true
}

// edgeChunk reports the chunk an abstract edge's path runs through (-1 for a
// vertical link) by looking up the matching GraphEdge, or treating the edge
// as the virtual start/goal connection when either endpoint is a virtual
// node.
func edgeChunk(g *Graph, a, b, startID, goalID, startChunk, goalChunk int) (chunk int, vertical bool, edgeCost int) {
	if a == startID || b == startID {
		return startChunk, false, 0
	}
	if a == goalID || b == goalID {
		return goalChunk, false, 0
	}
	for _, ei := range g.adjacency[a] {
		e := g.Edges[ei]
		if (e.From == a && e.To == b) || (e.From == b && e.To == a) {
			if e.Chunk < 0 {
				return -1, true, e.Cost
			}
			return e.Chunk, false, 0
		}
	}
	return -1, true, 0
}
