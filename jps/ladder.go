package jps

import "pathkeep/grid"

// LadderVertex is one endpoint of a ladder or ramp link: a single cell on a
// single floor that JPS+ searches can treat as an extra jump point connecting
// two z-levels.
type LadderVertex struct {
	Point grid.Point
	Cost  int // cost of traversing the vertical link to its paired vertex
	Pair  int // index, in the same LadderGraph, of the vertex on the other side
}

// ladderEdge is one edge of the small graph over ladder/ramp endpoints: a
// vertical edge is the hop through a single shaft or ramp (no search
// needed); a lateral edge is a real per-floor route between two endpoints
// that share a z-level, computed once at graph-build time with a plain JPS
// search so multi-hop routes can be refined edge-by-edge later.
type ladderEdge struct {
	to       int
	cost     int
	vertical bool
}

// LadderGraph is the 3D extension to per-floor JPS+: a small graph over every
// ladder/ramp endpoint in the world, letting FindPath3D splice together
// per-floor table searches at the vertical links between them. Grounded in
// the original's BuildJpsLadderGraph/FindPath3D_JpsPlus declarations; as
// with PrecomputeJpsPlus, only the declarations survived retrieval; the
// all-pairs distance table below follows the standard technique of treating
// vertical links (plus same-floor connections between them) as a small,
// separate graph rather than folding them into the flat per-direction jump
// tables.
type LadderGraph struct {
	Vertices  []LadderVertex
	adjacency [][]ladderEdge
	// dist[i][j] is the cost of the shortest path from vertex i to vertex j
	// through any mix of vertical hops and same-floor legs, or grid.CostInf
	// if unreachable that way.
	dist [][]int
	// next[i][j] is the vertex to move to immediately after i on the
	// shortest path to j, or -1 if no path exists; standard Floyd-Warshall
	// path reconstruction, since FindPath3D needs the actual intermediate
	// vertices, not just their aggregate cost.
	next [][]int
}

// BuildJpsLadderGraph scans every ladder shaft and ramp in w and builds the
// vertex set, wires a vertical edge across each shaft/ramp, and wires a
// lateral edge (a real per-floor JPS route, not just Manhattan distance)
// between every pair of endpoints sharing a floor. use8Dir controls the
// lateral searches the same way it controls every other path query.
func BuildJpsLadderGraph(w *grid.World, use8Dir bool) *LadderGraph {
	lg := &LadderGraph{}
	addPair := func(a, b grid.Point, cost int) {
		ia := len(lg.Vertices)
		lg.Vertices = append(lg.Vertices, LadderVertex{Point: a, Cost: cost, Pair: ia + 1})
		lg.Vertices = append(lg.Vertices, LadderVertex{Point: b, Cost: cost, Pair: ia})
	}

	for y := 0; y < w.Height(); y++ {
		for x := 0; x < w.Width(); x++ {
			z := 0
			for z < w.Depth() {
				if !grid.IsLadder(w.At(x, y, z)) {
					z++
					continue
				}
				bottom := z
				for z < w.Depth() && grid.IsLadder(w.At(x, y, z)) {
					z++
				}
				top := z - 1
				if top == bottom {
					continue
				}
				addPair(
					grid.Point{X: x, Y: y, Z: bottom},
					grid.Point{X: x, Y: y, Z: top},
					(top-bottom)*grid.CostStraight,
				)
			}
		}
	}

	for z := 0; z < w.Depth(); z++ {
		for y := 0; y < w.Height(); y++ {
			for x := 0; x < w.Width(); x++ {
				k := w.At(x, y, z)
				if !grid.IsRamp(k) || k == grid.KindRampAuto {
					continue
				}
				dx, dy := grid.RampHighSideOffset(k)
				hx, hy, hz := x+dx, y+dy, z+1
				if !w.IsWalkableAt(hx, hy, hz) {
					continue
				}
				addPair(
					grid.Point{X: x, Y: y, Z: z},
					grid.Point{X: hx, Y: hy, Z: hz},
					grid.CostDiagonal,
				)
			}
		}
	}

	lg.adjacency = make([][]ladderEdge, len(lg.Vertices))
	for i, v := range lg.Vertices {
		lg.addEdge(i, v.Pair, v.Cost, true)
	}
	for z := 0; z < w.Depth(); z++ {
		onFloor := lg.VerticesOnFloor(z)
		for a := 0; a < len(onFloor); a++ {
			for b := a + 1; b < len(onFloor); b++ {
				i, j := onFloor[a], onFloor[b]
				route, ok := FindPath(w, lg.Vertices[i].Point, lg.Vertices[j].Point, use8Dir)
				if !ok {
					continue
				}
				lg.addEdge(i, j, route.Cost, false)
				lg.addEdge(j, i, route.Cost, false)
			}
		}
	}

	lg.buildDistances()
	return lg
}

func (lg *LadderGraph) addEdge(from, to, cost int, vertical bool) {
	lg.adjacency[from] = append(lg.adjacency[from], ladderEdge{to: to, cost: cost, vertical: vertical})
}

func (lg *LadderGraph) edgeBetween(from, to int) (ladderEdge, bool) {
	for _, e := range lg.adjacency[from] {
		if e.to == to {
			return e, true
		}
	}
	return ladderEdge{}, false
}

// buildDistances runs Floyd-Warshall over every vertical and lateral edge:
// the ladder graph is small (one vertex pair per shaft/ramp, one edge per
// same-floor pair) so the O(V^3) table is cheap, and FindPath3D needs both
// the aggregate cost and the next-hop table to splice a route spanning any
// number of floor transitions.
func (lg *LadderGraph) buildDistances() {
	n := len(lg.Vertices)
	dist := make([][]int, n)
	next := make([][]int, n)
	for i := range dist {
		dist[i] = make([]int, n)
		next[i] = make([]int, n)
		for j := range dist[i] {
			next[i][j] = -1
			if i == j {
				dist[i][j] = 0
				next[i][j] = j
			} else {
				dist[i][j] = grid.CostInf
			}
		}
	}
	for i, edges := range lg.adjacency {
		for _, e := range edges {
			if e.cost < dist[i][e.to] {
				dist[i][e.to] = e.cost
				next[i][e.to] = e.to
			}
		}
	}
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if dist[i][k] >= grid.CostInf {
				continue
			}
			for j := 0; j < n; j++ {
				nd := dist[i][k] + dist[k][j]
				if nd < dist[i][j] {
					dist[i][j] = nd
					next[i][j] = next[i][k]
				}
			}
		}
	}
	lg.dist = dist
	lg.next = next
}

// vertexPath returns the sequence of vertex indices from -> ... -> to along
// the shortest path, or nil if to is unreachable from from.
func (lg *LadderGraph) vertexPath(from, to int) []int {
	if lg.next[from][to] < 0 {
		return nil
	}
	path := []int{from}
	for from != to {
		from = lg.next[from][to]
		path = append(path, from)
	}
	return path
}

// VerticesOnFloor returns the indices of every vertex resting on floor z.
func (lg *LadderGraph) VerticesOnFloor(z int) []int {
	var out []int
	for i, v := range lg.Vertices {
		if v.Point.Z == z {
			out = append(out, i)
		}
	}
	return out
}

// FindPath3D finds a path between start and goal that may cross z-levels,
// using the start and goal floors' jump tables for the first and last legs,
// plain JPS for legs on intermediate floors, and lg for the vertical hops
// between them. tableFor must return a JumpTable already built for the
// requested z-level, or nil if none is available; a nil table for the start
// or goal floor makes the query fail.
func FindPath3D(w *grid.World, lg *LadderGraph, tableFor func(z int) *JumpTable, start, goal grid.Point, use8Dir bool) (Path, bool) {
	if start.Z == goal.Z {
		if jt := tableFor(start.Z); jt != nil {
			return FindPathPlus(w, jt, start, goal, use8Dir)
		}
		return Path{}, false
	}

	startJt := tableFor(start.Z)
	goalJt := tableFor(goal.Z)
	if startJt == nil || goalJt == nil {
		return Path{}, false
	}

	startVerts := lg.VerticesOnFloor(start.Z)
	goalVerts := lg.VerticesOnFloor(goal.Z)

	bestCost := grid.CostInf
	var bestStartLeg, bestEndLeg Path
	var bestEntry, bestExit LadderVertex
	var bestEntryIdx, bestExitIdx int
	found := false

	for _, si := range startVerts {
		entry := lg.Vertices[si]
		startLeg, ok := FindPathPlus(w, startJt, start, entry.Point, use8Dir)
		if !ok && start != entry.Point {
			continue
		}
		for _, gi := range goalVerts {
			if lg.dist[si][gi] >= grid.CostInf {
				continue
			}
			exit := lg.Vertices[gi]
			endLeg, ok := FindPathPlus(w, goalJt, exit.Point, goal, use8Dir)
			if !ok && exit.Point != goal {
				continue
			}
			total := startLeg.Cost + lg.dist[si][gi] + endLeg.Cost
			if total < bestCost {
				bestCost = total
				bestStartLeg, bestEndLeg = startLeg, endLeg
				bestEntry, bestExit = entry, exit
				bestEntryIdx, bestExitIdx = si, gi
				found = true
			}
		}
	}
	if !found {
		return Path{}, false
	}

	// Both legs are goal-to-start (FindPathPlus convention): bestEndLeg runs
	// goal -> exit, bestStartLeg runs entry -> start. Between them, walk the
	// ladder graph's shortest-path vertex chain from exit to entry, which
	// may cross several intermediate floors, splicing every hop (vertical or
	// same-floor) so the assembled path stays unbroken and goal-to-start.
	var points []grid.Point
	points = append(points, bestEndLeg.Points...)
	if len(points) == 0 || points[len(points)-1] != bestExit.Point {
		points = append(points, bestExit.Point)
	}

	hops := lg.vertexPath(bestExitIdx, bestEntryIdx)
	for k := 0; k < len(hops)-1; k++ {
		a, b := hops[k], hops[k+1]
		av, bv := lg.Vertices[a], lg.Vertices[b]
		edge, _ := lg.edgeBetween(a, b)
		if edge.vertical {
			if len(points) == 0 || points[len(points)-1] != bv.Point {
				points = append(points, bv.Point)
			}
			continue
		}
		leg, ok := FindPath(w, av.Point, bv.Point, use8Dir)
		if !ok {
			return Path{}, false
		}
		// leg is goal-to-start (b -> ... -> a); append a -> ... -> b,
		// dropping the leading a already present as points' last entry.
		for i := len(leg.Points) - 2; i >= 0; i-- {
			points = append(points, leg.Points[i])
		}
	}

	if len(bestStartLeg.Points) > 0 && bestStartLeg.Points[0] == bestEntry.Point {
		points = append(points, bestStartLeg.Points[1:]...)
	} else {
		points = append(points, bestStartLeg.Points...)
	}
	return Path{Points: points, Cost: bestCost}, true
}
