package jps

import "pathkeep/grid"

// JumpTable precomputes, for every walkable cell and direction, how far a
// mover can travel before hitting either a jump point or a wall. JPS+ trades
// this one-time (and dirty-chunk-triggered) precomputation for an O(1)
// table lookup instead of JPS's recursive per-query scan. Grounded in the
// original's PrecomputeJpsPlus/JpsPlusChunk declarations — the retrieved
// source did not carry their bodies, so the table layout follows the
// published JPS+ technique: a per-cell, per-direction (distance, is a jump
// point) pair, built by scanning each direction back-to-front so every
// cell's value derives from the one already computed just ahead of it.
type JumpTable struct {
	width, height, z int
	distance         [][8]int32
	isJumpPoint      [][8]bool
}

// PrecomputeJpsPlus builds a JumpTable for one z-level of w. Callers should
// rebuild it whenever grid.World reports NeedsRebuild for that level —
// JPS+ depends on the table staying in sync with the terrain exactly as
// HPA*'s abstract graph depends on the dirty-chunk contract.
func PrecomputeJpsPlus(w *grid.World, z int) *JumpTable {
	jt := &JumpTable{width: w.Width(), height: w.Height(), z: z}
	n := jt.width * jt.height
	jt.distance = make([][8]int32, n)
	jt.isJumpPoint = make([][8]bool, n)

	for d := Dir(0); d < 8; d++ {
		dx, dy := dirOffsets[d][0], dirOffsets[d][1]
		// Scan against the direction of travel so each cell's neighbor in
		// that direction has already been computed by the time we reach it.
		xs, xe, xstep := 0, jt.width, 1
		ys, ye, ystep := 0, jt.height, 1
		if dx > 0 {
			xs, xe, xstep = jt.width-1, -1, -1
		}
		if dy > 0 {
			ys, ye, ystep = jt.height-1, -1, -1
		}
		for y := ys; y != ye; y += ystep {
			for x := xs; x != xe; x += xstep {
				jt.fill(w, x, y, d)
			}
		}
	}
	return jt
}

func (jt *JumpTable) idx(x, y int) int { return y*jt.width + x }

func (jt *JumpTable) fill(w *grid.World, x, y int, d Dir) {
	i := jt.idx(x, y)
	if !walkable(w, x, y, jt.z) {
		return
	}
	dx, dy := dirOffsets[d][0], dirOffsets[d][1]
	nx, ny := x+dx, y+dy
	if !walkable(w, nx, ny, jt.z) {
		return
	}
	if isDiagonal(d) && !canStepDiagonal(w, x, y, jt.z, dx, dy) {
		return
	}
	if hasForcedNeighbor(w, nx, ny, jt.z, dx, dy) {
		jt.distance[i][d] = 1
		jt.isJumpPoint[i][d] = true
		return
	}
	nd := jt.distance[jt.idx(nx, ny)][d]
	njp := jt.isJumpPoint[jt.idx(nx, ny)][d]
	if nd == 0 {
		jt.distance[i][d] = 1
		jt.isJumpPoint[i][d] = false
		return
	}
	jt.distance[i][d] = nd + 1
	jt.isJumpPoint[i][d] = njp
}

// Lookup returns the jump distance and whether the stop is a jump point
// (rather than a dead end against a wall) for cell (x, y) in direction d.
func (jt *JumpTable) Lookup(x, y int, d Dir) (dist int32, isJumpPoint bool) {
	if x < 0 || y < 0 || x >= jt.width || y >= jt.height {
		return 0, false
	}
	i := jt.idx(x, y)
	return jt.distance[i][d], jt.isJumpPoint[i][d]
}

// FindPathPlus runs JPS+ between start and goal using a precomputed
// JumpTable instead of JPS's recursive scan. The table must have been built
// for start.Z (== goal.Z); callers are responsible for keeping it fresh.
func FindPathPlus(w *grid.World, jt *JumpTable, start, goal grid.Point, use8Dir bool) (Path, bool) {
	if start.Z != goal.Z || start.Z != jt.z {
		return Path{}, false
	}
	if !walkable(w, start.X, start.Y, start.Z) || !walkable(w, goal.X, goal.Y, goal.Z) {
		return Path{}, false
	}
	z := start.Z

	nodes := make(map[[2]int]*jpsNode)
	key := func(x, y int) [2]int { return [2]int{x, y} }
	h := func(x, y int) int { return octile(x, y, goal.X, goal.Y) }

	nodes[key(start.X, start.Y)] = &jpsNode{g: 0, f: h(start.X, start.Y)}
	open := &jpsHeap{}
	seq := 0
	*open = append(*open, &jpsEntry{x: start.X, y: start.Y, g: 0, f: h(start.X, start.Y), seq: seq})

	dirs := allDirections(use8Dir)

	for open.Len() > 0 {
		cur := popMin(open)
		curNode := nodes[key(cur.x, cur.y)]
		if curNode.closed {
			continue
		}
		curNode.closed = true

		if cur.x == goal.X && cur.y == goal.Y {
			return reconstructJumpPath(nodes, key, start, goal, z, curNode.g), true
		}

		for _, d := range dirs {
			jx, jy, jcost, ok := jumpTable(w, jt, cur.x, cur.y, z, d, goal)
			if !ok {
				continue
			}
			tentativeG := curNode.g + jcost
			k := key(jx, jy)
			n, exists := nodes[k]
			if exists && n.closed {
				continue
			}
			if exists && tentativeG >= n.g {
				continue
			}
			if !exists {
				n = &jpsNode{}
				nodes[k] = n
			}
			n.g = tentativeG
			n.f = tentativeG + h(jx, jy)
			n.parentX, n.parentY = cur.x, cur.y
			n.hasParent = true
			seq++
			*open = append(*open, &jpsEntry{x: jx, y: jy, g: tentativeG, f: n.f, seq: seq})
		}
	}
	return Path{}, false
}

func popMin(h *jpsHeap) *jpsEntry {
	best := 0
	for i := 1; i < len(*h); i++ {
		if (*h)[i].f < (*h)[best].f || ((*h)[i].f == (*h)[best].f && (*h)[i].seq < (*h)[best].seq) {
			best = i
		}
	}
	e := (*h)[best]
	*h = append((*h)[:best], (*h)[best+1:]...)
	return e
}

// jumpTable resolves a jump in direction d from (x, y) using the
// precomputed table: if the table distance reaches the goal's row/column
// first, it stops there even if the goal itself isn't a jump point
// (mirroring JPS's own goal special-case).
func jumpTable(w *grid.World, jt *JumpTable, x, y, z int, d Dir, goal grid.Point) (int, int, int, bool) {
	dist, isJP := jt.Lookup(x, y, d)
	if dist == 0 {
		return 0, 0, 0, false
	}
	dx, dy := dirOffsets[d][0], dirOffsets[d][1]
	step := grid.CostStraight
	if isDiagonal(d) {
		step = grid.CostDiagonal
	}

	// Does the straight run in this direction pass over the goal before
	// reaching the table's stop point?
	for s := int32(1); s <= dist; s++ {
		gx, gy := x+dx*int(s), y+dy*int(s)
		if gx == goal.X && gy == goal.Y {
			return gx, gy, int(s) * step, true
		}
	}
	if !isJP {
		return 0, 0, 0, false
	}
	sx, sy := x+dx*int(dist), y+dy*int(dist)
	return sx, sy, int(dist) * step, true
}
