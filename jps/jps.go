// Package jps implements Jump Point Search and its precomputed variant,
// JPS+, over a single z-level of a grid.World. Grounded in the original
// NikkiKoole/navkit pathing/pathfinding.h declarations for RunJPS,
// RunJpsPlus, PrecomputeJpsPlus, and the 3D ladder-graph extension
// (BuildJpsLadderGraph, FindPath3D_JpsPlus) — the original declared these
// but the retrieved source did not carry their bodies, so the search and
// table-construction logic below follows the published JPS/JPS+ algorithm
// (Harabor & Grastien's forced-neighbor pruning rules) rather than
// reverse-engineered original code.
//
// JPS and JPS+ both assume a uniform movement cost: every walkable cell
// costs the same to enter. Neither is valid once ramps or other
// variable-cost terrain are in play, so callers must check Uniform and
// fall back to package hpa's A* whenever it reports false.
package jps

import (
	"container/heap"

	"pathkeep/grid"
)

// Dir is one of the eight grid directions, indexed 0..7 starting at north
// and proceeding clockwise, matching the layout JPS+'s jump tables use.
type Dir int

const (
	DirN Dir = iota
	DirNE
	DirE
	DirSE
	DirS
	DirSW
	DirW
	DirNW
)

var dirOffsets = [8][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

func isDiagonal(d Dir) bool {
	return d%2 == 1
}

// Uniform reports whether every walkable cell in the grid costs the same to
// enter, the precondition for JPS/JPS+ to produce correct results.
func Uniform(w *grid.World) bool {
	base := -1
	for z := 0; z < w.Depth(); z++ {
		for y := 0; y < w.Height(); y++ {
			for x := 0; x < w.Width(); x++ {
				k := w.At(x, y, z)
				if !grid.IsWalkableOn(k) {
					continue
				}
				c := grid.MoveCost(k)
				if base == -1 {
					base = c
				} else if c != base {
					return false
				}
			}
		}
	}
	return true
}

func walkable(w *grid.World, x, y, z int) bool {
	return w.IsWalkableAt(x, y, z)
}

func canStepDiagonal(w *grid.World, x, y, z, dx, dy int) bool {
	return walkable(w, x+dx, y, z) && walkable(w, x, y+dy, z)
}

// Path is a goal-to-start sequence of cells, matching package hpa's
// convention so callers can treat either search's result identically.
type Path struct {
	Points []grid.Point
	Cost   int
}

type jpsNode struct {
	g, f              int
	parentX, parentY  int
	hasParent, closed bool
}

type jpsEntry struct {
	x, y, g, f, seq int
}

type jpsHeap []*jpsEntry

func (h jpsHeap) Len() int { return len(h) }
func (h jpsHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].g != h[j].g {
		return h[i].g < h[j].g
	}
	return h[i].seq < h[j].seq
}
func (h jpsHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *jpsHeap) Push(x any)   { *h = append(*h, x.(*jpsEntry)) }
func (h *jpsHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// FindPath runs JPS between start and goal on a single z-level.
func FindPath(w *grid.World, start, goal grid.Point, use8Dir bool) (Path, bool) {
	if start.Z != goal.Z {
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
	heap.Init(open)
	seq := 0
	heap.Push(open, &jpsEntry{x: start.X, y: start.Y, g: 0, f: h(start.X, start.Y), seq: seq})

	dirs := allDirections(use8Dir)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*jpsEntry)
		curNode := nodes[key(cur.x, cur.y)]
		if curNode.closed {
			continue
		}
		curNode.closed = true

		if cur.x == goal.X && cur.y == goal.Y {
			return reconstructJumpPath(nodes, key, start, goal, z, curNode.g), true
		}

		for _, d := range dirs {
			jx, jy, jcost, ok := jump(w, cur.x, cur.y, z, d, goal.X, goal.Y)
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
			heap.Push(open, &jpsEntry{x: jx, y: jy, g: tentativeG, f: n.f, seq: seq})
		}
	}
	return Path{}, false
}

// reconstructJumpPath walks the parent chain of jump-point vertices, then
// fills in every intermediate cell between consecutive vertices, since
// movers need a full cell-by-cell path rather than just the jump points.
func reconstructJumpPath(nodes map[[2]int]*jpsNode, key func(int, int) [2]int, start, goal grid.Point, z, cost int) Path {
	var verts []grid.Point
	x, y := goal.X, goal.Y
	for {
		verts = append(verts, grid.Point{X: x, Y: y, Z: z})
		if x == start.X && y == start.Y {
			break
		}
		n := nodes[key(x, y)]
		if n == nil || !n.hasParent {
			break
		}
		x, y = n.parentX, n.parentY
	}
	// verts is goal-to-start; reverse to start-to-goal for expansion.
	for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
		verts[i], verts[j] = verts[j], verts[i]
	}
	expanded := expandJumps(verts, z)
	for i, j := 0, len(expanded)-1; i < j; i, j = i+1, j-1 {
		expanded[i], expanded[j] = expanded[j], expanded[i]
	}
	return Path{Points: expanded, Cost: cost}
}

func allDirections(use8Dir bool) []Dir {
	if use8Dir {
		return []Dir{DirN, DirNE, DirE, DirSE, DirS, DirSW, DirW, DirNW}
	}
	return []Dir{DirN, DirE, DirS, DirW}
}

func octile(x1, y1, x2, y2 int) int {
	dx, dy := abs(x1-x2), abs(y1-y2)
	lo, hi := dx, dy
	if lo > hi {
		lo, hi = hi, lo
	}
	return hi*grid.CostStraight + lo*(grid.CostDiagonal-grid.CostStraight)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// jump performs the recursive jump-point scan from (x, y) in direction d,
// returning the next jump point (a forced-neighbor cell or the goal at
// (gx, gy)) and the cost to reach it; ok is false when the scan runs into
// a dead end first.
func jump(w *grid.World, x, y, z int, d Dir, gx, gy int) (int, int, int, bool) {
	dx, dy := dirOffsets[d][0], dirOffsets[d][1]
	cost := 0
	cx, cy := x, y
	for {
		nx, ny := cx+dx, cy+dy
		if !walkable(w, nx, ny, z) {
			return 0, 0, 0, false
		}
		if isDiagonal(d) && !canStepDiagonal(w, cx, cy, z, dx, dy) {
			return 0, 0, 0, false
		}
		step := grid.CostStraight
		if isDiagonal(d) {
			step = grid.CostDiagonal
		}
		cost += step
		cx, cy = nx, ny

		if cx == gx && cy == gy {
			return cx, cy, cost, true
		}

		if hasForcedNeighbor(w, cx, cy, z, dx, dy) {
			return cx, cy, cost, true
		}

		if isDiagonal(d) {
			if _, _, _, ok := jump(w, cx, cy, z, dirFromOffset(dx, 0), gx, gy); ok {
				return cx, cy, cost, true
			}
			if _, _, _, ok := jump(w, cx, cy, z, dirFromOffset(0, dy), gx, gy); ok {
				return cx, cy, cost, true
			}
		}
	}
}

func dirFromOffset(dx, dy int) Dir {
	for d, off := range dirOffsets {
		if off[0] == dx && off[1] == dy {
			return Dir(d)
		}
	}
	return DirN
}

// hasForcedNeighbor reports whether (x, y), reached while moving (dx, dy),
// has a neighbor whose only cheap approach is now through (x, y) because an
// adjacent cell is blocked — the classic JPS forced-neighbor test.
func hasForcedNeighbor(w *grid.World, x, y, z, dx, dy int) bool {
	if dx != 0 && dy != 0 {
		if !walkable(w, x-dx, y, z) && walkable(w, x-dx, y+dy, z) {
			return true
		}
		if !walkable(w, x, y-dy, z) && walkable(w, x+dx, y-dy, z) {
			return true
		}
		return false
	}
	// Straight moves: diagonal steps may not cut corners, so a side cell is
	// forced when it is open here but was blocked one step back.
	if dx != 0 {
		if walkable(w, x, y+1, z) && !walkable(w, x-dx, y+1, z) {
			return true
		}
		if walkable(w, x, y-1, z) && !walkable(w, x-dx, y-1, z) {
			return true
		}
		return false
	}
	if walkable(w, x+1, y, z) && !walkable(w, x+1, y-dy, z) {
		return true
	}
	if walkable(w, x-1, y, z) && !walkable(w, x-1, y-dy, z) {
		return true
	}
	return false
}

func sign(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

// expandJumps walks a start-to-goal chain of jump-point vertices and fills
// in every intermediate cell.
func expandJumps(jumpPoints []grid.Point, z int) []grid.Point {
	if len(jumpPoints) < 2 {
		return jumpPoints
	}
	full := []grid.Point{jumpPoints[0]}
	for i := 0; i < len(jumpPoints)-1; i++ {
		from := jumpPoints[i]
		to := jumpPoints[i+1]
		dx, dy := sign(to.X-from.X), sign(to.Y-from.Y)
		x, y := from.X, from.Y
		for x != to.X || y != to.Y {
			x += dx
			y += dy
			full = append(full, grid.Point{X: x, Y: y, Z: z})
		}
	}
	return full
}
