// Package hpa implements the low-level A* search, the HPA* entrance/abstract
// graph, and the hierarchical search that refines an abstract path back into
// real cells. It is grounded in the original NikkiKoole/navkit
// pathing/pathfinding.c/.h (entrances, graph edges, ladder links, the
// two-phase HPA* query) and, for the search-loop shape itself, in the
// teacher's internal/world/navigation.go (*navGrid).astar — a
// container/heap binary heap over a scratch node pool, rather than the
// pointer-chasing reconstruction the teacher used for 2D paths. Per
// DESIGN NOTES, parent links here are stored as coordinates
// (ParentX/Y/Z), never as pointers into other nodes.
package hpa

import (
	"container/heap"
	"time"

	"pathkeep/grid"
)

// Options tunes neighbor generation and heuristic selection shared by every
// search function in this package. OnRefinementFailed and OnStats are
// optional telemetry hooks (nil is fine) rather than a logging.Publisher
// field, so this package never depends on package logging; a caller that
// wants the events (package world does) closes over its own publisher and
// passes a small closure in.
type Options struct {
	Use8Dir bool

	// OnRefinementFailed, if set, is called when FindPathHPA's abstract
	// search succeeds but refining one of its edges back into real cells
	// fails (spec.md's Open Question: there is no ASTAR fallback here, so
	// this is the only record of why a query failed). fromEntrance/
	// toEntrance are indices into the Graph's Entrances slice, or -1 for
	// the virtual start/goal node on that side of the failed edge.
	OnRefinementFailed func(fromEntrance, toEntrance int)

	// OnStats, if set, is called once per FindPathHPA query with the time
	// spent in each phase, matching the original's hpaAbstractTime/
	// hpaRefinementTime timing buckets.
	OnStats func(HPAStats)
}

// HPAStats reports how long FindPathHPA spent in each phase of a query.
// SameChunk is true when the query took the same-chunk A* shortcut, in
// which case both durations are zero and ChunkTime holds the shortcut's
// own cost instead.
type HPAStats struct {
	SameChunk      bool
	ChunkTime      time.Duration
	AbstractTime   time.Duration
	RefinementTime time.Duration
}

// Path is a sequence of points in goal-to-start order: Path[len(Path)-1] is
// the start cell and Path[0] is the goal, matching spec.md §3's storage
// convention so a mover can walk it by decrementing an index toward zero.
type Path struct {
	Points []grid.Point
	Cost   int
}

type neighborOffset struct {
	dx, dy int
	diag   bool
}

var offsets4 = [...]neighborOffset{
	{0, -1, false},
	{1, 0, false},
	{0, 1, false},
	{-1, 0, false},
}

var offsetsDiag = [...]neighborOffset{
	{1, -1, true},
	{1, 1, true},
	{-1, 1, true},
	{-1, -1, true},
}

func neighborOffsets(opts Options) []neighborOffset {
	if !opts.Use8Dir {
		return offsets4[:]
	}
	all := make([]neighborOffset, 0, 8)
	all = append(all, offsets4[:]...)
	all = append(all, offsetsDiag[:]...)
	return all
}

// Heuristic returns the admissible distance estimate between two same-z
// points: Manhattan*10 for 4-directional motion, octile distance for
// 8-directional, exactly as spec.md §4.D specifies.
func Heuristic(a, b grid.Point, use8Dir bool) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if !use8Dir {
		return (dx + dy) * grid.CostStraight
	}
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

// canTraverseDiagonal enforces corner-cut prevention: a diagonal step is
// legal only when both orthogonal neighbors it would "cut across" are
// walkable.
func canTraverseDiagonal(w *grid.World, x, y, z, dx, dy int) bool {
	return w.IsWalkableAt(x+dx, y, z) && w.IsWalkableAt(x, y+dy, z)
}

type openEntry struct {
	x, y, z int
	g, f    int
	seq     int // insertion order, used as the final tie-break
	index   int
}

type openHeap []*openEntry

func (h openHeap) Len() int { return len(h) }
func (h openHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].g != h[j].g {
		return h[i].g < h[j].g
	}
	return h[i].seq < h[j].seq
}
func (h openHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *openHeap) Push(x any) {
	e := x.(*openEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

type nodeRec struct {
	g, f                      int
	parentX, parentY, parentZ int
	hasParent                 bool
	closed                    bool
}

func key(x, y, z int) int64 {
	return (int64(z)*1_000_003+int64(y))*1_000_003 + int64(x)
}

// AStar runs unrestricted A* over the whole grid on a single z-level (z
// transitions happen only through the abstract ladder/ramp links consumed by
// package mover's z-transition logic, not through this low-level search).
func AStar(w *grid.World, start, goal grid.Point, opts Options) (Path, bool) {
	return search(w, start, goal, opts, nil)
}

// window restricts node expansion to [minX,maxX) x [minY,maxY) plus a
// one-cell band so border cells of the chunk remain reachable, per
// spec.md §4.D.
type window struct {
	minX, minY, maxX, maxY int
}

func (win *window) allows(x, y int) bool {
	if win == nil {
		return true
	}
	return x >= win.minX-1 && x < win.maxX+1 && y >= win.minY-1 && y < win.maxY+1
}

// AStarChunk restricts the search to a chunk's cell window (expanded by one
// row so border-crossing entrances remain reachable).
func AStarChunk(w *grid.World, start, goal grid.Point, minX, minY, maxX, maxY int, opts Options) (Path, bool) {
	win := &window{minX: minX, minY: minY, maxX: maxX, maxY: maxY}
	return search(w, start, goal, opts, win)
}

func search(w *grid.World, start, goal grid.Point, opts Options, win *window) (Path, bool) {
	if start.Z != goal.Z {
		return Path{}, false
	}
	if !w.IsWalkableAt(start.X, start.Y, start.Z) || !w.IsWalkableAt(goal.X, goal.Y, goal.Z) {
		return Path{}, false
	}

	nodes := make(map[int64]*nodeRec)
	open := &openHeap{}
	heap.Init(open)

	startKey := key(start.X, start.Y, start.Z)
	nodes[startKey] = &nodeRec{g: 0, f: Heuristic(start, goal, opts.Use8Dir)}
	seq := 0
	heap.Push(open, &openEntry{x: start.X, y: start.Y, z: start.Z, g: 0, f: nodes[startKey].f, seq: seq})

	offs := neighborOffsets(opts)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*openEntry)
		curKey := key(cur.x, cur.y, cur.z)
		curNode := nodes[curKey]
		if curNode.closed {
			continue
		}
		curNode.closed = true

		if cur.x == goal.X && cur.y == goal.Y && cur.z == goal.Z {
			return reconstruct(nodes, start, goal), true
		}

		for _, off := range offs {
			nx, ny := cur.x+off.dx, cur.y+off.dy
			if win != nil && !win.allows(nx, ny) {
				continue
			}
			if !w.IsWalkableAt(nx, ny, cur.z) {
				continue
			}
			if off.diag && !canTraverseDiagonal(w, cur.x, cur.y, cur.z, off.dx, off.dy) {
				continue
			}
			base := grid.MoveCost(w.At(nx, ny, cur.z))
			if base >= grid.CostInf {
				continue
			}
			moveCost := base
			if off.diag {
				// Scale the cell's straight-step cost to its diagonal
				// equivalent (base * sqrt(2), approximated as 14/10).
				moveCost = base * grid.CostDiagonal / grid.CostStraight
			}
			tentativeG := curNode.g + moveCost
			nKey := key(nx, ny, cur.z)
			n, exists := nodes[nKey]
			if exists && n.closed {
				continue
			}
			if exists && tentativeG >= n.g {
				continue
			}
			f := tentativeG + Heuristic(grid.Point{X: nx, Y: ny, Z: cur.z}, goal, opts.Use8Dir)
			if !exists {
				n = &nodeRec{}
				nodes[nKey] = n
			}
			n.g = tentativeG
			n.f = f
			n.parentX, n.parentY, n.parentZ = cur.x, cur.y, cur.z
			n.hasParent = true
			seq++
			heap.Push(open, &openEntry{x: nx, y: ny, z: cur.z, g: tentativeG, f: f, seq: seq})
		}
	}
	return Path{}, false
}

func reconstruct(nodes map[int64]*nodeRec, start, goal grid.Point) Path {
	points := make([]grid.Point, 0, 16)
	x, y, z := goal.X, goal.Y, goal.Z
	cost := nodes[key(goal.X, goal.Y, goal.Z)].g
	for {
		points = append(points, grid.Point{X: x, Y: y, Z: z})
		if x == start.X && y == start.Y && z == start.Z {
			break
		}
		n := nodes[key(x, y, z)]
		if n == nil || !n.hasParent {
			break
		}
		x, y, z = n.parentX, n.parentY, n.parentZ
	}
	return Path{Points: points, Cost: cost}
}
