package hpa

import "pathkeep/grid"

// MaxEdgesPerNode bounds how many abstract edges a single entrance node may
// carry, matching the original's MAX_EDGES_PER_NODE=64 — a safety cap
// against pathological chunks with dozens of tiny entrances all mutually
// visible.
const MaxEdgesPerNode = 64

// GraphEdge is a bidirectional abstract-graph edge between two entrance
// nodes, carrying the real low-level path cost between them (computed by a
// chunk-confined A*, not the straight-line distance).
type GraphEdge struct {
	From, To int // indices into Graph.Entrances
	Cost     int
	Chunk    int // chunk the edge's path runs through, or -1 for a vertical (ladder/ramp) link
}

// LadderLink is an abstract edge created by a ladder shaft connecting its
// bottom and top entrance nodes. Grounded in the original's LadderLink
// struct (x, y, zLow, zHigh, entranceLow, entranceHigh, cost).
type LadderLink struct {
	X, Y, ZLow, ZHigh         int
	EntranceLow, EntranceHigh int
	Cost                      int
}

// RampLink is the ramp analogue of LadderLink; the original source had no
// ramps (ladder-only verticality), so this shape is new but mirrors
// LadderLink's fields.
type RampLink struct {
	X, Y, ZLow, ZHigh         int
	EntranceLow, EntranceHigh int
	Cost                      int
}

// Graph is the full HPA* abstract graph for one World: border entrances,
// ladder/ramp vertical links (each contributing their own single-cell
// entrance nodes), and the intra-chunk edges connecting every pair of
// entrances that share a chunk and have a real low-level path between them.
type Graph struct {
	Entrances   []Entrance
	Edges       []GraphEdge
	LadderLinks []LadderLink
	RampLinks   []RampLink

	adjacency [][]int // entrance index -> edge indices into Edges
	opts      Options
}

// Neighbors returns the edges leaving entrance node i.
func (g *Graph) Neighbors(i int) []GraphEdge {
	out := make([]GraphEdge, 0, len(g.adjacency[i]))
	for _, ei := range g.adjacency[i] {
		e := g.Edges[ei]
		if e.From != i {
			e.From, e.To = e.To, e.From
		}
		out = append(out, e)
	}
	return out
}

// BuildGraph constructs the complete abstract graph from scratch: border
// entrances, vertical links, and intra-chunk connectivity between every pair
// of entrances sharing a chunk. Grounded in the original's BuildEntrances +
// BuildGraph pairing, run once here rather than split into the original's
// two calls since Go callers just want a finished Graph back.
func BuildGraph(w *grid.World, opts Options) *Graph {
	g := &Graph{opts: opts}

	border := BuildEntrances(w)
	g.Entrances = append(g.Entrances, border...)

	ladderEntrances, ladderLinks := buildLadderLinks(w, len(g.Entrances))
	g.Entrances = append(g.Entrances, ladderEntrances...)
	g.LadderLinks = ladderLinks

	rampEntrances, rampLinks := buildRampLinks(w, len(g.Entrances))
	g.Entrances = append(g.Entrances, rampEntrances...)
	g.RampLinks = rampLinks

	g.adjacency = make([][]int, len(g.Entrances))
	connectIntraChunk(w, g)
	connectVerticalLinks(g)
	return g
}

// buildLadderLinks scans every ladder shaft and creates one entrance node at
// its bottom cell, one at its top cell, and a LadderLink joining them.
func buildLadderLinks(w *grid.World, nextID int) ([]Entrance, []LadderLink) {
	var entrances []Entrance
	var links []LadderLink

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
				cx, cy := x/chunkWOf(w), y/chunkHOf(w)
				chunk := chunkID(cx, cy, chunksXOf(w))

				lowIdx := nextID + len(entrances)
				entrances = append(entrances, Entrance{
					PointA: grid.Point{X: x, Y: y, Z: bottom}, PointB: grid.Point{X: x, Y: y, Z: bottom},
					ChunkA: chunk, ChunkB: chunk,
				})
				highIdx := nextID + len(entrances)
				entrances = append(entrances, Entrance{
					PointA: grid.Point{X: x, Y: y, Z: top}, PointB: grid.Point{X: x, Y: y, Z: top},
					ChunkA: chunk, ChunkB: chunk,
				})
				links = append(links, LadderLink{
					X: x, Y: y, ZLow: bottom, ZHigh: top,
					EntranceLow: lowIdx, EntranceHigh: highIdx,
					Cost: (top - bottom) * grid.CostStraight,
				})
			}
		}
	}
	return entrances, links
}

// buildRampLinks scans every ramp cell and creates an entrance node at the
// low cell and another at its high-side neighbor, joined by a RampLink.
func buildRampLinks(w *grid.World, nextID int) ([]Entrance, []RampLink) {
	var entrances []Entrance
	var links []RampLink

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
				lowChunk := chunkID(x/chunkWOf(w), y/chunkHOf(w), chunksXOf(w))
				highChunk := chunkID(hx/chunkWOf(w), hy/chunkHOf(w), chunksXOf(w))

				lowIdx := nextID + len(entrances)
				entrances = append(entrances, Entrance{
					PointA: grid.Point{X: x, Y: y, Z: z}, PointB: grid.Point{X: x, Y: y, Z: z},
					ChunkA: lowChunk, ChunkB: lowChunk,
				})
				highIdx := nextID + len(entrances)
				entrances = append(entrances, Entrance{
					PointA: grid.Point{X: hx, Y: hy, Z: hz}, PointB: grid.Point{X: hx, Y: hy, Z: hz},
					ChunkA: highChunk, ChunkB: highChunk,
				})
				links = append(links, RampLink{
					X: x, Y: y, ZLow: z, ZHigh: hz,
					EntranceLow: lowIdx, EntranceHigh: highIdx,
					Cost: grid.CostDiagonal,
				})
			}
		}
	}
	return entrances, links
}

func connectVerticalLinks(g *Graph) {
	for _, l := range g.LadderLinks {
		addEdge(g, l.EntranceLow, l.EntranceHigh, l.Cost, -1)
	}
	for _, l := range g.RampLinks {
		addEdge(g, l.EntranceLow, l.EntranceHigh, l.Cost, -1)
	}
}

// connectIntraChunk runs a chunk-confined A* between every pair of entrance
// nodes that share a chunk (on either side of a border entrance) and adds a
// bidirectional edge for every pair that is actually reachable.
func connectIntraChunk(w *grid.World, g *Graph) {
	chunksX, chunksY := w.ChunkCounts()
	for cy := 0; cy < chunksY; cy++ {
		for cx := 0; cx < chunksX; cx++ {
			chunk := chunkID(cx, cy, chunksX)
			minX, minY, maxX, maxY := w.ChunkBounds(cx, cy)

			for z := 0; z < w.Depth(); z++ {
				members := membersOf(g, chunk, z)
				for i := 0; i < len(members); i++ {
					for j := i + 1; j < len(members); j++ {
						ei, pa := members[i].index, members[i].point
						ej, pb := members[j].index, members[j].point
						if len(g.adjacency[ei]) >= MaxEdgesPerNode || len(g.adjacency[ej]) >= MaxEdgesPerNode {
							continue
						}
						path, ok := AStarChunk(w, pa, pb, minX, minY, maxX, maxY, g.opts)
						if !ok {
							continue
						}
						addEdge(g, ei, ej, path.Cost, chunk)
					}
				}
			}
		}
	}
}

type chunkMember struct {
	index int
	point grid.Point
}

func membersOf(g *Graph, chunk, z int) []chunkMember {
	var out []chunkMember
	for i, e := range g.Entrances {
		if e.PointA.Z != z && e.PointB.Z != z {
			continue
		}
		if e.ChunkA == chunk {
			out = append(out, chunkMember{index: i, point: e.PointA})
		} else if e.ChunkB == chunk {
			out = append(out, chunkMember{index: i, point: e.PointB})
		}
	}
	return out
}

func addEdge(g *Graph, a, b, cost, chunk int) {
	if a == b {
		return
	}
	idx := len(g.Edges)
	g.Edges = append(g.Edges, GraphEdge{From: a, To: b, Cost: cost, Chunk: chunk})
	g.adjacency[a] = append(g.adjacency[a], idx)
	g.adjacency[b] = append(g.adjacency[b], idx)
}

func chunkWOf(w *grid.World) int {
	cw, _ := w.ChunkSize()
	return cw
}
func chunkHOf(w *grid.World) int {
	_, ch := w.ChunkSize()
	return ch
}
func chunksXOf(w *grid.World) int {
	cx, _ := w.ChunkCounts()
	return cx
}
