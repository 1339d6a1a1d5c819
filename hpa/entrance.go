package hpa

import "pathkeep/grid"

// Entrance is an abstract graph node. A border entrance sits between two
// adjacent chunks: PointA is the cell on the ChunkA side, PointB the
// neighboring cell one step across the border on the ChunkB side. A
// vertical-link entrance (ladder or ramp endpoint) has PointA == PointB and
// ChunkA == ChunkB, since it is a single-cell node that belongs to one
// chunk. Grounded in the original NikkiKoole/navkit
// pathing/pathfinding.h Entrance struct, generalized from a single (x,y,z)
// per entrance to a point pair so border entrances connect cleanly into
// the A* search of each side's chunk.
type Entrance struct {
	PointA, PointB grid.Point
	ChunkA, ChunkB int
}

func chunkID(cx, cy, chunksX int) int {
	return cy*chunksX + cx
}

// BuildEntrances scans every chunk border on every z-level and emits one
// Entrance per contiguous walkable run, splitting runs longer than
// grid.MaxEntranceWidth into multiple entrances so no single abstract edge
// spans an unbounded number of cells. This mirrors the original's
// BuildEntrances, which performs the identical run-segmentation over
// MAX_ENTRANCE_WIDTH.
func BuildEntrances(w *grid.World) []Entrance {
	var entrances []Entrance
	chunksX, chunksY := w.ChunkCounts()
	chunkW, chunkH := w.ChunkSize()

	for z := 0; z < w.Depth(); z++ {
		// Vertical borders: between chunk column cx and cx+1.
		for cx := 0; cx < chunksX-1; cx++ {
			borderX := (cx+1)*chunkW - 1
			if borderX+1 >= w.Width() {
				continue
			}
			for cy := 0; cy < chunksY; cy++ {
				_, minY, _, maxY := w.ChunkBounds(cx, cy)
				entrances = append(entrances, scanBorderRun(w, z, borderX, minY, maxY, true,
					chunkID(cx, cy, chunksX), chunkID(cx+1, cy, chunksX))...)
			}
		}
		// Horizontal borders: between chunk row cy and cy+1.
		for cy := 0; cy < chunksY-1; cy++ {
			borderY := (cy+1)*chunkH - 1
			if borderY+1 >= w.Height() {
				continue
			}
			for cx := 0; cx < chunksX; cx++ {
				minX, _, maxX, _ := w.ChunkBounds(cx, cy)
				entrances = append(entrances, scanBorderRun(w, z, borderY, minX, maxX, false,
					chunkID(cx, cy, chunksX), chunkID(cx, cy+1, chunksX))...)
			}
		}
	}
	return entrances
}

// scanBorderRun scans the line of cell pairs straddling a chunk border and
// segments the walkable runs into entrances no longer than
// grid.MaxEntranceWidth. vertical selects whether the border is a
// constant-X line (true) or a constant-Y line (false); lo/hi bound the
// perpendicular axis.
func scanBorderRun(w *grid.World, z, border, lo, hi int, vertical bool, chunkA, chunkB int) []Entrance {
	var out []Entrance
	runStart := -1

	pointsAt := func(p int) (a, b grid.Point) {
		if vertical {
			return grid.Point{X: border, Y: p, Z: z}, grid.Point{X: border + 1, Y: p, Z: z}
		}
		return grid.Point{X: p, Y: border, Z: z}, grid.Point{X: p, Y: border + 1, Z: z}
	}

	flush := func(end int) {
		if runStart < 0 {
			return
		}
		for start := runStart; start < end; start += grid.MaxEntranceWidth {
			segEnd := start + grid.MaxEntranceWidth
			if segEnd > end {
				segEnd = end
			}
			mid := (start + segEnd - 1) / 2
			a, b := pointsAt(mid)
			out = append(out, Entrance{PointA: a, PointB: b, ChunkA: chunkA, ChunkB: chunkB})
		}
		runStart = -1
	}

	for p := lo; p < hi; p++ {
		a, b := pointsAt(p)
		if w.IsWalkableAt(a.X, a.Y, a.Z) && w.IsWalkableAt(b.X, b.Y, b.Z) {
			if runStart < 0 {
				runStart = p
			}
		} else {
			flush(p)
		}
	}
	flush(hi)
	return out
}
