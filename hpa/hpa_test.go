package hpa

import (
	"testing"

	"pathkeep/grid"
)

func smallOpenWorld() *grid.World {
	// 32x16 open floor, two chunks across (chunkW=chunkH=16), no walls: a
	// same-chunk case and a cross-chunk case both resolve by walking the
	// same single floor.
	return grid.NewWorld(32, 16, 1, 16, 16)
}

// TestFindPathSameChunk covers spec.md scenario 1: start and goal share a
// chunk, so FindPathHPA should take the direct chunk-confined fast path and
// never touch the abstract graph at all.
func TestFindPathSameChunk(t *testing.T) {
	w := smallOpenWorld()
	g := BuildGraph(w, Options{Use8Dir: true})

	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 5, Y: 5, Z: 0}

	path, ok := FindPathHPA(w, g, start, goal, Options{Use8Dir: true})
	if !ok {
		t.Fatalf("expected a path")
	}
	if path.Points[0] != goal || path.Points[len(path.Points)-1] != start {
		t.Fatalf("path must run goal-to-start, got %v", path.Points)
	}
}

// TestFindPathCrossChunkWithWall covers spec.md scenario 2: start and goal
// are in different chunks and a wall blocks the direct line, forcing the
// abstract graph to route through an entrance.
func TestFindPathCrossChunkWithWall(t *testing.T) {
	w := smallOpenWorld()
	// Wall off column x=16 except for a single gap at y=8, forcing traffic
	// through one entrance.
	for y := 0; y < w.Height(); y++ {
		if y == 8 {
			continue
		}
		w.SetCell(16, y, 0, grid.KindWall)
	}
	g := BuildGraph(w, Options{Use8Dir: true})

	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 30, Y: 14, Z: 0}

	path, ok := FindPathHPA(w, g, start, goal, Options{Use8Dir: true})
	if !ok {
		t.Fatalf("expected a path through the gap")
	}
	found := false
	for _, p := range path.Points {
		if p.X == 16 && p.Y == 8 {
			found = true
		}
	}
	if !found {
		t.Fatalf("path should funnel through the single gap at (16,8), got %v", path.Points)
	}
}

// TestUpdateDirtyChunksMatchesFreshBuild covers spec.md property P3: after a
// dynamic edit, an incremental UpdateDirtyChunks must leave the graph able to
// answer the same queries a from-scratch BuildGraph would.
func TestUpdateDirtyChunksMatchesFreshBuild(t *testing.T) {
	w := smallOpenWorld()
	for y := 0; y < w.Height(); y++ {
		if y == 8 {
			continue
		}
		w.SetCell(16, y, 0, grid.KindWall)
	}
	g := BuildGraph(w, Options{Use8Dir: true})
	w.ClearDirty()

	// Close the gap, opening a new one two cells north instead.
	w.SetCell(16, 8, 0, grid.KindWall)
	w.SetCell(16, 6, 0, grid.KindGround)

	UpdateDirtyChunks(w, g, Options{Use8Dir: true})

	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 30, Y: 14, Z: 0}
	path, ok := FindPathHPA(w, g, start, goal, Options{Use8Dir: true})
	if !ok {
		t.Fatalf("expected a path through the relocated gap")
	}
	found := false
	for _, p := range path.Points {
		if p.X == 16 && p.Y == 6 {
			found = true
		}
	}
	if !found {
		t.Fatalf("path should funnel through the relocated gap at (16,6), got %v", path.Points)
	}

	fresh := BuildGraph(w, Options{Use8Dir: true})
	_, freshOK := FindPathHPA(w, fresh, start, goal, Options{Use8Dir: true})
	if freshOK != ok {
		t.Fatalf("incremental update should agree with a fresh rebuild on reachability")
	}
}

// TestFindPathUnreachable covers spec.md scenario where a goal is fully
// sealed off: neither the direct nor hierarchical search should succeed.
func TestFindPathUnreachable(t *testing.T) {
	w := smallOpenWorld()
	goal := grid.Point{X: 20, Y: 5, Z: 0}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			w.SetCell(goal.X+dx, goal.Y+dy, 0, grid.KindWall)
		}
	}
	g := BuildGraph(w, Options{Use8Dir: true})
	start := grid.Point{X: 1, Y: 1, Z: 0}

	if _, ok := FindPathHPA(w, g, start, goal, Options{Use8Dir: true}); ok {
		t.Fatalf("goal is sealed off, expected no path")
	}
}

// TestLadderLinkCrossesFloors covers spec.md scenario 4: a two-floor map
// joined by a single ladder must route movers through that ladder's column.
func TestLadderLinkCrossesFloors(t *testing.T) {
	w := grid.NewWorld(16, 16, 2, 16, 16)
	w.PlaceLadder(8, 8, 0)
	w.PlaceLadder(8, 8, 1)
	g := BuildGraph(w, Options{Use8Dir: true})

	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 14, Y: 14, Z: 1}

	path, ok := FindPathHPA(w, g, start, goal, Options{Use8Dir: true})
	if !ok {
		t.Fatalf("expected a path across the ladder")
	}
	if path.Points[0] != goal {
		t.Fatalf("path should start (goal-first) at the requested goal, got %v", path.Points[0])
	}
	crossed := false
	for i := 0; i < len(path.Points)-1; i++ {
		if path.Points[i].Z != path.Points[i+1].Z {
			crossed = true
		}
	}
	if !crossed {
		t.Fatalf("path never changes z-level despite crossing floors, got %v", path.Points)
	}
}

func TestAStarDiagonalCornerCut(t *testing.T) {
	w := grid.NewWorld(5, 5, 1, 16, 16)
	w.SetCell(2, 1, 0, grid.KindWall)
	w.SetCell(1, 2, 0, grid.KindWall)

	// The diagonal (1,1)->(2,2) is blocked; the cheapest legal route walks
	// around one wall's open end in six straight steps.
	path, ok := AStar(w, grid.Point{X: 1, Y: 1, Z: 0}, grid.Point{X: 2, Y: 2, Z: 0}, Options{Use8Dir: true})
	if !ok {
		t.Fatalf("expected a detour around the walls")
	}
	if path.Cost != 6*grid.CostStraight {
		t.Fatalf("should not be able to cut the corner between two orthogonal walls, got cost %d via %v", path.Cost, path.Points)
	}
}

// TestFindPathHPAReportsStats covers the OnStats telemetry hook: a
// cross-chunk query reports SameChunk=false, while a same-chunk query
// reports SameChunk=true.
func TestFindPathHPAReportsStats(t *testing.T) {
	w := smallOpenWorld()
	g := BuildGraph(w, Options{Use8Dir: true})

	var crossStats HPAStats
	opts := Options{Use8Dir: true, OnStats: func(s HPAStats) { crossStats = s }}
	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 30, Y: 14, Z: 0}
	if _, ok := FindPathHPA(w, g, start, goal, opts); !ok {
		t.Fatalf("expected a cross-chunk path")
	}
	if crossStats.SameChunk {
		t.Fatalf("expected a cross-chunk query to report SameChunk=false")
	}

	var sameStats HPAStats
	opts = Options{Use8Dir: true, OnStats: func(s HPAStats) { sameStats = s }}
	if _, ok := FindPathHPA(w, g, start, grid.Point{X: 5, Y: 5, Z: 0}, opts); !ok {
		t.Fatalf("expected a same-chunk path")
	}
	if !sameStats.SameChunk {
		t.Fatalf("expected a same-chunk query to report SameChunk=true")
	}
}

// TestFindPathHPAReportsRefinementFailure covers the OnRefinementFailed
// hook: an intra-chunk abstract edge whose real route has been sealed off
// since the graph was last built (no rebuild in between) should fail
// refinement and report the failing edge, rather than silently returning
// ok=false with no diagnostic.
func TestFindPathHPAReportsRefinementFailure(t *testing.T) {
	// Three chunks in a row: chunk0 | chunk1 | chunk2, single-cell gaps at
	// (16,8) and (32,8) joining them, so the only route between chunk0 and
	// chunk2 is an intra-chunk1 edge between those two entrances.
	w := grid.NewWorld(48, 16, 1, 16, 16)
	for y := 0; y < w.Height(); y++ {
		if y != 8 {
			w.SetCell(16, y, 0, grid.KindWall)
			w.SetCell(32, y, 0, grid.KindWall)
		}
	}
	g := BuildGraph(w, Options{Use8Dir: true})

	// Sever chunk1 in half without rebuilding the graph: the cached
	// intra-chunk edge between the two entrances is now stale.
	for y := 0; y < w.Height(); y++ {
		w.SetCell(24, y, 0, grid.KindWall)
	}

	var failed bool
	opts := Options{Use8Dir: true, OnRefinementFailed: func(from, to int) { failed = true }}
	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 46, Y: 14, Z: 0}
	if _, ok := FindPathHPA(w, g, start, goal, opts); ok {
		t.Fatalf("expected refinement to fail against the now-severed chunk")
	}
	if !failed {
		t.Fatalf("expected OnRefinementFailed to fire when refinement fails")
	}
}

func TestHeuristicAdmissible(t *testing.T) {
	a := grid.Point{X: 0, Y: 0, Z: 0}
	b := grid.Point{X: 3, Y: 4, Z: 0}
	h4 := Heuristic(a, b, false)
	if h4 != 70 {
		t.Fatalf("manhattan heuristic mismatch: got %d want 70", h4)
	}
	h8 := Heuristic(a, b, true)
	if h8 != 4*10+3*4 {
		t.Fatalf("octile heuristic mismatch: got %d", h8)
	}
}
