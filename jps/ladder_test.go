package jps

import (
	"testing"

	"pathkeep/grid"
)

func twoFloorWorldWithLadder() *grid.World {
	w := grid.NewWorld(10, 10, 2, 10, 10)
	w.SetCell(3, 3, 0, grid.KindLadderBoth)
	w.SetCell(3, 3, 1, grid.KindLadderBoth)
	return w
}

func TestBuildJpsLadderGraphPairsEndpoints(t *testing.T) {
	w := twoFloorWorldWithLadder()
	lg := BuildJpsLadderGraph(w, true)

	if len(lg.Vertices) != 2 {
		t.Fatalf("expected one vertex per ladder endpoint, got %d", len(lg.Vertices))
	}
	a, b := lg.Vertices[0], lg.Vertices[1]
	if a.Point.Z == b.Point.Z {
		t.Fatalf("ladder endpoints must be on different floors")
	}
	if a.Pair != 1 || b.Pair != 0 {
		t.Fatalf("endpoints must reference each other as their pair")
	}
}

func TestFindPath3DCrossesLadder(t *testing.T) {
	w := twoFloorWorldWithLadder()
	lg := BuildJpsLadderGraph(w, true)

	tables := map[int]*JumpTable{
		0: PrecomputeJpsPlus(w, 0),
		1: PrecomputeJpsPlus(w, 1),
	}
	tableFor := func(z int) *JumpTable { return tables[z] }

	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 1, Y: 1, Z: 1}

	path, ok := FindPath3D(w, lg, tableFor, start, goal, true)
	if !ok {
		t.Fatalf("expected a path across the ladder")
	}
	if path.Points[0] != goal {
		t.Fatalf("path must run goal-to-start, got first point %v", path.Points[0])
	}
	if path.Points[len(path.Points)-1] != start {
		t.Fatalf("path must end at start, got %v", path.Points[len(path.Points)-1])
	}
	sawLowFloor, sawHighFloor := false, false
	for _, p := range path.Points {
		if p.Z == 0 {
			sawLowFloor = true
		}
		if p.Z == 1 {
			sawHighFloor = true
		}
	}
	if !sawLowFloor || !sawHighFloor {
		t.Fatalf("expected the path to visit both floors, got %v", path.Points)
	}
}

// TestFindPath3DCrossesTwoLaddersAcrossThreeFloors covers a route spanning
// two separate vertical hops (no single shaft runs all three floors), so
// FindPath3D must splice in the same-floor leg between the two ladders on
// the middle floor instead of jumping straight from one ladder's endpoint
// to the other's.
func TestFindPath3DCrossesTwoLaddersAcrossThreeFloors(t *testing.T) {
	w := grid.NewWorld(10, 10, 3, 10, 10)
	w.SetCell(3, 3, 0, grid.KindLadderBoth)
	w.SetCell(3, 3, 1, grid.KindLadderBoth)
	w.SetCell(7, 7, 1, grid.KindLadderBoth)
	w.SetCell(7, 7, 2, grid.KindLadderBoth)
	lg := BuildJpsLadderGraph(w, true)

	tables := map[int]*JumpTable{
		0: PrecomputeJpsPlus(w, 0),
		1: PrecomputeJpsPlus(w, 1),
		2: PrecomputeJpsPlus(w, 2),
	}
	tableFor := func(z int) *JumpTable { return tables[z] }

	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 1, Y: 1, Z: 2}

	path, ok := FindPath3D(w, lg, tableFor, start, goal, true)
	if !ok {
		t.Fatalf("expected a path across both ladders")
	}
	if path.Points[0] != goal || path.Points[len(path.Points)-1] != start {
		t.Fatalf("path must run goal-to-start, got %v", path.Points)
	}

	seenFloor := map[int]bool{}
	for i, p := range path.Points {
		seenFloor[p.Z] = true
		if i == 0 {
			continue
		}
		prev := path.Points[i-1]
		dx, dy, dz := abs(prev.X-p.X), abs(prev.Y-p.Y), abs(prev.Z-p.Z)
		if dz != 0 {
			if dz != 1 || dx != 0 || dy != 0 {
				t.Fatalf("non-adjacent floor transition between %v and %v", prev, p)
			}
			continue
		}
		if dx > 1 || dy > 1 {
			t.Fatalf("non-adjacent same-floor step between %v and %v", prev, p)
		}
	}
	for _, z := range []int{0, 1, 2} {
		if !seenFloor[z] {
			t.Fatalf("expected the path to visit floor %d, got %v", z, path.Points)
		}
	}
}

func TestFindPath3DSameFloorUsesTableDirectly(t *testing.T) {
	w := twoFloorWorldWithLadder()
	lg := BuildJpsLadderGraph(w, true)
	jt := PrecomputeJpsPlus(w, 0)
	tableFor := func(z int) *JumpTable {
		if z == 0 {
			return jt
		}
		return nil
	}

	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 5, Y: 5, Z: 0}

	path, ok := FindPath3D(w, lg, tableFor, start, goal, true)
	if !ok {
		t.Fatalf("expected a same-floor path")
	}
	if path.Points[0] != goal || path.Points[len(path.Points)-1] != start {
		t.Fatalf("path must run goal-to-start, got %v", path.Points)
	}
}
