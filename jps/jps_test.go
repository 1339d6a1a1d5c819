package jps

import (
	"testing"

	"pathkeep/grid"
)

func openWorld() *grid.World {
	return grid.NewWorld(20, 20, 1, 16, 16)
}

func TestUniformFlagsVariableCostTerrain(t *testing.T) {
	w := openWorld()
	if !Uniform(w) {
		t.Fatalf("open ground floor should be uniform")
	}
	w.SetCell(5, 5, 0, grid.KindRampNorth)
	if Uniform(w) {
		t.Fatalf("a ramp cell makes the floor non-uniform")
	}
}

func TestFindPathStraightLine(t *testing.T) {
	w := openWorld()
	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 1, Y: 10, Z: 0}

	path, ok := FindPath(w, start, goal, true)
	if !ok {
		t.Fatalf("expected a path")
	}
	if path.Points[0] != goal || path.Points[len(path.Points)-1] != start {
		t.Fatalf("path must run goal-to-start, got %v", path.Points)
	}
	if path.Cost != 9*grid.CostStraight {
		t.Fatalf("expected straight-line cost %d, got %d", 9*grid.CostStraight, path.Cost)
	}
	// every consecutive pair must be adjacent: JPS jump points get expanded
	// back into a full cell-by-cell path for movers.
	for i := 0; i < len(path.Points)-1; i++ {
		a, b := path.Points[i], path.Points[i+1]
		dx, dy := abs(a.X-b.X), abs(a.Y-b.Y)
		if dx > 1 || dy > 1 {
			t.Fatalf("non-adjacent step in expanded path: %v -> %v", a, b)
		}
	}
}

func TestFindPathAroundWall(t *testing.T) {
	w := openWorld()
	for y := 0; y < w.Height()-1; y++ {
		w.SetCell(10, y, 0, grid.KindWall)
	}

	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 18, Y: 1, Z: 0}

	path, ok := FindPath(w, start, goal, true)
	if !ok {
		t.Fatalf("expected a path around the wall's open end")
	}
	if path.Points[0] != goal {
		t.Fatalf("path must start with goal, got %v", path.Points[0])
	}
}

func TestFindPathUnreachable(t *testing.T) {
	w := openWorld()
	for y := 0; y < w.Height(); y++ {
		w.SetCell(10, y, 0, grid.KindWall)
	}
	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 18, Y: 1, Z: 0}

	if _, ok := FindPath(w, start, goal, true); ok {
		t.Fatalf("expected no path across a sealed wall")
	}
}

func TestFindPathRejectsDifferentFloors(t *testing.T) {
	w := grid.NewWorld(10, 10, 2, 10, 10)
	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 1, Y: 1, Z: 1}
	if _, ok := FindPath(w, start, goal, true); ok {
		t.Fatalf("JPS is single-floor; a cross-floor query must fail")
	}
}
