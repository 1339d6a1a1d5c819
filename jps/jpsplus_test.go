package jps

import (
	"testing"

	"pathkeep/grid"
)

func TestPrecomputeMatchesPlainJPS(t *testing.T) {
	w := openWorld()
	for y := 0; y < w.Height()-1; y++ {
		w.SetCell(10, y, 0, grid.KindWall)
	}
	jt := PrecomputeJpsPlus(w, 0)

	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 18, Y: 1, Z: 0}

	want, ok := FindPath(w, start, goal, true)
	if !ok {
		t.Fatalf("expected plain JPS to find a path")
	}
	got, ok := FindPathPlus(w, jt, start, goal, true)
	if !ok {
		t.Fatalf("expected JPS+ to find a path")
	}
	if got.Cost != want.Cost {
		t.Fatalf("JPS+ cost %d != JPS cost %d", got.Cost, want.Cost)
	}
}

func TestLookupZeroAgainstWall(t *testing.T) {
	w := openWorld()
	w.SetCell(5, 5, 0, grid.KindWall)
	jt := PrecomputeJpsPlus(w, 0)

	dist, isJP := jt.Lookup(4, 5, DirE)
	if dist != 0 || isJP {
		t.Fatalf("cell directly against a wall should report 0 distance, got %d/%v", dist, isJP)
	}
}

func TestLookupOutOfBounds(t *testing.T) {
	w := openWorld()
	jt := PrecomputeJpsPlus(w, 0)
	if dist, isJP := jt.Lookup(-1, 0, DirE); dist != 0 || isJP {
		t.Fatalf("out-of-bounds lookup should report 0/false, got %d/%v", dist, isJP)
	}
}

func TestFillChainsOffAlreadyComputedNeighbor(t *testing.T) {
	w := openWorld()
	jt := PrecomputeJpsPlus(w, 0)
	// In a fully open room, distance east from (1, y) should extend all the
	// way to the last open cell at x=width-1, on the grid edge, confirming the sweep correctly chains
	// each cell off the neighbor already computed just ahead of it.
	dist, _ := jt.Lookup(1, 5, DirE)
	if int(dist) != w.Width()-1-1 {
		t.Fatalf("expected distance %d to the east wall, got %d", w.Width()-2, dist)
	}
}
