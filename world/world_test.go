package world

import (
	"testing"

	"pathkeep/grid"
	"pathkeep/spatial"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 48
	cfg.Height = 48
	cfg.ChunkW = 16
	cfg.ChunkH = 16
	cfg.Seed = "test-seed"
	return cfg
}

// TestFindPathHPARunsAndFallsBackUnderRamps covers the spec.md §4.F rule
// that JPS/JPS+ must disable themselves on non-uniform terrain in favor of
// HPA*, exercised end to end through the World aggregate's FindPath.
func TestFindPathHPARunsAndFallsBackUnderRamps(t *testing.T) {
	w := New(testConfig(), nil)

	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 20, Y: 20, Z: 0}

	path, ok := w.FindPath(AlgoHPA, start, goal)
	if !ok {
		t.Fatalf("expected an HPA* path")
	}
	if path.Points[0] != goal || path.Points[len(path.Points)-1] != start {
		t.Fatalf("expected goal-first/start-last path, got %v", path.Points)
	}

	w.Grid.SetCell(5, 5, 0, grid.KindRampNorth)
	if _, ok := w.FindPath(AlgoJPSPlus, start, goal); !ok {
		t.Fatalf("expected JPS+ to fall back to HPA* under non-uniform terrain, not fail outright")
	}
}

// TestUpdateDirtyChunksKeepsGraphUsable covers P3 at the World level: after
// an edit, a query still finds a path once the lazy rebuild runs.
func TestUpdateDirtyChunksKeepsGraphUsable(t *testing.T) {
	w := New(testConfig(), nil)
	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 40, Y: 40, Z: 0}

	if _, ok := w.FindPath(AlgoHPA, start, goal); !ok {
		t.Fatalf("expected an initial path")
	}

	w.Grid.SetCell(24, 24, 0, grid.KindWall)
	if !w.Grid.NeedsRebuild {
		t.Fatalf("expected the edit to flag the graph for rebuild")
	}

	path, ok := w.FindPath(AlgoHPA, start, goal)
	if !ok {
		t.Fatalf("expected a path to still exist around the new wall")
	}
	for _, p := range path.Points {
		if p == (grid.Point{X: 24, Y: 24, Z: 0}) {
			t.Fatalf("path must not route through the newly-walled cell")
		}
	}
}

// TestSpatialIndexMatchesActiveMovers covers P6 at the World level: after a
// tick, a query over the spatial index finds the active movers. The caps
// are raised so the wide query below is not cut short.
func TestSpatialIndexMatchesActiveMovers(t *testing.T) {
	cfg := testConfig()
	cfg.ScanCap = 1 << 30
	cfg.NeighborCap = 1 << 30
	w := New(cfg, nil)
	w.Movers.InitMover("a", 40, 40, 0, grid.Point{X: 3, Y: 3, Z: 0}, 32)
	w.Movers.InitMover("b", 400, 400, 0, grid.Point{X: 3, Y: 3, Z: 0}, 32)

	w.Tick()

	out := w.Spatial.QueryNeighbors(spatial.Point{X: 40, Y: 40, Z: 0}, 1000, nil)
	if len(out) == 0 {
		t.Fatalf("expected the spatial index to be populated after a tick")
	}
}

// TestOnLoadFlagsTransientState covers spec.md §6's persisted-state
// contract: after OnLoad, every mover needs a repath and the graph is
// flagged for rebuild.
func TestOnLoadFlagsTransientState(t *testing.T) {
	w := New(testConfig(), nil)
	m := w.Movers.InitMover("a", 40, 40, 0, grid.Point{X: 3, Y: 3, Z: 0}, 32)
	m.NeedsRepath = false

	w.OnLoad()

	if !w.Grid.NeedsRebuild {
		t.Fatalf("expected OnLoad to flag the graph for rebuild")
	}
	if !m.NeedsRepath {
		t.Fatalf("expected OnLoad to flag transient mover path state for repath")
	}
}

func TestRunTicksAdvancesTickCounter(t *testing.T) {
	w := New(testConfig(), nil)
	w.RunTicks(10)
	if w.CurrentTick() != 10 {
		t.Fatalf("expected tick counter 10, got %d", w.CurrentTick())
	}
}
