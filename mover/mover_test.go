package mover

import (
	"testing"

	"pathkeep/grid"
	"pathkeep/hpa"
)

func openFloor(w, h int) *grid.World {
	return grid.NewWorld(w, h, 1, 16, 16)
}

func hpaFinder(world *grid.World) PathFinder {
	g := hpa.BuildGraph(world, hpa.Options{Use8Dir: true})
	return func(start, goal grid.Point, use8Dir bool) (Path, bool) {
		p, ok := hpa.FindPathHPA(world, g, start, goal, hpa.Options{Use8Dir: use8Dir})
		if !ok {
			return Path{}, false
		}
		return Path{Points: p.Points, Cost: p.Cost}, true
	}
}

// TestArrivalReachesGoal covers P1: an active mover on a walkable cell,
// after enough ticks, ends up with its current cell still walkable (it
// either reaches the goal and deactivates, or keeps a legal position every
// tick along the way).
func TestArrivalReachesGoal(t *testing.T) {
	w := openFloor(32, 32)
	rt := NewRuntime(w, DefaultOptions(), hpaFinder(w), nil, nil)

	m := rt.InitMover("m1", 24, 24, 0, grid.Point{X: 10, Y: 10, Z: 0}, DefaultSpeed)
	if len(m.Path.Points) == 0 {
		t.Fatalf("expected an initial path")
	}

	for i := 0; i < 2000 && m.Active; i++ {
		rt.Step(uint64(i), 1.0/60.0)
		if !w.IsWalkableAt(m.CellX(), m.CellY(), m.Z) {
			t.Fatalf("tick %d: mover cell not walkable and not resolved", i)
		}
	}
	if m.Active {
		t.Fatalf("expected mover to deactivate on arrival within budget")
	}
}

// TestHPAPathRunsGoalToStart covers P2's shape requirements: a non-empty
// HPA* path has its goal first, start last, and every consecutive pair is
// a legal step.
func TestHPAPathRunsGoalToStart(t *testing.T) {
	w := openFloor(32, 32)
	finder := hpaFinder(w)

	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 20, Y: 20, Z: 0}
	path, ok := finder(start, goal, true)
	if !ok {
		t.Fatalf("expected a path")
	}
	if path.Points[0] != goal || path.Points[len(path.Points)-1] != start {
		t.Fatalf("expected goal-first/start-last, got %v", path.Points)
	}
	for i := 0; i < len(path.Points)-1; i++ {
		a, b := path.Points[i], path.Points[i+1]
		dx, dy := abs(a.X-b.X), abs(a.Y-b.Y)
		if dx > 1 || dy > 1 {
			t.Fatalf("non-adjacent step %v -> %v", a, b)
		}
	}
}

// TestStringPullStaysWithinTolerance covers P4: string-pulling never
// increases total cost beyond the 10% tolerance and never crosses a
// z-change.
func TestStringPullStaysWithinTolerance(t *testing.T) {
	w := openFloor(32, 32)
	finder := hpaFinder(w)

	start := grid.Point{X: 1, Y: 1, Z: 0}
	goal := grid.Point{X: 20, Y: 1, Z: 0}
	path, ok := finder(start, goal, true)
	if !ok {
		t.Fatalf("expected a path")
	}
	pulled := stringPull(w, path)

	if len(pulled.Points) > len(path.Points) {
		t.Fatalf("string-pulling must not add waypoints")
	}
	pulledCost := segmentCost(pulled.Points, 0, len(pulled.Points)-1)
	originalCost := segmentCost(path.Points, 0, len(path.Points)-1)
	if pulledCost > (originalCost*StringPullToleranceNum)/StringPullToleranceDen {
		t.Fatalf("string-pulled cost %d exceeds 10%% tolerance over %d", pulledCost, originalCost)
	}
	for i := 0; i < len(pulled.Points)-1; i++ {
		if pulled.Points[i].Z != pulled.Points[i+1].Z {
			t.Fatalf("string-pulling must not shortcut across a z-change")
		}
	}
}

// TestRepathBudgetIsBounded covers P5: ProcessRepaths never issues more
// than MaxRepathsPerFrame path queries in one tick; the rest stay flagged
// and uncooled-down for next tick.
func TestRepathBudgetIsBounded(t *testing.T) {
	w := openFloor(64, 64)
	calls := 0
	finder := func(start, goal grid.Point, use8Dir bool) (Path, bool) {
		calls++
		return Path{Points: []grid.Point{goal, start}, Cost: grid.CostStraight}, true
	}
	rt := NewRuntime(w, DefaultOptions(), finder, nil, nil)

	const n = MaxRepathsPerFrame * 3
	for i := 0; i < n; i++ {
		m := NewMover(idFor(i))
		m.Active = true
		m.NeedsRepath = true
		rt.movers = append(rt.movers, m)
	}

	rt.ProcessRepaths(0)
	if calls != MaxRepathsPerFrame {
		t.Fatalf("expected exactly %d repath calls, got %d", MaxRepathsPerFrame, calls)
	}

	deferred := 0
	for _, m := range rt.movers {
		if m.NeedsRepath && m.RepathCooldown == 0 {
			deferred++
		}
	}
	if deferred != n-MaxRepathsPerFrame {
		t.Fatalf("expected %d movers deferred with no cooldown spent, got %d", n-MaxRepathsPerFrame, deferred)
	}
}

func idFor(i int) string {
	return string(rune('a' + i%26))
}
