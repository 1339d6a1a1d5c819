package spatial

import "testing"

func TestRebuildAndQueryFindsNearby(t *testing.T) {
	idx := NewIndex(0, 0, 100, 100, 1, 4)
	points := []Point{
		{X: 10, Y: 10, Z: 0},
		{X: 10.5, Y: 10.5, Z: 0},
		{X: 90, Y: 90, Z: 0},
	}
	idx.Rebuild(points, nil)

	out := idx.QueryNeighbors(Point{X: 10, Y: 10, Z: 0}, 2, nil)
	if len(out) != 2 {
		t.Fatalf("expected 2 nearby entities, got %d (%v)", len(out), out)
	}
	for _, id := range out {
		if id == 2 {
			t.Fatalf("far entity should not appear in nearby results")
		}
	}
}

func TestQueryRespectsCaps(t *testing.T) {
	idx := NewIndex(0, 0, 100, 100, 1, 4)
	idx.NeighborCap = 2

	points := make([]Point, 10)
	for i := range points {
		points[i] = Point{X: 10, Y: 10, Z: 0}
	}
	idx.Rebuild(points, nil)

	out := idx.QueryNeighbors(Point{X: 10, Y: 10, Z: 0}, 5, nil)
	if len(out) != 2 {
		t.Fatalf("expected neighbor cap to bound results to 2, got %d", len(out))
	}
}

func TestDifferentZLevelsDoNotCollide(t *testing.T) {
	idx := NewIndex(0, 0, 100, 100, 2, 4)
	points := []Point{
		{X: 10, Y: 10, Z: 0},
		{X: 10, Y: 10, Z: 1},
	}
	idx.Rebuild(points, nil)

	out := idx.QueryNeighbors(Point{X: 10, Y: 10, Z: 0}, 5, nil)
	if len(out) != 1 {
		t.Fatalf("expected only the same-floor entity, got %d", len(out))
	}
}
