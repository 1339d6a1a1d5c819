package mover

import (
	"math"

	"pathkeep/spatial"
)

// UpdateAvoidance runs the avoidance-precompute phase for every mover due
// this tick: a neighbor-repulsion vector (quadratic falloff within
// MoverAvoidRadius) plus a wall-repulsion vector from nearby blocked cells,
// per spec.md §4.H step 2. The result is cached on the mover (m.avoid) and
// consumed by the movement phase, since avoidance uses the previous tick's
// positions when staggered — acceptable per spec.md §5 because movers
// advance at most one cell per frame at default speed.
//
// Neighbor repulsion is driven by rt.Spatial.QueryNeighbors rather than a
// scan over every mover, per spec.md line 10/34: the spatial index is
// rebuilt once per tick (package world's rebuildSpatialIndex, using the
// same mover-slice indices as ids) specifically so this phase's cost is
// bounded by ScanCap/NeighborCap instead of mover count.
func (rt *Runtime) UpdateAvoidance(tick uint64) {
	var neighborBuf []int32
	for i, m := range rt.movers {
		if !m.Active {
			continue
		}
		if rt.Options.UseStaggeredUpdates && (uint64(i)+tick)%3 != 1 {
			continue
		}
		var avoid Vec2
		if rt.Options.UseMoverAvoidance && rt.Spatial != nil {
			neighborBuf = rt.Spatial.QueryNeighbors(spatial.Point{X: m.X, Y: m.Y, Z: m.Z}, MoverAvoidRadius, neighborBuf[:0])
			avoid = rt.neighborRepulsion(int32(i), m, neighborBuf)
		}
		if rt.Options.UseWallRepulsion {
			wr := rt.wallRepulsion(m)
			avoid.X += wr.X * rt.Options.WallRepulsionStrength
			avoid.Y += wr.Y * rt.Options.WallRepulsionStrength
		}
		if rt.Options.UseDirectionalAvoidance {
			avoid = rt.filterByClearance(m, avoid)
		}
		m.avoid = avoid
	}
}

// neighborRepulsion sums direction*quadraticFalloff over every other active
// mover in neighborIDs (an rt.Spatial query result, so already bounded to
// MoverAvoidRadius and the same floor bucket as m).
func (rt *Runtime) neighborRepulsion(self int32, m *Mover, neighborIDs []int32) Vec2 {
	var sum Vec2
	strength := rt.Options.AvoidStrengthOpen
	if rt.crowded(self, m, neighborIDs) {
		strength = rt.Options.AvoidStrengthClosed
	}
	for _, id := range neighborIDs {
		if id == self {
			continue
		}
		other := rt.movers[id]
		dx, dy := m.X-other.X, m.Y-other.Y
		d := math.Hypot(dx, dy)
		if d <= 0 || d >= MoverAvoidRadius {
			continue
		}
		falloff := 1 - d/MoverAvoidRadius
		falloff *= falloff
		sum.X += (dx / d) * falloff * strength
		sum.Y += (dy / d) * falloff * strength
	}
	return sum
}

// crowded reports whether three or more other movers sit within half the
// avoidance radius, a cheap proxy for "confined area" used to pick between
// AvoidStrengthOpen and AvoidStrengthClosed.
func (rt *Runtime) crowded(self int32, m *Mover, neighborIDs []int32) bool {
	count := 0
	for _, id := range neighborIDs {
		if id == self {
			continue
		}
		other := rt.movers[id]
		d := math.Hypot(m.X-other.X, m.Y-other.Y)
		if d > 0 && d < MoverAvoidRadius*0.5 {
			count++
			if count >= 3 {
				return true
			}
		}
	}
	return false
}

// wallRepulsion iterates the 3x3 of cells around the mover and adds a
// repulsion vector away from each blocked cell within WallRepulsionRadius.
func (rt *Runtime) wallRepulsion(m *Mover) Vec2 {
	cx, cy := m.CellX(), m.CellY()
	var sum Vec2
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := cx+dx, cy+dy
			if rt.Grid.IsWalkableAt(nx, ny, m.Z) {
				continue
			}
			ncx, ncy := cellCenter(nx, ny)
			ddx, ddy := m.X-ncx, m.Y-ncy
			d := math.Hypot(ddx, ddy)
			if d <= 0 || d >= WallRepulsionRadius {
				continue
			}
			falloff := 1 - d/WallRepulsionRadius
			sum.X += (ddx / d) * falloff
			sum.Y += (ddy / d) * falloff
		}
	}
	return sum
}

// filterByClearance zeroes any avoidance component that points toward a
// cardinal neighbor cell that is not walkable (spec.md §4.H step 2's
// optional directional filter). There is no option to let avoidance push a
// mover into such a cell and fall: the filter applies whenever
// UseDirectionalAvoidance is set. Ramps and ladders count as clear since a
// push there is a legal transition, not a fall.
func (rt *Runtime) filterByClearance(m *Mover, avoid Vec2) Vec2 {
	cx, cy := m.CellX(), m.CellY()
	if avoid.X > 0 && !rt.Grid.IsWalkableAt(cx+1, cy, m.Z) {
		avoid.X = 0
	} else if avoid.X < 0 && !rt.Grid.IsWalkableAt(cx-1, cy, m.Z) {
		avoid.X = 0
	}
	if avoid.Y > 0 && !rt.Grid.IsWalkableAt(cx, cy+1, m.Z) {
		avoid.Y = 0
	} else if avoid.Y < 0 && !rt.Grid.IsWalkableAt(cx, cy-1, m.Z) {
		avoid.Y = 0
	}
	return avoid
}
