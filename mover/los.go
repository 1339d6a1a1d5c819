package mover

import "pathkeep/grid"

// hasLineOfSight implements spec.md §4.H step 1's lenient LOS check: the
// strict Bresenham test from the mover's current cell, OR from any of its
// four cardinal neighbors, succeeding is enough — this prevents a mover
// standing right against its own corner from flip-flopping into a spurious
// repath every tick.
func hasLineOfSight(w *grid.World, x, y, z, tx, ty int) bool {
	if grid.LineOfSight(w, x, y, tx, ty, z) {
		return true
	}
	offsets := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for _, o := range offsets {
		nx, ny := x+o[0], y+o[1]
		if !w.IsWalkableAt(nx, ny, z) {
			continue
		}
		if grid.LineOfSight(w, nx, ny, tx, ty, z) {
			return true
		}
	}
	return false
}

// UpdateLOS runs the LOS-check phase for every mover due this tick (per
// staggering) and sets NeedsRepath on any whose sightline to its current
// waypoint has been broken, as long as the waypoint is on the same floor —
// z-changing waypoints are reached via ladder/ramp transition, not LOS.
func (rt *Runtime) UpdateLOS(tick uint64) {
	for i, m := range rt.movers {
		if !m.Active || len(m.Path.Points) == 0 {
			continue
		}
		if rt.Options.UseStaggeredUpdates && (uint64(i)+tick)%3 != 0 {
			continue
		}
		target, ok := m.AtWaypoint()
		if !ok || target.Z != m.Z {
			continue
		}
		if !hasLineOfSight(rt.Grid, m.CellX(), m.CellY(), m.Z, target.X, target.Y) {
			m.NeedsRepath = true
		}
	}
}
