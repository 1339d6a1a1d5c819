package mover

import (
	"context"
	"math"

	"pathkeep/grid"
	"pathkeep/logging/moverevents"
)

// updateMovement runs spec.md §4.H step 3 for one mover: resolve standing on
// a non-walkable cell (ramp transition, push, fall, or deactivate), then
// integrate velocity toward the current waypoint, apply wall sliding, and
// handle arrival/z-transition.
func (rt *Runtime) updateMovement(m *Mover, dt float64, tick uint64) {
	if !rt.Grid.IsWalkableAt(m.CellX(), m.CellY(), m.Z) {
		rt.resolveNonWalkable(m, tick)
		if !m.Active {
			return
		}
	}

	target, ok := m.AtWaypoint()
	if !ok {
		return
	}

	tx, ty := cellCenter(target.X, target.Y)
	dx, dy := tx-m.X, ty-m.Y
	dist := math.Hypot(dx, dy)

	limit := ArriveRadius
	if rt.Options.UseKnotFix && m.PathIndex > 0 {
		limit = KnotArriveRadius
	}

	if dist <= limit {
		x0, y0, z0 := m.X, m.Y, m.Z
		rt.arrive(m, target)
		// Inside the knot fix's enlarged radius but outside ArriveRadius the
		// mover keeps its position instead of snapping to the waypoint center.
		if dist > ArriveRadius && target.Z == z0 && m.Z == z0 {
			m.X, m.Y = x0, y0
		}
		return
	}

	cost := grid.MoveCost(rt.Grid.At(m.CellX(), m.CellY(), m.Z))
	speedScale := 1.0
	if cost > 0 && cost < grid.CostInf {
		speedScale = float64(grid.CostStraight) / float64(cost)
	}

	vx := (dx / dist) * m.Speed * speedScale
	vy := (dy / dist) * m.Speed * speedScale
	vx += m.avoid.X
	vy += m.avoid.Y

	nx := m.X + vx*dt
	ny := m.Y + vy*dt

	if !rt.Grid.IsWalkableAt(int(nx/CellSize), int(ny/CellSize), m.Z) {
		if rt.Options.UseWallSliding {
			nx, ny = rt.slide(m, vx, vy, dt)
		} else {
			nx, ny = m.X, m.Y
		}
	}

	// Ordinary movement never snaps; only an arrival within ArriveRadius
	// above snaps the mover to the waypoint center.
	m.X, m.Y = nx, ny
}

// resolveNonWalkable handles a mover standing on a cell that is no longer
// walkable (terrain edit, or the tail end of a ramp/ladder step): try a
// ramp-mediated z-transition, else push to an adjacent walkable cell, else
// fall, else deactivate per spec.md §7's "mover trapped in wall" handling.
func (rt *Runtime) resolveNonWalkable(m *Mover, tick uint64) {
	cx, cy := m.CellX(), m.CellY()
	k := rt.Grid.At(cx, cy, m.Z)
	if grid.IsRamp(k) {
		dx, dy := grid.RampHighSideOffset(k)
		if rt.Grid.IsWalkableAt(cx+dx, cy+dy, m.Z+1) {
			m.Z++
			return
		}
	}

	offsets := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for _, o := range offsets {
		nx, ny := cx+o[0], cy+o[1]
		if rt.Grid.IsWalkableAt(nx, ny, m.Z) {
			px, py := cellCenter(nx, ny)
			m.X, m.Y = px, py
			return
		}
	}

	if rt.fall(m) {
		return
	}

	m.Active = false
	moverevents.Trapped(context.Background(), rt.Pub, tick, moverevents.MoverRef{ID: m.ID})
	if rt.Notify != nil {
		rt.Notify.MoverTrapped(m.ID)
	}
}

// fall searches downward from the mover's column for a walkable landing
// cell, preferring the mover's own column and falling back to its four
// cardinal neighbors (a landing adjusted for ledges), per spec.md §4.H
// step 3.a.
func (rt *Runtime) fall(m *Mover) bool {
	cx, cy := m.CellX(), m.CellY()
	candidates := [][2]int{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for _, c := range candidates {
		nx, ny := cx+c[0], cy+c[1]
		for z := m.Z - 1; z >= 0; z-- {
			if rt.Grid.IsWalkableAt(nx, ny, z) {
				px, py := cellCenter(nx, ny)
				m.X, m.Y, m.Z = px, py, z
				return true
			}
		}
	}
	return false
}

// slide applies spec.md §4.H step 3.b's wall-sliding fallback: try moving
// along X only and Y only, and pick whichever lands on a walkable cell and
// is more aligned with the intended velocity.
func (rt *Runtime) slide(m *Mover, vx, vy, dt float64) (float64, float64) {
	xOnlyX, xOnlyY := m.X+vx*dt, m.Y
	yOnlyX, yOnlyY := m.X, m.Y+vy*dt

	xOK := rt.Grid.IsWalkableAt(int(xOnlyX/CellSize), int(xOnlyY/CellSize), m.Z)
	yOK := rt.Grid.IsWalkableAt(int(yOnlyX/CellSize), int(yOnlyY/CellSize), m.Z)

	switch {
	case xOK && yOK:
		// Both projections are legal; prefer whichever's direction carries
		// more of the original velocity vector.
		if math.Abs(vx) >= math.Abs(vy) {
			return xOnlyX, xOnlyY
		}
		return yOnlyX, yOnlyY
	case xOK:
		return xOnlyX, xOnlyY
	case yOK:
		return yOnlyX, yOnlyY
	default:
		return m.X, m.Y
	}
}

// arrive handles reaching a waypoint: validates any z-change, advances
// PathIndex, and either advances further or finishes the path.
func (rt *Runtime) arrive(m *Mover, target grid.Point) {
	if target.Z != m.Z {
		if !isValidZTransition(rt.Grid, m.CellX(), m.CellY(), m.Z, target.X, target.Y, target.Z) {
			// Illegal transition (shouldn't happen for a path this package
			// built, but a stale path after a terrain edit could produce
			// one): treat like a lost LOS rather than teleporting.
			m.NeedsRepath = true
			return
		}
		m.Z = target.Z
	}
	px, py := cellCenter(target.X, target.Y)
	m.X, m.Y = px, py
	m.PathIndex--
	m.timeNearWaypoint = 0

	if m.PathIndex < 0 {
		rt.finishPath(m)
	}
}

// finishPath clears a mover's path on arrival at the goal, then either
// reseeds a random goal (endless mode) or deactivates it.
func (rt *Runtime) finishPath(m *Mover) {
	m.Path = Path{}
	m.PathIndex = 0
	m.NeedsRepath = false

	if !m.EndlessMode {
		m.Active = false
		return
	}
	if rt.PickGoal == nil {
		m.Active = false
		return
	}
	goal, ok := rt.PickGoal(m.Z)
	if !ok {
		m.Active = false
		return
	}
	rt.assignPath(m, goal)
}

// isValidZTransition reports whether stepping from (fx, fy, fz) to
// (tx, ty, tz) is a legal ladder or ramp transition: a shared (x, y)
// ladder column one z apart, or a ramp whose high-side offset leads to the
// target (ascending), or the target cell being a ramp the mover descends
// onto (the low side one z below, adjacent in (x, y)).
func isValidZTransition(w *grid.World, fx, fy, fz, tx, ty, tz int) bool {
	if abs(tz-fz) != 1 {
		return false
	}
	if fx == tx && fy == ty {
		return grid.IsLadder(w.At(fx, fy, fz)) && grid.IsLadder(w.At(tx, ty, tz))
	}
	if tz == fz+1 {
		k := w.At(fx, fy, fz)
		if grid.IsRamp(k) {
			dx, dy := grid.RampHighSideOffset(k)
			return fx+dx == tx && fy+dy == ty
		}
		return false
	}
	// Descending onto a ramp: the target cell's ramp high side must point
	// back at the mover's current cell.
	k := w.At(tx, ty, tz)
	if grid.IsRamp(k) {
		dx, dy := grid.RampHighSideOffset(k)
		return tx+dx == fx && ty+dy == fy
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
