package mover

import (
	"context"

	"pathkeep/logging/moverevents"
)

// KnotTicks is how many ticks without progress, counted since the mover last
// reached a waypoint, pass before the knot heuristic reports it, distinct
// from StuckRepathTicks
// (which triggers a repath): a mover can be legitimately circling a single
// waypoint under UseKnotFix's enlarged arrival radius without needing a new
// route, so knot detection is telemetry-only.
const KnotTicks = StuckRepathTicks * 3 / 2

// updateStuck runs spec.md §4.H step 4: if a mover's squared progress this
// tick falls below StuckMinDistanceSq, accumulate timeWithoutProgress; once
// it passes StuckRepathTicks, flag a repath. "Time near waypoint" is
// tracked independently: it is reset only on arrival at a waypoint, not by
// ordinary progress, and feeds only the KnotDetected event; the movement
// phase's knot-fix arrival radius does not depend on it.
func (rt *Runtime) updateStuck(m *Mover, tick uint64) {
	dx, dy := m.X-m.lastX, m.Y-m.lastY
	progressSq := dx*dx + dy*dy

	if progressSq < StuckMinDistanceSq {
		m.timeWithoutProgress++
		m.timeNearWaypoint++
		if m.timeWithoutProgress >= StuckRepathTicks {
			if !m.NeedsRepath {
				moverevents.Stuck(context.Background(), rt.Pub, tick, moverevents.StuckPayload{
					Mover:           moverevents.MoverRef{ID: m.ID},
					TicksSinceMoved: uint64(m.timeWithoutProgress),
				})
			}
			m.NeedsRepath = true
			m.stuckTicks++
			m.timeWithoutProgress = 0
		}
		if rt.Options.UseKnotFix && m.timeNearWaypoint == KnotTicks {
			moverevents.KnotDetected(context.Background(), rt.Pub, tick, moverevents.MoverRef{ID: m.ID})
		}
	} else {
		m.timeWithoutProgress = 0
	}

	m.lastX, m.lastY = m.X, m.Y
}
