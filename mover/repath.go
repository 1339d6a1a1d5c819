package mover

import (
	"context"
	"time"

	"pathkeep/grid"
	"pathkeep/logging/moverevents"
)

// ProcessRepaths runs spec.md §4.I: process up to MaxRepathsPerFrame movers
// whose NeedsRepath is set and RepathCooldown has reached zero, in mover-
// array order. Movers not selected this tick have their cooldown counted
// down (if already set) but are otherwise left untouched.
func (rt *Runtime) ProcessRepaths(tick uint64) {
	spent := 0
	var totalLatency time.Duration
	for _, m := range rt.movers {
		if !m.Active {
			continue
		}
		if m.RepathCooldown > 0 {
			m.RepathCooldown--
			continue
		}
		if !m.NeedsRepath {
			continue
		}
		if spent >= MaxRepathsPerFrame {
			// Deferred: cooldown stays at zero so it's retried next tick
			// once budget frees up, per spec.md's "all others are deferred"
			// rule — no double-counted cooldown for a query we never ran.
			moverevents.RepathDeferred(context.Background(), rt.Pub, tick, moverevents.RepathDeferredPayload{
				Mover:         moverevents.MoverRef{ID: m.ID},
				BudgetSpent:   spent,
				BudgetPerTick: MaxRepathsPerFrame,
			})
			continue
		}
		start := time.Now()
		rt.repathOne(m, tick)
		totalLatency += time.Since(start)
		spent++
	}
	if spent > 0 {
		moverevents.RepathStats(context.Background(), rt.Pub, tick, moverevents.RepathStatsPayload{
			Count:      spent,
			AvgLatency: totalLatency / time.Duration(spent),
		})
	}
}

func (rt *Runtime) repathOne(m *Mover, tick uint64) {
	goal := m.Goal
	var ok bool
	var path Path
	if rt.FindPath != nil {
		start := grid.Point{X: m.CellX(), Y: m.CellY(), Z: m.Z}
		path, ok = rt.FindPath(start, goal, rt.Options.Use8Dir)
	}

	if !ok || len(path.Points) == 0 {
		if !rt.Grid.IsWalkableAt(goal.X, goal.Y, goal.Z) && !m.HasJob && rt.PickGoal != nil {
			if newGoal, ok := rt.PickGoal(m.Z); ok {
				m.Goal = newGoal
			}
		}
		m.RepathCooldown = rt.cooldown(tick, true)
		return
	}

	if rt.Options.UseStringPulling {
		path = stringPull(rt.Grid, path)
	}

	m.Path = path
	m.PathIndex = len(path.Points) - 1
	m.NeedsRepath = false
	m.RepathCooldown = rt.cooldown(tick, false)
	m.timeWithoutProgress = 0
}

func (rt *Runtime) cooldown(tick uint64, failed bool) int {
	base := RepathCooldownFrames
	if failed {
		base *= 2
	}
	if !rt.Options.UseRandomizedCooldowns {
		return base
	}
	// Deterministic jitter in [TickRate, 2*TickRate) keyed off tick and the
	// base cooldown, avoiding a global math/rand source so replays stay
	// reproducible without plumbing an RNG through every call site.
	span := TickRate
	jitter := int((tick*2654435761 + uint64(base)) % uint64(span))
	return TickRate + jitter
}

// stringPull implements spec.md §4.I's string_pull_path: greedily shortcut
// from the end of the path to the farthest earlier waypoint whose straight
// line is walkable and whose cost is within 10% of the path segment it
// replaces, never shortcutting across a z-change.
func stringPull(w *grid.World, path Path) Path {
	pts := path.Points
	if len(pts) < 3 {
		return path
	}

	pulled := []grid.Point{pts[0]}
	i := 0
	for i < len(pts)-1 {
		best := i + 1
		for j := i + 2; j < len(pts); j++ {
			if pts[j].Z != pts[i].Z {
				break
			}
			if !grid.LineOfSight(w, pts[i].X, pts[i].Y, pts[j].X, pts[j].Y, pts[i].Z) {
				break
			}
			straight := straightLineCost(pts[i], pts[j])
			original := segmentCost(pts, i, j)
			if straight > (original*StringPullToleranceNum)/StringPullToleranceDen {
				break
			}
			best = j
		}
		pulled = append(pulled, pts[best])
		i = best
	}

	return Path{Points: pulled, Cost: path.Cost}
}

func segmentCost(pts []grid.Point, from, to int) int {
	cost := 0
	for i := from; i < to; i++ {
		cost += stepCost(pts[i], pts[i+1])
	}
	return cost
}

func stepCost(a, b grid.Point) int {
	dx, dy := abs(a.X-b.X), abs(a.Y-b.Y)
	if dx > 0 && dy > 0 {
		return grid.CostDiagonal
	}
	return grid.CostStraight
}

func straightLineCost(a, b grid.Point) int {
	dx, dy := abs(a.X-b.X), abs(a.Y-b.Y)
	lo, hi := dx, dy
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo*grid.CostDiagonal + (hi-lo)*grid.CostStraight
}
