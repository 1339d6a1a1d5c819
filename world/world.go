// Package world wires the grid, hierarchical pathfinding, jump-point
// search, spatial index, and mover runtime together into one aggregate and
// drives its tick loop, grounded in the teacher's internal/world
// constructor/world.go pairing and hub.go's RunSimulation.
package world

import (
	"context"
	"time"

	"pathkeep/grid"
	"pathkeep/hpa"
	"pathkeep/jps"
	"pathkeep/logging"
	"pathkeep/logging/gridevents"
	"pathkeep/logging/hpaevents"
	"pathkeep/logging/simulation"
	"pathkeep/mover"
	"pathkeep/spatial"
)

// tickBudgetAlarmMinRatio and tickBudgetAlarmMinStreak decide when a tick
// budget overrun escalates from a warning into an alarm, matching the
// teacher's RunSimulation thresholds.
const (
	tickBudgetAlarmMinRatio  = 2.0
	tickBudgetAlarmMinStreak = 3
)

// Algorithm re-exports mover.Algorithm so callers configuring find_path
// don't need to import package mover directly.
type Algorithm = mover.Algorithm

const (
	AlgoAStar   = mover.AlgoAStar
	AlgoHPA     = mover.AlgoHPA
	AlgoJPS     = mover.AlgoJPS
	AlgoJPSPlus = mover.AlgoJPSPlus
)

// World is the pathing+movement runtime aggregate: it owns the grid, the
// HPA* abstract graph, per-floor JPS+ tables, the spatial index, and the
// mover runtime, and runs them through one fixed-order tick exactly as
// spec.md §5 describes: grid edits -> HPA* rebuild -> spatial rebuild ->
// repath scheduler -> mover update -> currentTick++.
type World struct {
	cfg Config
	pub logging.Publisher

	Grid    *grid.World
	Graph   *hpa.Graph
	Spatial *spatial.Index
	Movers  *mover.Runtime

	jpsTables map[int]*jps.JumpTable
	jpsFresh  map[int]bool

	currentTick uint64

	tickBudgetOverrunStreak  uint64
	tickBudgetAlarmTriggered bool
}

// New constructs a World from cfg, building the initial grid, abstract
// graph, and spatial index. pub may be nil (logging.NopPublisher is used).
func New(cfg Config, pub logging.Publisher) *World {
	cfg = cfg.Normalized()
	if pub == nil {
		pub = logging.NopPublisher{}
	}

	g := grid.NewWorld(cfg.Width, cfg.Height, cfg.Depth, cfg.ChunkW, cfg.ChunkH)

	w := &World{
		cfg:       cfg,
		pub:       pub,
		Grid:      g,
		Spatial:   spatial.NewIndex(0, 0, float64(cfg.Width)*mover.CellSize, float64(cfg.Height)*mover.CellSize, cfg.Depth, cfg.SpatialCellSize),
		jpsTables: make(map[int]*jps.JumpTable),
		jpsFresh:  make(map[int]bool),
	}
	w.Spatial.ScanCap = cfg.ScanCap
	w.Spatial.NeighborCap = cfg.NeighborCap

	w.rebuildGraph()

	w.Movers = mover.NewRuntime(g, cfg.Options, w.findPath, w.pickRandomWalkableGoal, nil)
	w.Movers.Pub = pub
	w.Movers.Spatial = w.Spatial
	return w
}

// BuildEntrances and BuildGraph expose spec.md §6's pathfinding API
// directly; most callers never need them since New and the tick loop call
// rebuildGraph automatically when Grid.NeedsRebuild is set.
func (w *World) BuildEntrances() []hpa.Entrance { return hpa.BuildEntrances(w.Grid) }
func (w *World) BuildGraph()                   { w.rebuildGraph() }

// UpdateDirtyChunks brings the abstract graph back in sync with every dirty
// chunk without a full rebuild, per spec.md §4.C/§4.E.
func (w *World) UpdateDirtyChunks() {
	start := time.Now()
	chunksAffected := w.countDirtyChunks()
	hpa.UpdateDirtyChunks(w.Grid, w.Graph, hpa.Options{Use8Dir: w.cfg.Use8Dir})
	w.Grid.ClearDirty()
	w.invalidateJPSTables()
	w.reportGraphOverflows()
	hpaevents.DirtyUpdate(context.Background(), w.pub, w.currentTick, hpaevents.DirtyUpdatePayload{
		ChunksAffected: chunksAffected,
		Duration:       time.Since(start),
	})
}

func (w *World) rebuildGraph() {
	start := time.Now()
	w.Graph = hpa.BuildGraph(w.Grid, hpa.Options{Use8Dir: w.cfg.Use8Dir})
	w.Grid.ClearDirty()
	w.invalidateJPSTables()
	w.reportGraphOverflows()
	hpaevents.GraphRebuilt(context.Background(), w.pub, w.currentTick, hpaevents.GraphRebuiltPayload{
		Entrances: len(w.Graph.Entrances),
		Edges:     len(w.Graph.Edges),
		Duration:  time.Since(start),
	})
}

// reportGraphOverflows scans the freshly built graph for the two conditions
// gridevents exists to surface: a chunk border run long enough that
// BuildEntrances had to split it into multiple entrances, and an entrance
// node sitting at hpa.MaxEdgesPerNode. Both are post-hoc observations over
// hpa's public Graph surface rather than hooks inside package hpa, so
// package hpa's API stays untouched by a debug-only concern.
func (w *World) reportGraphOverflows() {
	type borderKey struct {
		chunkA, chunkB, z int
	}
	runs := make(map[borderKey]int)
	for _, e := range w.Graph.Entrances {
		if e.ChunkA == e.ChunkB {
			continue // vertical-link entrance, not a border run
		}
		runs[borderKey{e.ChunkA, e.ChunkB, e.PointA.Z}]++
	}
	for k, segments := range runs {
		if segments <= 1 {
			continue
		}
		gridevents.EntranceOverflow(context.Background(), w.pub, w.currentTick, gridevents.EntranceOverflowPayload{
			ChunkA:   k.chunkA,
			ChunkB:   k.chunkB,
			Segments: segments,
		})
	}

	for i := range w.Graph.Entrances {
		if len(w.Graph.Neighbors(i)) >= hpa.MaxEdgesPerNode {
			gridevents.EdgeCapExceeded(context.Background(), w.pub, w.currentTick, gridevents.EdgeCapExceededPayload{
				EntranceIndex: i,
				Cap:           hpa.MaxEdgesPerNode,
			})
		}
	}
}

func (w *World) countDirtyChunks() int {
	cx, cy := w.Grid.ChunkCounts()
	count := 0
	for z := 0; z < w.Grid.Depth(); z++ {
		for y := 0; y < cy; y++ {
			for x := 0; x < cx; x++ {
				if w.Grid.ChunkDirty(x, y, z) {
					count++
				}
			}
		}
	}
	return count
}

func (w *World) invalidateJPSTables() {
	for z := range w.jpsFresh {
		w.jpsFresh[z] = false
	}
}

func (w *World) jpsTableFor(z int) *jps.JumpTable {
	if w.jpsFresh[z] {
		return w.jpsTables[z]
	}
	if !jps.Uniform(w.Grid) {
		delete(w.jpsTables, z)
		return nil
	}
	t := jps.PrecomputeJpsPlus(w.Grid, z)
	w.jpsTables[z] = t
	w.jpsFresh[z] = true
	return t
}

// ensureGraph rebuilds (incrementally or fully) whenever the grid reports
// edits since the last rebuild, matching spec.md §5's "rebuilt lazily at
// the start of any path query when hpaNeedsRebuild is set" rule.
func (w *World) ensureGraph() {
	if !w.Grid.NeedsRebuild {
		return
	}
	w.UpdateDirtyChunks()
}

// FindPath runs spec.md §6's find_path with the given algorithm, falling
// back from JPS/JPS+ to HPA* automatically when the floor's movement costs
// are non-uniform (ramps in play), since JPS's forced-neighbor rules are
// only valid under uniform cost.
func (w *World) FindPath(algo Algorithm, start, goal grid.Point) (mover.Path, bool) {
	w.ensureGraph()
	opts := hpa.Options{Use8Dir: w.cfg.Use8Dir}

	switch algo {
	case AlgoAStar:
		p, ok := hpa.AStar(w.Grid, start, goal, opts)
		return mover.Path{Points: p.Points, Cost: p.Cost}, ok
	case AlgoJPS:
		if !jps.Uniform(w.Grid) {
			return w.FindPath(AlgoHPA, start, goal)
		}
		p, ok := jps.FindPath(w.Grid, start, goal, w.cfg.Use8Dir)
		return mover.Path{Points: p.Points, Cost: p.Cost}, ok
	case AlgoJPSPlus:
		if start.Z != goal.Z {
			return w.findPath3D(start, goal)
		}
		jt := w.jpsTableFor(start.Z)
		if jt == nil {
			return w.FindPath(AlgoHPA, start, goal)
		}
		p, ok := jps.FindPathPlus(w.Grid, jt, start, goal, w.cfg.Use8Dir)
		return mover.Path{Points: p.Points, Cost: p.Cost}, ok
	default: // AlgoHPA
		opts.OnRefinementFailed = func(fromEntrance, toEntrance int) {
			hpaevents.RefinementFailed(context.Background(), w.pub, w.currentTick, hpaevents.RefinementFailedPayload{
				FromEntrance: fromEntrance,
				ToEntrance:   toEntrance,
			})
		}
		opts.OnStats = func(stats hpa.HPAStats) {
			hpaevents.PathTimed(context.Background(), w.pub, w.currentTick, hpaevents.PathTimedPayload{
				SameChunk:      stats.SameChunk,
				ChunkTime:      stats.ChunkTime,
				AbstractTime:   stats.AbstractTime,
				RefinementTime: stats.RefinementTime,
			})
		}
		p, ok := hpa.FindPathHPA(w.Grid, w.Graph, start, goal, opts)
		return mover.Path{Points: p.Points, Cost: p.Cost}, ok
	}
}

func (w *World) findPath3D(start, goal grid.Point) (mover.Path, bool) {
	lg := jps.BuildJpsLadderGraph(w.Grid, w.cfg.Use8Dir)
	p, ok := jps.FindPath3D(w.Grid, lg, w.jpsTableFor, start, goal, w.cfg.Use8Dir)
	if !ok {
		return w.FindPath(AlgoHPA, start, goal)
	}
	return mover.Path{Points: p.Points, Cost: p.Cost}, true
}

// findPath resolves the configured default algorithm; it is what
// mover.Runtime calls for initial paths and repaths.
func (w *World) findPath(start, goal grid.Point, use8Dir bool) (mover.Path, bool) {
	return w.FindPath(w.cfg.Options.PathAlgorithm, start, goal)
}

// IsCellWalkableAt and HasLineOfSight expose spec.md §6's query helpers.
func (w *World) IsCellWalkableAt(x, y, z int) bool { return w.Grid.IsWalkableAt(x, y, z) }
func (w *World) HasLineOfSight(x0, y0, x1, y1, z int) bool {
	return grid.LineOfSight(w.Grid, x0, y0, x1, y1, z)
}

// pickRandomWalkableGoal draws a random walkable cell on floor z from the
// mover-reseed subsystem RNG, used for endless-mode goal reseeding and for
// reassigning a mover whose stale goal cell stopped being walkable.
func (w *World) pickRandomWalkableGoal(z int) (grid.Point, bool) {
	rng := w.SubsystemRNG("mover.reseed")
	const attempts = 32
	for i := 0; i < attempts; i++ {
		x := rng.Intn(w.Grid.Width())
		y := rng.Intn(w.Grid.Height())
		if w.Grid.IsWalkableAt(x, y, z) {
			return grid.Point{X: x, Y: y, Z: z}, true
		}
	}
	return grid.Point{}, false
}

// rebuildSpatialIndex rebuilds the uniform-grid spatial index from every
// active mover's current position, per spec.md §4.G's once-per-tick rule.
func (w *World) rebuildSpatialIndex() {
	movers := w.Movers.Movers()
	positions := make([]spatial.Point, 0, len(movers))
	ids := make([]int32, 0, len(movers))
	for i, m := range movers {
		if !m.Active {
			continue
		}
		positions = append(positions, spatial.Point{X: m.X, Y: m.Y, Z: m.Z})
		ids = append(ids, int32(i))
	}
	w.Spatial.Rebuild(positions, ids)
}

// Tick runs one fixed timestep at cfg.TickRate, per spec.md §5's
// TICK_DT = 1/TICK_RATE.
func (w *World) Tick() {
	w.TickWithDT(1.0 / float64(w.cfg.TickRate))
}

// TickWithDT runs one tick with an explicit delta time, for variable-
// timestep hosts (spec.md §6's tick_with_dt).
func (w *World) TickWithDT(dt float64) {
	w.ensureGraph()
	w.rebuildSpatialIndex()
	w.Movers.Step(w.currentTick, dt)
	w.currentTick++
}

// RunTicks is a test convenience running n fixed ticks back to back.
func (w *World) RunTicks(n int) {
	for i := 0; i < n; i++ {
		w.Tick()
	}
}

// CurrentTick reports the number of ticks run so far.
func (w *World) CurrentTick() uint64 { return w.currentTick }

// TickInterval reports the wall-clock duration of one fixed tick at the
// configured tick rate, for hosts driving their own ticker loop.
func (w *World) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / float64(w.cfg.TickRate))
}

// Step is the variable-dt entry point a host driving its own wall-clock
// loop calls once per frame, grounded in the teacher's hub.go
// RunSimulation dt-clamping convention.
func (w *World) Step(now, last time.Time) time.Duration {
	dt := now.Sub(last).Seconds()
	budget := 1.0 / float64(w.cfg.TickRate)
	clamped := false
	if dt <= 0 {
		dt = budget
	} else if dt > budget*4 {
		dt = budget * 4
		clamped = true
	}

	tickStart := time.Now()
	w.TickWithDT(dt)
	duration := time.Since(tickStart)

	w.reportTickBudget(duration, time.Duration(budget*float64(time.Second)), dt, clamped)
	return time.Duration(dt * float64(time.Second))
}

// reportTickBudget mirrors the teacher's RunSimulation overrun/alarm
// escalation: a tick whose wall-clock duration exceeds its budget publishes
// a warning every time, and escalates to an error once the overrun ratio or
// streak crosses the alarm thresholds (latched so it fires once per
// sustained episode, not every single tick).
func (w *World) reportTickBudget(duration, tickBudget time.Duration, dt float64, clamped bool) {
	if tickBudget <= 0 || duration <= tickBudget {
		w.tickBudgetOverrunStreak = 0
		w.tickBudgetAlarmTriggered = false
		return
	}

	ratio := float64(duration) / float64(tickBudget)
	w.tickBudgetOverrunStreak++
	streak := w.tickBudgetOverrunStreak

	simulation.TickBudgetOverrun(context.Background(), w.pub, w.currentTick, simulation.TickBudgetOverrunPayload{
		DurationMillis: duration.Milliseconds(),
		BudgetMillis:   tickBudget.Milliseconds(),
		Ratio:          ratio,
		Streak:         streak,
	}, map[string]any{"dtSeconds": dt, "clamped": clamped})

	if (ratio >= tickBudgetAlarmMinRatio || streak >= tickBudgetAlarmMinStreak) && !w.tickBudgetAlarmTriggered {
		w.tickBudgetAlarmTriggered = true
		simulation.TickBudgetAlarm(context.Background(), w.pub, w.currentTick, simulation.TickBudgetAlarmPayload{
			DurationMillis:  duration.Milliseconds(),
			BudgetMillis:    tickBudget.Milliseconds(),
			Ratio:           ratio,
			Streak:          streak,
			ResyncScheduled: false,
			ThresholdRatio:  tickBudgetAlarmMinRatio,
			ThresholdStreak: tickBudgetAlarmMinStreak,
		}, nil)
	}
}

// OnLoad brings the aggregate back into a consistent state after the host
// restores a saved grid: rebuild the spatial index, flag the abstract
// graph for rebuild, and discard transient per-mover path state that could
// be inconsistent with the loaded grid, per spec.md §6's persisted-state
// contract.
func (w *World) OnLoad() {
	w.Grid.NeedsRebuild = true
	w.invalidateJPSTables()
	for _, m := range w.Movers.Movers() {
		m.NeedsRepath = true
	}
	w.rebuildSpatialIndex()
}
