package mover

import (
	"pathkeep/grid"
	"pathkeep/logging"
	"pathkeep/spatial"
)

// Options bundles the runtime flags spec.md §6 lists as "recognized runtime
// flags, each toggles one behavior". It is kept separate from any one
// mover so a host can flip behavior at runtime without touching mover
// state, matching the teacher's world.Config pattern of a small JSON-
// tagged struct with a Normalized() clamp method.
type Options struct {
	Use8Dir                 bool    `json:"use8Dir"`
	UseStringPulling         bool    `json:"useStringPulling"`
	UseMoverAvoidance        bool    `json:"useMoverAvoidance"`
	UseWallRepulsion         bool    `json:"useWallRepulsion"`
	WallRepulsionStrength    float64 `json:"wallRepulsionStrength"`
	UseWallSliding           bool    `json:"useWallSliding"`
	UseDirectionalAvoidance  bool    `json:"useDirectionalAvoidance"`
	AvoidStrengthOpen        float64 `json:"avoidStrengthOpen"`
	AvoidStrengthClosed      float64 `json:"avoidStrengthClosed"`
	UseKnotFix               bool    `json:"useKnotFix"`
	UseRandomizedCooldowns   bool    `json:"useRandomizedCooldowns"`
	UseStaggeredUpdates      bool    `json:"useStaggeredUpdates"`
	EndlessMoverMode         bool    `json:"endlessMoverMode"`
	PathAlgorithm            Algorithm `json:"moverPathAlgorithm"`
}

// DefaultOptions returns the spec.md defaults: every optional behavior on
// except randomized cooldowns and endless mover mode, HPA* as the default
// repath algorithm, moderate avoidance strengths.
func DefaultOptions() Options {
	return Options{
		Use8Dir:                true,
		UseStringPulling:        true,
		UseMoverAvoidance:       true,
		UseWallRepulsion:        true,
		WallRepulsionStrength:   1.0,
		UseWallSliding:          true,
		UseDirectionalAvoidance: true,
		AvoidStrengthOpen:       0.5,
		AvoidStrengthClosed:     1.5,
		UseKnotFix:              true,
		UseRandomizedCooldowns:  false,
		UseStaggeredUpdates:     true,
		EndlessMoverMode:        false,
		PathAlgorithm:           AlgoHPA,
	}
}

// Normalized clamps negative strengths to zero, matching the teacher's
// Config.normalized() pattern of defensive clamping on load.
func (o Options) Normalized() Options {
	n := o
	if n.WallRepulsionStrength < 0 {
		n.WallRepulsionStrength = 0
	}
	if n.AvoidStrengthOpen < 0 {
		n.AvoidStrengthOpen = 0
	}
	if n.AvoidStrengthClosed < 0 {
		n.AvoidStrengthClosed = 0
	}
	return n
}

// PathFinder resolves a path between two points using whatever algorithm
// the caller wants wired in; package mover never imports package hpa or
// package jps directly so it stays usable with any search strategy the
// host selects via Options.PathAlgorithm.
type PathFinder func(start, goal grid.Point, use8Dir bool) (Path, bool)

// GoalPicker returns a random walkable goal cell, used to reseed an
// endless-mode mover's goal once it arrives, or to reassign an unemployed
// mover whose goal cell stopped being walkable underneath it.
type GoalPicker func(z int) (grid.Point, bool)

// Notifier receives host-facing notifications: mover-trapped events and
// anything else spec.md §7 says to "notify via the host's message sink".
type Notifier interface {
	MoverTrapped(id string)
}

// Runtime owns the mover array and runs the fixed per-tick phase order from
// spec.md §4.H / §5: repath scheduling, LOS check, avoidance precompute,
// movement, stuck/knot detection. It is the mover-package half of the World aggregate; package
// world wires a Runtime together with the grid, spatial index, and
// pathfinder before driving its own tick loop.
type Runtime struct {
	Grid     *grid.World
	Options  Options
	FindPath PathFinder
	PickGoal GoalPicker
	Notify   Notifier

	// Pub receives stuck/knot/repath-deferred/trapped telemetry; nil drops
	// every event, matching logging.NopPublisher's contract.
	Pub logging.Publisher

	// Spatial backs the avoidance phase's neighbor queries (spec.md §4.H
	// step 2 / §4.G); nil disables neighbor repulsion (wall repulsion and
	// directional filtering still run) rather than falling back to an
	// unbounded scan over every mover.
	Spatial *spatial.Index

	movers []*Mover
	byID   map[string]int
}

// NewRuntime constructs an empty Runtime over w. findPath and pickGoal may
// be nil only if the caller never triggers a repath or endless-mode reseed.
func NewRuntime(w *grid.World, opts Options, findPath PathFinder, pickGoal GoalPicker, notify Notifier) *Runtime {
	return &Runtime{
		Grid:     w,
		Options:  opts.Normalized(),
		FindPath: findPath,
		PickGoal: pickGoal,
		Notify:   notify,
		byID:     make(map[string]int),
	}
}

// InitMover spawns a mover at (x, y, z) in pixel/floor space with the given
// goal cell and speed, computing its initial path immediately.
func (rt *Runtime) InitMover(id string, x, y float64, z int, goal grid.Point, speed float64) *Mover {
	m := NewMover(id)
	m.X, m.Y, m.Z = x, y, z
	m.lastX, m.lastY = x, y
	m.Speed = speed
	m.Goal = goal
	m.Active = true
	rt.addMover(m)
	rt.assignPath(m, goal)
	return m
}

// InitMoverWithPath spawns a mover with a precomputed path, skipping the
// initial find_path call — useful for tests and for replay/load paths that
// already know the route.
func (rt *Runtime) InitMoverWithPath(id string, x, y float64, z int, path Path) *Mover {
	m := NewMover(id)
	m.X, m.Y, m.Z = x, y, z
	m.lastX, m.lastY = x, y
	m.Active = true
	m.Path = path
	m.PathIndex = len(path.Points) - 1
	if len(path.Points) > 0 {
		m.Goal = path.Points[0]
	}
	rt.addMover(m)
	return m
}

func (rt *Runtime) addMover(m *Mover) {
	rt.byID[m.ID] = len(rt.movers)
	rt.movers = append(rt.movers, m)
}

// ClearMovers empties the runtime's mover array.
func (rt *Runtime) ClearMovers() {
	rt.movers = nil
	rt.byID = make(map[string]int)
}

// Movers returns the runtime's mover array for read-only access.
func (rt *Runtime) Movers() []*Mover { return rt.movers }

// Mover looks up a mover by ID.
func (rt *Runtime) Mover(id string) (*Mover, bool) {
	i, ok := rt.byID[id]
	if !ok {
		return nil, false
	}
	return rt.movers[i], true
}

func (rt *Runtime) assignPath(m *Mover, goal grid.Point) {
	if rt.FindPath == nil {
		return
	}
	start := grid.Point{X: m.CellX(), Y: m.CellY(), Z: m.Z}
	path, ok := rt.FindPath(start, goal, rt.Options.Use8Dir)
	if !ok {
		m.Path = Path{}
		m.PathIndex = 0
		m.NeedsRepath = true
		return
	}
	if rt.Options.UseStringPulling {
		path = stringPull(rt.Grid, path)
	}
	m.Path = path
	m.PathIndex = len(path.Points) - 1
	m.Goal = goal
	m.NeedsRepath = false
}

// Step runs exactly one tick's worth of the fixed phase order: repath
// scheduling, LOS check, avoidance precompute, movement, stuck/knot
// detection. Callers increment their own tick counter; Step does not mutate
// one.
func (rt *Runtime) Step(tick uint64, dt float64) {
	rt.ProcessRepaths(tick)
	rt.UpdateLOS(tick)
	rt.UpdateAvoidance(tick)
	for _, m := range rt.movers {
		if m.Active {
			rt.updateMovement(m, dt, tick)
		}
	}
	for _, m := range rt.movers {
		if m.Active {
			rt.updateStuck(m, tick)
		}
	}
}
