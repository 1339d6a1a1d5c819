// Package mover implements the per-tick mover runtime: path following, local
// avoidance, wall sliding, stuck/knot detection, z-transitions, and the
// repath scheduler. Grounded in the teacher's internal/world/npc_path.go
// FollowNPCPath/RecalculateNPCPath stall-and-recalc loop, generalized from
// 2D pixel-space single-floor movement to 3D tile-space movement with
// line-of-sight, avoidance, and ladder/ramp transitions drawn from
// original_source/pathing/mover.c.
package mover

import "pathkeep/grid"

// CellSize is the pixel edge length of one grid cell. Movers live in
// continuous pixel space; path waypoints are cell centers scaled by this.
const CellSize = 16.0

// Tuning constants, named directly after spec.md's ALL_CAPS runtime
// constants so the mapping from spec to code stays obvious.
const (
	DefaultSpeed           = 2.0 * CellSize // cells/sec * CellSize
	ArriveRadius           = CellSize * 0.3
	KnotArriveRadius       = CellSize * 0.6
	StuckMinDistance       = 0.5
	StuckMinDistanceSq     = StuckMinDistance * StuckMinDistance
	StuckRepathTicks       = 30
	MoverAvoidRadius       = CellSize * 1.5
	WallRepulsionRadius    = CellSize
	MaxRepathsPerFrame     = 10
	RepathCooldownFrames   = 30
	TickRate               = 60
	StringPullToleranceNum = 11 // 10% tolerance expressed as 11/10
	StringPullToleranceDen = 10
)

// Algorithm selects which pathfinder the repath scheduler uses by default.
type Algorithm int

const (
	AlgoAStar Algorithm = iota
	AlgoHPA
	AlgoJPS
	AlgoJPSPlus
)

// Path is a goal-to-start sequence of waypoints, matching the convention
// package hpa and package jps already use: Points[0] is the goal,
// Points[len-1] is the start. A Mover's own Path field keeps this shape so
// PathIndex can start at len-1 (the first waypoint to walk toward, nearest
// the mover) and count down to 0 (the goal) exactly as spec.md's
// "pathIndex = pathLength - 1" convention describes.
type Path struct {
	Points []grid.Point
	Cost   int
}

// Vec2 is a 2D pixel-space direction or offset.
type Vec2 struct{ X, Y float64 }

// Mover is a single agent. The runtime (Runtime) owns the mover array;
// external code may read freely but must mutate only through Runtime's
// exported operations, per spec.md's shared-resource policy.
type Mover struct {
	ID string

	X, Y float64
	Z    int

	Goal grid.Point
	Path Path

	// PathIndex counts down from len(Path.Points)-1 to 0 as the mover
	// advances; Path.Points[PathIndex] is the next waypoint to walk toward.
	PathIndex int

	NeedsRepath    bool
	RepathCooldown int

	Speed float64
	Active bool

	// EndlessMode re-seeds a random goal instead of deactivating once the
	// mover arrives, per spec.md's endless_mover_mode flag.
	EndlessMode bool
	HasJob      bool

	// Scratch state private to the runtime's per-phase updates.
	lastX, lastY        float64
	timeWithoutProgress int
	timeNearWaypoint    int
	avoid               Vec2
	fallTimer           int
	stuckTicks          uint8
}

// NewMover constructs an inactive mover; call Runtime.InitMover (or
// InitMoverWithPath) to spawn it into the runtime's array.
func NewMover(id string) *Mover {
	return &Mover{ID: id, Speed: DefaultSpeed}
}

// AtWaypoint reports whether the mover has a path and has not yet exhausted
// it — i.e. PathIndex still addresses a real waypoint.
func (m *Mover) AtWaypoint() (grid.Point, bool) {
	if len(m.Path.Points) == 0 || m.PathIndex < 0 || m.PathIndex >= len(m.Path.Points) {
		return grid.Point{}, false
	}
	return m.Path.Points[m.PathIndex], true
}

// CellX, CellY, and CellZ report the integer cell the mover currently
// occupies.
func (m *Mover) CellX() int { return int(m.X / CellSize) }
func (m *Mover) CellY() int { return int(m.Y / CellSize) }
func (m *Mover) CellZ() int { return m.Z }

// cellCenter returns the pixel-space center of cell (x, y).
func cellCenter(x, y int) (float64, float64) {
	return (float64(x) + 0.5) * CellSize, (float64(y) + 0.5) * CellSize
}
