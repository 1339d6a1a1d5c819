// Package moverevents carries telemetry for the mover runtime: stuck/knot
// detection, repath scheduling, and z-transition failures.
package moverevents

import (
	"context"
	"time"

	"pathkeep/logging"
)

// EntityKindMover tags every moverevents Actor as a mover for sinks that
// render logging.EntityRef (console's formatEntity, json's actor field).
const EntityKindMover logging.EntityKind = "mover"

const (
	// EventStuck fires when a mover is flagged stuck and queued for repath.
	EventStuck logging.EventType = "mover.stuck"
	// EventKnotDetected fires when the knot heuristic trips on a mover.
	EventKnotDetected logging.EventType = "mover.knot_detected"
	// EventRepathDeferred fires when a mover needs a repath but the
	// per-tick repath budget is exhausted.
	EventRepathDeferred logging.EventType = "mover.repath_deferred"
	// EventTrapped fires when a mover stands on a non-walkable cell with no
	// walkable cardinal neighbor to be pushed to and nowhere to fall, and is
	// deactivated.
	EventTrapped logging.EventType = "mover.trapped"
	// EventRepathStats fires once per tick that ran at least one repath
	// query, summarizing the scheduler's throughput that tick.
	EventRepathStats logging.EventType = "mover.repath_stats"
)

// MoverRef identifies the mover an event is about.
type MoverRef struct {
	ID string `json:"id"`
}

// StuckPayload captures why a mover was judged stuck.
type StuckPayload struct {
	Mover           MoverRef `json:"mover"`
	TicksSinceMoved uint64   `json:"ticksSinceMoved"`
}

// Stuck publishes a debug event when a mover is flagged stuck.
func Stuck(ctx context.Context, pub logging.Publisher, tick uint64, payload StuckPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventStuck,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: "mover",
		Actor:    logging.EntityRef{ID: payload.Mover.ID, Kind: EntityKindMover},
		Payload:  payload,
	})
}

// KnotDetected publishes a debug event when the knot heuristic trips.
func KnotDetected(ctx context.Context, pub logging.Publisher, tick uint64, mover MoverRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventKnotDetected,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: "mover",
		Actor:    logging.EntityRef{ID: mover.ID, Kind: EntityKindMover},
		Payload:  mover,
	})
}

// RepathDeferredPayload records how many repaths were already spent this
// tick when a mover's request had to wait.
type RepathDeferredPayload struct {
	Mover         MoverRef `json:"mover"`
	BudgetSpent   int      `json:"budgetSpent"`
	BudgetPerTick int      `json:"budgetPerTick"`
}

// RepathDeferred publishes a debug event when the per-tick repath budget is
// exhausted.
func RepathDeferred(ctx context.Context, pub logging.Publisher, tick uint64, payload RepathDeferredPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRepathDeferred,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: "mover",
		Actor:    logging.EntityRef{ID: payload.Mover.ID, Kind: EntityKindMover},
		Payload:  payload,
	})
}

// RepathStatsPayload summarizes one tick's repath query throughput,
// mirroring the original's pathStatsCount/pathStatsAvgMs bucket.
type RepathStatsPayload struct {
	Count      int           `json:"count"`
	AvgLatency time.Duration `json:"avgLatency"`
}

// RepathStats publishes a debug event summarizing a tick's repath queries.
func RepathStats(ctx context.Context, pub logging.Publisher, tick uint64, payload RepathStatsPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRepathStats,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: "mover",
		Payload:  payload,
	})
}

// Trapped publishes a warning when a mover trapped in a non-walkable cell is
// deactivated.
func Trapped(ctx context.Context, pub logging.Publisher, tick uint64, mover MoverRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTrapped,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: "mover",
		Actor:    logging.EntityRef{ID: mover.ID, Kind: EntityKindMover},
		Payload:  mover,
	})
}
