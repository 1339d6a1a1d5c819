// Package hpaevents carries telemetry for the HPA* abstract graph
// lifecycle: rebuilds, incremental updates, and refinement failures.
package hpaevents

import (
	"context"
	"time"

	"pathkeep/logging"
)

const (
	// EventGraphRebuilt fires whenever BuildGraph runs a full rebuild.
	EventGraphRebuilt logging.EventType = "hpa.graph_rebuilt"
	// EventDirtyUpdate fires after UpdateDirtyChunks brings the graph back
	// in sync with a set of edited chunks.
	EventDirtyUpdate logging.EventType = "hpa.dirty_update"
	// EventRefinementFailed fires when the hierarchical search found an
	// abstract path but refinement back into real cells failed.
	EventRefinementFailed logging.EventType = "hpa.refinement_failed"
	// EventPathTimed fires once per FindPathHPA query with its phase
	// timing, matching the original's hpaAbstractTime/hpaRefinementTime
	// buckets.
	EventPathTimed logging.EventType = "hpa.path_timed"
)

// GraphRebuiltPayload summarizes a full graph rebuild.
type GraphRebuiltPayload struct {
	Entrances int           `json:"entrances"`
	Edges     int           `json:"edges"`
	Duration  time.Duration `json:"duration"`
}

// GraphRebuilt publishes an info event after a full BuildGraph pass.
func GraphRebuilt(ctx context.Context, pub logging.Publisher, tick uint64, payload GraphRebuiltPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventGraphRebuilt,
		Tick:     tick,
		Severity: logging.SeverityInfo,
		Category: "hpa",
		Payload:  payload,
	})
}

// DirtyUpdatePayload summarizes an incremental graph update.
type DirtyUpdatePayload struct {
	ChunksAffected int           `json:"chunksAffected"`
	Duration       time.Duration `json:"duration"`
}

// DirtyUpdate publishes a debug event after UpdateDirtyChunks runs.
func DirtyUpdate(ctx context.Context, pub logging.Publisher, tick uint64, payload DirtyUpdatePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDirtyUpdate,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: "hpa",
		Payload:  payload,
	})
}

// RefinementFailedPayload captures the abstract node pair refinement could
// not resolve into a real path (spec.md's Open Question: HPA* refinement
// failure has no fallback here — the query simply fails, and this event is
// the only record of why).
type RefinementFailedPayload struct {
	FromEntrance int `json:"fromEntrance"`
	ToEntrance   int `json:"toEntrance"`
}

// RefinementFailed publishes a warning when refinement fails.
func RefinementFailed(ctx context.Context, pub logging.Publisher, tick uint64, payload RefinementFailedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRefinementFailed,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: "hpa",
		Payload:  payload,
	})
}

// PathTimedPayload reports how long one FindPathHPA query spent in each
// phase, mirroring hpa.HPAStats.
type PathTimedPayload struct {
	SameChunk      bool          `json:"sameChunk"`
	ChunkTime      time.Duration `json:"chunkTime"`
	AbstractTime   time.Duration `json:"abstractTime"`
	RefinementTime time.Duration `json:"refinementTime"`
}

// PathTimed publishes a debug event with one query's phase timing.
func PathTimed(ctx context.Context, pub logging.Publisher, tick uint64, payload PathTimedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPathTimed,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: "hpa",
		Payload:  payload,
	})
}
