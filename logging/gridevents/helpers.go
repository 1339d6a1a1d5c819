// Package gridevents defines the telemetry events package grid and package
// hpa publish through a logging.Publisher, following the same
// EventType-constant-plus-payload-struct-plus-helper-function shape as the
// teacher's logging/simulation helpers.
package gridevents

import (
	"context"

	"pathkeep/logging"
)

const (
	// EventEntranceOverflow fires when a chunk border run is segmented
	// because it exceeds grid.MaxEntranceWidth.
	EventEntranceOverflow logging.EventType = "grid.entrance_overflow"
	// EventEdgeCapExceeded fires when an entrance node would exceed
	// hpa.MaxEdgesPerNode and an edge is dropped instead of added.
	EventEdgeCapExceeded logging.EventType = "grid.edge_cap_exceeded"
)

// EntranceOverflowPayload captures the chunk border run that had to be split.
type EntranceOverflowPayload struct {
	ChunkA         int `json:"chunkA"`
	ChunkB         int `json:"chunkB"`
	RunLength      int `json:"runLength"`
	Segments       int `json:"segments"`
}

// EntranceOverflow publishes a debug event when a border run is segmented.
func EntranceOverflow(ctx context.Context, pub logging.Publisher, tick uint64, payload EntranceOverflowPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEntranceOverflow,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: "grid",
		Payload:  payload,
	})
}

// EdgeCapExceededPayload captures the entrance node that hit the per-node
// edge cap.
type EdgeCapExceededPayload struct {
	EntranceIndex int `json:"entranceIndex"`
	Cap           int `json:"cap"`
}

// EdgeCapExceeded publishes a warning when an abstract graph node can't take
// any more edges.
func EdgeCapExceeded(ctx context.Context, pub logging.Publisher, tick uint64, payload EdgeCapExceededPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEdgeCapExceeded,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: "grid",
		Payload:  payload,
	})
}
