package world

import (
	"strings"

	"pathkeep/mover"
)

const (
	DefaultSeed       = "pathkeep"
	DefaultWidth      = 128
	DefaultHeight     = 128
	DefaultDepth      = 1
	DefaultCellSize   = 4.0
	DefaultTickRate   = 60
)

// Config is the runtime-flag bundle spec.md §6 describes, generalizing the
// teacher's internal/world/config.go Config/normalized()/DefaultConfig
// trio: a flat JSON-tagged struct with a Normalized() clamp method and a
// package-level default constructor, now covering the mover behaviors of
// spec.md §6 (embedded via mover.Options) plus the world-level settings the
// teacher's Config holds (seed, dimensions).
type Config struct {
	Seed   string `json:"seed"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Depth  int    `json:"depth"`
	ChunkW int    `json:"chunkW"`
	ChunkH int    `json:"chunkH"`

	SpatialCellSize float64 `json:"spatialCellSize"`
	ScanCap         int     `json:"scanCap"`
	NeighborCap     int     `json:"neighborCap"`

	TickRate int `json:"tickRate"`

	mover.Options
}

func (cfg Config) normalized() Config {
	n := cfg
	n.Seed = strings.TrimSpace(n.Seed)
	if n.Seed == "" {
		n.Seed = DefaultSeed
	}
	if n.Width <= 0 {
		n.Width = DefaultWidth
	}
	if n.Height <= 0 {
		n.Height = DefaultHeight
	}
	if n.Depth <= 0 {
		n.Depth = DefaultDepth
	}
	if n.SpatialCellSize <= 0 {
		n.SpatialCellSize = DefaultCellSize
	}
	if n.ScanCap <= 0 {
		n.ScanCap = 256
	}
	if n.NeighborCap <= 0 {
		n.NeighborCap = 16
	}
	if n.TickRate <= 0 {
		n.TickRate = DefaultTickRate
	}
	n.Options = n.Options.Normalized()
	return n
}

// Normalized returns cfg with every field clamped/defaulted, matching the
// teacher's Config.Normalized() contract.
func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

// DefaultConfig returns the spec.md-recommended defaults.
func DefaultConfig() Config {
	return Config{
		Seed:            DefaultSeed,
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		Depth:           DefaultDepth,
		SpatialCellSize: DefaultCellSize,
		ScanCap:         256,
		NeighborCap:     16,
		TickRate:        DefaultTickRate,
		Options:         mover.DefaultOptions(),
	}
}
