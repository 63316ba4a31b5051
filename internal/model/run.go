// Package model holds the records kept in the run catalog.
package model

import (
	"encoding/json"
	"time"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
	"github.com/samlevin11/TopographicPositionIndex/internal/rasterio"
)

// RunKind names the product a run computes.
type RunKind string

const (
	RunKindTPI           RunKind = "tpi"
	RunKindSlopePosition RunKind = "slope_position"
	RunKindLandform      RunKind = "landform"
)

// RunStatus represents the current state of a run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of a terrain product.
type Run struct {
	ID        string          `json:"id"`
	Kind      RunKind         `json:"kind"`
	Status    RunStatus       `json:"status"`
	Params    json.RawMessage `json:"params"`
	Result    *RunResult      `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RunResult holds the outcome of a completed run.
type RunResult struct {
	Output    string                `json:"output"`
	Artifacts []string              `json:"artifacts,omitempty"`
	Grid      raster.Meta           `json:"grid"`
	Stats     *raster.Stats         `json:"stats,omitempty"`
	Classes   []rasterio.ClassCount `json:"classes,omitempty"`
	ElapsedMS int64                 `json:"elapsed_ms"`
}

// Elapsed returns the run duration.
func (r *RunResult) Elapsed() time.Duration {
	return time.Duration(r.ElapsedMS) * time.Millisecond
}
