package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samlevin11/TopographicPositionIndex/internal/model"
	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
	"github.com/samlevin11/TopographicPositionIndex/internal/rasterio"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

type tpiParams struct {
	Outer float64 `json:"outer_radius"`
	Inner float64 `json:"inner_radius"`
	Unit  string  `json:"unit"`
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, model.RunKindTPI, tpiParams{Outer: 10, Inner: 2, Unit: "CELL"})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunKindTPI, got.Kind)
	assert.Equal(t, model.RunStatusRunning, got.Status)
	assert.JSONEq(t, `{"outer_radius":10,"inner_radius":2,"unit":"CELL"}`, string(got.Params))
	assert.Nil(t, got.Result)
	assert.Empty(t, got.Error)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLite_CompleteRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, model.RunKindLandform, map[string]float64{"slope_threshold": 5})
	require.NoError(t, err)

	result := &model.RunResult{
		Output: "out/landform.asc",
		Grid:   raster.Meta{Width: 4, Height: 3, CellSizeX: 30, CellSizeY: 30, NoData: -9999},
		Classes: []rasterio.ClassCount{
			{Code: 5, Name: "Plains", Cells: 8, Area: 7200, Percent: 66.67},
		},
		ElapsedMS: 42,
	}
	require.NoError(t, st.CompleteRun(ctx, run.ID, result))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "out/landform.asc", got.Result.Output)
	assert.Equal(t, 4, got.Result.Grid.Width)
	require.Len(t, got.Result.Classes, 1)
	assert.Equal(t, "Plains", got.Result.Classes[0].Name)
	assert.Equal(t, int64(42), got.Result.ElapsedMS)
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, model.RunKindSlopePosition, nil)
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, run.ID, errors.New("degenerate raster")))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "degenerate raster", got.Error)
}

func TestSQLite_RunNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.GetRun(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")

	err = st.CompleteRun(ctx, "missing", &model.RunResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")

	err = st.FailRun(ctx, "missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateRun(ctx, model.RunKindTPI, nil)
	require.NoError(t, err)
	b, err := st.CreateRun(ctx, model.RunKindLandform, nil)
	require.NoError(t, err)
	c, err := st.CreateRun(ctx, model.RunKindTPI, nil)
	require.NoError(t, err)
	require.NoError(t, st.CompleteRun(ctx, c.ID, &model.RunResult{Output: "c.asc"}))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, c.ID, all[0].ID)
	assert.Equal(t, a.ID, all[2].ID)

	tpiRuns, err := st.ListRuns(ctx, RunFilter{Kind: model.RunKindTPI})
	require.NoError(t, err)
	assert.Len(t, tpiRuns, 2)

	running, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusRunning})
	require.NoError(t, err)
	require.Len(t, running, 2)
	for _, r := range running {
		assert.NotEqual(t, c.ID, r.ID)
	}

	page, err := st.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, b.ID, page[0].ID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	runs, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}
