package archive

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	in := map[string]float64{"finalAssets": 1_234_567.89}
	require.NoError(t, WriteJSON(ctx, fs, "x/y.json", in))

	var out map[string]float64
	require.NoError(t, ReadJSON(ctx, fs, "x/y.json", &out))
	assert.Equal(t, in, out)

	err = ReadJSON(ctx, fs, "x/missing.json", &out)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResults_SaveLoad(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	results := NewResults(fs)
	results.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	id, err := results.Save(ctx, "backtest", map[string]any{"success": true})
	require.NoError(t, err)

	saved, err := results.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, saved.ID)
	assert.Equal(t, "backtest", saved.Kind)
	assert.Equal(t, 2024, saved.SavedAt.Year())

	var report map[string]any
	require.NoError(t, json.Unmarshal(saved.Report, &report))
	assert.Equal(t, true, report["success"])

	ids, err := results.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestResults_LoadRejectsBadID(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())

	_, err := NewResults(fs).Load(context.Background(), "../../etc/passwd")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReadJSON_Corrupt(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, fs.Write(ctx, "bad.json", []byte("{not json")))

	var out map[string]any
	err = ReadJSON(ctx, fs, "bad.json", &out)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestResults_Delete(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	results := NewResults(fs)

	id, err := results.Save(ctx, "backtest", map[string]any{"success": true})
	require.NoError(t, err)

	require.NoError(t, results.Delete(ctx, id))
	_, err = results.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, results.Delete(ctx, id), ErrNotFound)
	assert.ErrorIs(t, results.Delete(ctx, "nope"), ErrNotFound)
}
