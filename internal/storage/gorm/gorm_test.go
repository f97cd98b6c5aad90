package gormstorage

import (
	"context"
	"testing"
	"time"

	"github.com/OCAP2/cutscene/internal/database"
	"github.com/OCAP2/cutscene/internal/model"
	"github.com/OCAP2/cutscene/internal/storage"
	"github.com/OCAP2/cutscene/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func newTestBackend(t *testing.T, interval time.Duration) *Backend {
	t.Helper()
	db, err := database.OpenSqliteMemory(t.Name())
	require.NoError(t, err)

	b := New(Dependencies{DB: db, WriteInterval: interval})
	require.NoError(t, b.Init(context.Background()))
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func definition(name string, spm float64) core.Definition {
	return core.Definition{
		Name:        name,
		Cancellable: true,
		Subtitles:   []core.Subtitle{{Start: 0, End: 1, Text: "Hello", X: 0.5, Y: 0.92, Size: 0.5, Color: 0xffffff}},
		Steps: []core.Step{{
			Kind:             core.StepSmooth,
			SecondsPerMarker: spm,
			Markers: []core.Marker{
				{Position: mgl64.Vec3{0, 0, 0}},
				{Position: mgl64.Vec3{0, 10, 0}, Yaw: 90},
			},
		}},
	}
}

func TestInit_RequiresDB(t *testing.T) {
	b := New(Dependencies{})
	assert.ErrorIs(t, b.Init(context.Background()), ErrNoDB)
	assert.NoError(t, b.Close())
}

func TestSaveCutscene_Upserts(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t, time.Hour)

	require.NoError(t, b.SaveCutscene(ctx, definition("intro", 4), "a.yaml"))
	require.NoError(t, b.SaveCutscene(ctx, definition("intro", 2), "b.yaml"))
	require.NoError(t, b.SaveCutscene(ctx, definition("bridge", 4), ""))

	var count int64
	require.NoError(t, b.DB().Model(&model.Cutscene{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	var row model.Cutscene
	require.NoError(t, b.DB().Where("name = ?", "intro").First(&row).Error)
	assert.Equal(t, "b.yaml", row.Source)
	assert.InDelta(t, 10.0, row.PathLength, 1e-9)

	defs, err := b.LoadCutscenes(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "bridge", defs[0].Name)
	assert.Equal(t, definition("intro", 2), defs[1])
}

func TestDeleteCutscene(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t, time.Hour)

	require.NoError(t, b.SaveCutscene(ctx, definition("intro", 4), ""))
	require.NoError(t, b.DeleteCutscene(ctx, "intro"))
	require.NoError(t, b.DeleteCutscene(ctx, "missing"))

	defs, err := b.LoadCutscenes(ctx)
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestLoadCutscenes_SkipsBrokenRows(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t, time.Hour)

	require.NoError(t, b.SaveCutscene(ctx, definition("good", 4), ""))
	require.NoError(t, b.DB().Create(&model.Cutscene{Name: "broken", Steps: []byte("{")}).Error)

	defs, err := b.LoadCutscenes(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	require.Len(t, defs, 1)
	assert.Equal(t, "good", defs[0].Name)
}

func TestRecordPlayback_QueuedUntilFlush(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t, time.Hour)

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, b.RecordPlayback(ctx, core.PlaybackRecord{ID: 99, Cutscene: "intro", StartedAt: start, EndedAt: start.Add(time.Second)}))
	require.NoError(t, b.RecordPlayback(ctx, core.PlaybackRecord{Cutscene: "outro", Stopped: true}))
	require.NoError(t, b.RecordPlayback(ctx, core.PlaybackRecord{Cutscene: "intro", Cancelled: true}))
	assert.Equal(t, 3, b.Pending())

	var count int64
	require.NoError(t, b.DB().Model(&model.Playback{}).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, b.Flush(ctx))
	assert.Equal(t, 0, b.Pending())

	all, err := b.Playbacks(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint(3), all[0].ID)
	assert.Equal(t, uint(1), all[2].ID)
	assert.True(t, all[2].StartedAt.Equal(start))

	intro, err := b.Playbacks(ctx, "intro", 1)
	require.NoError(t, err)
	require.Len(t, intro, 1)
	assert.True(t, intro[0].Cancelled)
}

func TestWriteLoop(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t, 10*time.Millisecond)

	require.NoError(t, b.RecordPlayback(ctx, core.PlaybackRecord{Cutscene: "intro"}))
	assert.Eventually(t, func() bool { return b.Pending() == 0 }, time.Second, 10*time.Millisecond)
}

func TestClose_WritesPending(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSqliteMemory(t.Name())
	require.NoError(t, err)

	b := New(Dependencies{DB: db, WriteInterval: time.Hour})
	require.NoError(t, b.Init(ctx))
	require.NoError(t, b.RecordPlayback(ctx, core.PlaybackRecord{Cutscene: "intro"}))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	var count int64
	require.NoError(t, db.Model(&model.Playback{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
