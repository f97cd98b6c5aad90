package influx

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OCAP2/cutscene/internal/config"
	"github.com/OCAP2/cutscene/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readBackup(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	return string(data)
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{Enabled: false}, zerolog.Nop(), "")
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.False(t, m.Enabled())
	assert.NoError(t, m.Close())
}

func TestURL(t *testing.T) {
	m := NewManager(config.InfluxConfig{Protocol: "http", Host: "localhost", Port: "8086"}, zerolog.Nop(), "")
	assert.Equal(t, "http://localhost:8086", m.URL())
}

func TestWritePoint_NotConnected(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	assert.ErrorIs(t, m.WritePlayback(core.PlaybackRecord{Cutscene: "intro"}), ErrNotConnected)
	assert.ErrorIs(t, m.OpenBackup(), ErrNotConnected)
}

func TestWritePlayback_Backup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "influx_backup.log.gz")
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), path)
	require.NoError(t, m.OpenBackup())
	require.NoError(t, m.OpenBackup())
	assert.True(t, m.Enabled())
	assert.False(t, m.Valid())

	end := time.Date(2026, 2, 1, 10, 0, 9, 0, time.UTC)
	require.NoError(t, m.WritePlayback(core.PlaybackRecord{
		Cutscene:   "intro",
		StartedAt:  end.Add(-9 * time.Second),
		EndedAt:    end,
		Ticks:      225,
		Elapsed:    9,
		Cancelled:  true,
		MaxFrameDt: 0.05,
	}))
	require.NoError(t, m.Close())

	line := strings.TrimSpace(readBackup(t, path))
	assert.True(t, strings.HasPrefix(line, "cutscene_playback,"), line)
	assert.Contains(t, line, "cutscene=intro")
	assert.Contains(t, line, "outcome=cancelled")
	assert.Contains(t, line, "deathCam=false")
	assert.Contains(t, line, "ticks=225i")
	assert.Contains(t, line, "duration=9")
	assert.True(t, strings.HasSuffix(line, " 1769940009000000000"), line)
}
