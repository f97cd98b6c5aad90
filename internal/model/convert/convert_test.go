package convert

import (
	"testing"
	"time"

	"github.com/OCAP2/cutscene/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDefinition() core.Definition {
	return core.Definition{
		Name:        "intro",
		Cancellable: true,
		Subtitles: []core.Subtitle{
			{Start: 0, End: 2, Text: "Dawn", X: 0.5, Y: 0.92, Size: 0.5, Color: 0xffffff},
		},
		Steps: []core.Step{
			{
				Kind: core.StepSmooth,
				Markers: []core.Marker{
					{Position: mgl64.Vec3{0, 0, 0}, Yaw: 350},
					{Position: mgl64.Vec3{3, 4, 0}, Yaw: 10},
				},
				SecondsPerMarker: 2,
			},
			{Kind: core.StepWait, Seconds: 1},
		},
	}
}

func TestCoreToCutscene(t *testing.T) {
	c, err := CoreToCutscene(sampleDefinition(), "cutscenes/intro.yaml")
	require.NoError(t, err)

	assert.Equal(t, "intro", c.Name)
	assert.Equal(t, "cutscenes/intro.yaml", c.Source)
	assert.True(t, c.Cancellable)
	assert.Equal(t, 2, c.MarkerCount)
	assert.InDelta(t, 5.0, c.PathLength, 1e-9)
	assert.Contains(t, c.PathWKT, "LINESTRING Z")
	assert.Contains(t, string(c.Steps), `"kind":"smooth"`)
	assert.Contains(t, string(c.Subtitles), `"text":"Dawn"`)
}

func TestCoreToCutscene_NoCameraPath(t *testing.T) {
	def := core.Definition{Name: "pause", Steps: []core.Step{{Kind: core.StepWait, Seconds: 3}}}

	c, err := CoreToCutscene(def, "")
	require.NoError(t, err)
	assert.Zero(t, c.PathLength)
	assert.Empty(t, c.PathWKT)
	assert.JSONEq(t, "[]", string(c.Subtitles))
}

func TestCutsceneRoundTrip(t *testing.T) {
	def := sampleDefinition()
	c, err := CoreToCutscene(def, "")
	require.NoError(t, err)

	back, err := CutsceneToCore(c)
	require.NoError(t, err)
	assert.Equal(t, def, back)
}

func TestCutsceneToCore_BadSteps(t *testing.T) {
	c, err := CoreToCutscene(sampleDefinition(), "")
	require.NoError(t, err)
	c.Steps = []byte("{not json")

	_, err = CutsceneToCore(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `cutscene "intro"`)
}

func TestPlaybackConversion(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := core.PlaybackRecord{
		ID:         7,
		Cutscene:   "intro",
		StartedAt:  start,
		EndedAt:    start.Add(9 * time.Second),
		Ticks:      225,
		Elapsed:    9.1,
		Cancelled:  true,
		DeathCam:   false,
		MaxFrameDt: 0.07,
	}

	p := CoreToPlayback(r)
	assert.Equal(t, uint(7), p.ID)
	assert.Equal(t, "intro", p.Cutscene)
	assert.True(t, p.Cancelled)
	assert.Equal(t, r, PlaybackToCore(p))
}
