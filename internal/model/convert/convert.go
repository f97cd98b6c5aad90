// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OCAP2/cutscene/internal/geo"
	"github.com/OCAP2/cutscene/internal/model"
	"github.com/OCAP2/cutscene/pkg/core"
	"gorm.io/datatypes"
)

// toJSON marshals v, storing an empty array for nil slices.
func toJSON(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return datatypes.JSON("[]"), nil
	}
	return datatypes.JSON(data), nil
}

// CoreToCutscene converts a definition into its stored form. Path length and
// WKT are derived from the camera positions the definition visits.
func CoreToCutscene(def core.Definition, source string) (model.Cutscene, error) {
	steps, err := toJSON(def.Steps)
	if err != nil {
		return model.Cutscene{}, fmt.Errorf("failed to encode steps: %w", err)
	}
	subtitles, err := toJSON(def.Subtitles)
	if err != nil {
		return model.Cutscene{}, fmt.Errorf("failed to encode subtitles: %w", err)
	}

	c := model.Cutscene{
		Name:        def.Name,
		Source:      source,
		Cancellable: def.Cancellable,
		MarkerCount: def.MarkerCount(),
		Steps:       steps,
		Subtitles:   subtitles,
	}

	g, err := geo.Describe(def.PathPoints())
	switch {
	case errors.Is(err, geo.ErrEmptyPath):
	case err != nil:
		return model.Cutscene{}, err
	default:
		c.PathLength = g.Length
		c.PathWKT = g.WKT
	}
	return c, nil
}

// CutsceneToCore converts a stored cutscene back into a definition.
func CutsceneToCore(c model.Cutscene) (core.Definition, error) {
	def := core.Definition{
		Name:        c.Name,
		Cancellable: c.Cancellable,
	}
	if len(c.Steps) > 0 {
		if err := json.Unmarshal(c.Steps, &def.Steps); err != nil {
			return core.Definition{}, fmt.Errorf("cutscene %q: failed to decode steps: %w", c.Name, err)
		}
	}
	if len(c.Subtitles) > 0 {
		if err := json.Unmarshal(c.Subtitles, &def.Subtitles); err != nil {
			return core.Definition{}, fmt.Errorf("cutscene %q: failed to decode subtitles: %w", c.Name, err)
		}
	}
	if len(def.Subtitles) == 0 {
		def.Subtitles = nil
	}
	return def, nil
}

// CoreToPlayback converts a playback record to a GORM model.Playback.
func CoreToPlayback(r core.PlaybackRecord) model.Playback {
	return model.Playback{
		ID:         r.ID,
		Cutscene:   r.Cutscene,
		StartedAt:  r.StartedAt,
		EndedAt:    r.EndedAt,
		Ticks:      r.Ticks,
		Elapsed:    r.Elapsed,
		Cancelled:  r.Cancelled,
		Stopped:    r.Stopped,
		DeathCam:   r.DeathCam,
		MaxFrameDt: r.MaxFrameDt,
	}
}

// PlaybackToCore converts a GORM model.Playback to a playback record.
func PlaybackToCore(p model.Playback) core.PlaybackRecord {
	return core.PlaybackRecord{
		ID:         p.ID,
		Cutscene:   p.Cutscene,
		StartedAt:  p.StartedAt,
		EndedAt:    p.EndedAt,
		Ticks:      p.Ticks,
		Elapsed:    p.Elapsed,
		Cancelled:  p.Cancelled,
		Stopped:    p.Stopped,
		DeathCam:   p.DeathCam,
		MaxFrameDt: p.MaxFrameDt,
	}
}
