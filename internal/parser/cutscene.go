package parser

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCAP2/cutscene/internal/util"
	"github.com/OCAP2/cutscene/pkg/core"
)

// ParseMarker parses a marker in the form "x,y,z;yaw;pitch". Yaw and pitch
// may be omitted and default to 0.
func ParseMarker(s string) (core.Marker, error) {
	var m core.Marker
	parts := strings.Split(util.TrimQuotes(strings.TrimSpace(s)), ";")
	if len(parts) > 3 {
		return m, fmt.Errorf("invalid marker %q", s)
	}

	pos, err := ParseVec3(parts[0])
	if err != nil {
		return m, fmt.Errorf("error parsing marker position: %w", err)
	}
	m.Position = pos

	if len(parts) > 1 {
		if m.Yaw, err = ParseFloat(parts[1]); err != nil {
			return m, fmt.Errorf("error parsing marker yaw: %w", err)
		}
	}
	if len(parts) > 2 {
		if m.Pitch, err = ParseFloat(parts[2]); err != nil {
			return m, fmt.Errorf("error parsing marker pitch: %w", err)
		}
	}
	return m, nil
}

// ParseDefineArgs builds a single-path definition from
// [name, cancellable, secondsPerMarker, delayBefore, delayAfter, marker...].
func ParseDefineArgs(args []string) (core.Definition, error) {
	var def core.Definition
	if err := requireArgs(args, 6); err != nil {
		return def, err
	}
	data := util.CleanArgs(args)

	def.Name = strings.TrimSpace(data[0])
	if def.Name == "" {
		return def, fmt.Errorf("cutscene name is empty")
	}

	cancellable, err := ParseBool(data[1])
	if err != nil {
		return def, fmt.Errorf("error parsing cancellable: %w", err)
	}
	def.Cancellable = cancellable

	step := core.Step{Kind: core.StepSmooth}
	if step.SecondsPerMarker, err = ParseFloat(data[2]); err != nil {
		return def, fmt.Errorf("error parsing secondsPerMarker: %w", err)
	}
	if step.DelayBefore, err = ParseFloat(data[3]); err != nil {
		return def, fmt.Errorf("error parsing delayBefore: %w", err)
	}
	if step.DelayAfter, err = ParseFloat(data[4]); err != nil {
		return def, fmt.Errorf("error parsing delayAfter: %w", err)
	}

	for i, raw := range data[5:] {
		m, err := ParseMarker(raw)
		if err != nil {
			return def, fmt.Errorf("marker %d: %w", i, err)
		}
		step.Markers = append(step.Markers, m)
	}
	def.Steps = []core.Step{step}
	return def, nil
}

// PlayArgs is the decoded argument list of a play command.
type PlayArgs struct {
	Name string
	// Orientation is the player's yaw, pitch and roll when the engine sent it.
	Orientation *[3]float64
}

// ParsePlayArgs parses [name, "yaw,pitch,roll"?].
func ParsePlayArgs(args []string) (PlayArgs, error) {
	var p PlayArgs
	if err := requireArgs(args, 1); err != nil {
		return p, err
	}
	data := util.CleanArgs(args)
	p.Name = strings.TrimSpace(data[0])
	if p.Name == "" {
		return p, fmt.Errorf("cutscene name is empty")
	}
	if len(data) > 1 && data[1] != "" {
		v, err := ParseVec3(data[1])
		if err != nil {
			return p, fmt.Errorf("error parsing orientation: %w", err)
		}
		p.Orientation = &[3]float64{v[0], v[1], v[2]}
	}
	return p, nil
}

// TickArgs is the decoded argument list of a tick command.
type TickArgs struct {
	Dt      float64
	Editing bool
	Health  *float64 // nil when the host did not send it
}

// ParseTickArgs parses [dt, editing?, health?].
func ParseTickArgs(args []string) (TickArgs, error) {
	var t TickArgs
	if err := requireArgs(args, 1); err != nil {
		return t, err
	}
	data := util.CleanArgs(args)

	var err error
	if t.Dt, err = ParseFloat(data[0]); err != nil {
		return t, fmt.Errorf("error parsing dt: %w", err)
	}
	if len(data) > 1 {
		if t.Editing, err = ParseBool(data[1]); err != nil {
			return t, fmt.Errorf("error parsing editing: %w", err)
		}
	}
	if len(data) > 2 && data[2] != "" {
		health, err := ParseFloat(data[2])
		if err != nil {
			return t, fmt.Errorf("error parsing health: %w", err)
		}
		t.Health = &health
	}
	return t, nil
}

// DeathCamArgs is the decoded argument list of a death camera command.
type DeathCamArgs struct {
	Target mgl64.Vec3
}

// ParseDeathCamArgs parses a target position given as "[x,y,z]" or x, y, z.
func ParseDeathCamArgs(args []string) (DeathCamArgs, error) {
	v, err := parseVec3Args(util.CleanArgs(args))
	if err != nil {
		return DeathCamArgs{}, fmt.Errorf("error parsing target: %w", err)
	}
	return DeathCamArgs{Target: v}, nil
}
