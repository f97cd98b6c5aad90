// pkg/core/definition.go
package core

import (
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// StepKind names the variant of a cutscene step.
type StepKind string

const (
	StepSmooth StepKind = "smooth"
	StepTrack  StepKind = "track"
	StepWait   StepKind = "wait"
)

// Subtitle is a line of HUD text shown during a time window of a cutscene.
type Subtitle struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Text  string  `json:"text" yaml:"text"`
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Size  float64 `json:"size" yaml:"size"`
	Color uint32  `json:"color" yaml:"color"`
}

// DefaultSubtitle returns a subtitle with the standard bottom-centre placement.
func DefaultSubtitle() Subtitle {
	return Subtitle{X: 0.5, Y: 0.92, Size: 0.5, Color: 0xffffff}
}

// Visible reports whether the subtitle is due at elapsed seconds into the cutscene.
func (s Subtitle) Visible(elapsed float64) bool {
	return elapsed >= s.Start && elapsed <= s.End
}

// Step is one authored piece of a cutscene. Only the fields of its Kind are used.
type Step struct {
	Kind StepKind `json:"kind" yaml:"kind"`

	// smooth
	Markers          []Marker `json:"markers,omitempty" yaml:"markers,omitempty"`
	SecondsPerMarker float64  `json:"secondsPerMarker,omitempty" yaml:"secondsPerMarker,omitempty"`
	DelayBefore      float64  `json:"delayBefore,omitempty" yaml:"delayBefore,omitempty"`
	DelayAfter       float64  `json:"delayAfter,omitempty" yaml:"delayAfter,omitempty"`

	// track
	Position mgl64.Vec3 `json:"position,omitempty" yaml:"position,omitempty"`
	Target   mgl64.Vec3 `json:"target,omitempty" yaml:"target,omitempty"`
	Duration float64    `json:"duration,omitempty" yaml:"duration,omitempty"`

	// wait
	Seconds float64 `json:"seconds,omitempty" yaml:"seconds,omitempty"`
}

// Definition is a complete authored cutscene.
type Definition struct {
	Name        string     `json:"name" yaml:"name"`
	Cancellable bool       `json:"cancellable" yaml:"cancellable"`
	Subtitles   []Subtitle `json:"subtitles,omitempty" yaml:"subtitles,omitempty"`
	Steps       []Step     `json:"steps" yaml:"steps"`
}

// MarkerCount returns the number of waypoint markers across all smooth steps.
func (d Definition) MarkerCount() int {
	n := 0
	for _, s := range d.Steps {
		n += len(s.Markers)
	}
	return n
}

// PathPoints returns every camera position the definition visits, in order.
// Track steps contribute their fixed camera position.
func (d Definition) PathPoints() []mgl64.Vec3 {
	var pts []mgl64.Vec3
	for _, s := range d.Steps {
		switch s.Kind {
		case StepSmooth:
			for _, m := range s.Markers {
				pts = append(pts, m.Position)
			}
		case StepTrack:
			pts = append(pts, s.Position)
		}
	}
	return pts
}

// UnmarshalYAML fills unset subtitle fields from DefaultSubtitle.
func (s *Subtitle) UnmarshalYAML(value *yaml.Node) error {
	type plain Subtitle
	p := plain(DefaultSubtitle())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Subtitle(p)
	return nil
}
