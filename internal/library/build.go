package library

import (
	"fmt"

	"github.com/OCAP2/cutscene/internal/cutscene"
	"github.com/OCAP2/cutscene/internal/interp"
	"github.com/OCAP2/cutscene/pkg/core"
)

// Build turns def into a root hold. defaults supplies the pacing for smooth
// steps that leave it unset.
//
// A wait step keeps the camera on the final pose of the step before it.
func Build(def core.Definition, defaults interp.Options) (*cutscene.Hold, error) {
	if err := Validate(def); err != nil {
		return nil, err
	}

	children := make([]cutscene.Action, 0, len(def.Steps))
	var last *core.Pose
	for i, step := range def.Steps {
		switch step.Kind {
		case core.StepSmooth:
			opts := defaults
			if step.SecondsPerMarker > 0 {
				opts.SecondsPerMarker = step.SecondsPerMarker
			}
			opts.DelayBefore = step.DelayBefore
			opts.DelayAfter = step.DelayAfter

			smooth, err := cutscene.NewSmooth(step.Markers, opts)
			if err != nil {
				return nil, fmt.Errorf("%s: step %d: %w", def.Name, i, err)
			}
			children = append(children, smooth)
			p := core.PoseOf(step.Markers[len(step.Markers)-1])
			last = &p
		case core.StepTrack:
			track := &cutscene.Track{
				Position: step.Position,
				Target:   step.Target,
				Duration: step.Duration,
			}
			children = append(children, track)
			p := track.Pose()
			last = &p
		case core.StepWait:
			children = append(children, &cutscene.Wait{Seconds: step.Seconds, Pose: last})
		}
	}

	hold, err := cutscene.NewHold(children...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", def.Name, err)
	}
	hold.Cancellable = def.Cancellable
	hold.Subtitles = def.Subtitles
	return hold, nil
}
