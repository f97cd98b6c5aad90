package cutscene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCAP2/cutscene/internal/engine"
	"github.com/OCAP2/cutscene/pkg/core"
)

// Track holds the camera at Position and keeps it pointed at Target.
//
// It ends when Until reports true, or after Duration seconds when Duration is
// positive. With neither set it runs for a single tick.
type Track struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Duration float64
	Until    func(h engine.Host) bool

	elapsed float64
}

func (t *Track) Kind() Kind { return KindTrack }

// Pose returns the camera placement the action forces.
func (t *Track) Pose() core.Pose {
	yaw, pitch := engine.YawPitch(t.Target.Sub(t.Position))
	return core.Pose{Position: t.Position, Yaw: yaw, Pitch: pitch}
}

func (t *Track) Start(engine.Host) {
	t.elapsed = 0
}

func (t *Track) Tick(h engine.Host, dt float64) bool {
	h.ForceCamera(t.Pose())
	t.elapsed += dt

	if t.Until != nil {
		if t.Until(h) {
			return true
		}
		return t.Duration > 0 && t.elapsed >= t.Duration
	}
	return t.elapsed >= t.Duration
}

func (t *Track) Finish(engine.Host) {}
