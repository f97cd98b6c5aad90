package cutscene

import (
	"github.com/OCAP2/cutscene/internal/engine"
	"github.com/OCAP2/cutscene/internal/interp"
	"github.com/OCAP2/cutscene/pkg/core"
)

// Smooth moves the camera along a marker path.
type Smooth struct {
	path *interp.Interpolator
}

// NewSmooth builds a smooth action. It fails only for an empty marker list.
func NewSmooth(markers []core.Marker, opts interp.Options) (*Smooth, error) {
	path, err := interp.New(markers, opts)
	if err != nil {
		return nil, err
	}
	return &Smooth{path: path}, nil
}

func (s *Smooth) Kind() Kind { return KindSmooth }

// Path exposes the underlying interpolator, mainly for telemetry.
func (s *Smooth) Path() *interp.Interpolator { return s.path }

func (s *Smooth) Start(engine.Host) {
	s.path.Reset()
}

func (s *Smooth) Tick(h engine.Host, dt float64) bool {
	s.path.Advance(dt)
	h.ForceCamera(s.path.CurrentPose())
	return s.path.IsPathDepleted()
}

func (s *Smooth) Finish(engine.Host) {}
