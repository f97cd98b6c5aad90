package cutscene

import (
	"github.com/OCAP2/cutscene/internal/engine"
	"github.com/OCAP2/cutscene/pkg/core"
)

// Wait lets time pass. When Pose is set the camera is held there meanwhile,
// otherwise the engine shows its normal view.
type Wait struct {
	Seconds float64
	Pose    *core.Pose

	elapsed float64
}

func (w *Wait) Kind() Kind { return KindWait }

func (w *Wait) Start(engine.Host) {
	w.elapsed = 0
}

func (w *Wait) Tick(h engine.Host, dt float64) bool {
	if w.Pose != nil {
		h.ForceCamera(*w.Pose)
	}
	w.elapsed += dt
	return w.elapsed >= w.Seconds
}

func (w *Wait) Finish(engine.Host) {}
