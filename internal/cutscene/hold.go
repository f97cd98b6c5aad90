package cutscene

import (
	"github.com/OCAP2/cutscene/internal/engine"
	"github.com/OCAP2/cutscene/pkg/core"
)

// Hold is the cutscene container. While it runs the player cannot move,
// keeps the orientation it had at the start, and sees neither HUD nor
// crosshair. Subtitles are drawn through the HUD text sink, which is not
// affected by the suppression.
type Hold struct {
	Cancellable bool
	Subtitles   []core.Subtitle
	// Background, when set, is drawn behind every visible subtitle.
	Background *engine.HUDRect

	children []Action
	current  int
	started  bool
	elapsed  float64

	savedYaw, savedPitch, savedRoll float64
	releases                        []engine.Release
	cancelled                       bool
}

// NewHold builds a hold that runs children in order.
func NewHold(children ...Action) (*Hold, error) {
	if len(children) == 0 {
		return nil, ErrEmptyHold
	}
	return &Hold{children: children}, nil
}

func (h *Hold) Kind() Kind { return KindHold }

// Children returns the child actions in play order.
func (h *Hold) Children() []Action { return h.children }

// Elapsed returns the seconds the hold has been ticked for.
func (h *Hold) Elapsed() float64 { return h.elapsed }

// Cancelled reports whether Cancel ended the hold.
func (h *Hold) Cancelled() bool { return h.cancelled }

func (h *Hold) Start(host engine.Host) {
	p := host.Player()
	h.savedYaw, h.savedPitch, h.savedRoll = p.Yaw, p.Pitch, p.Roll
	h.releases = append(h.releases[:0],
		host.LockMovement(),
		host.HideCrosshair(),
		host.SuppressHUD(),
	)
	h.current = 0
	h.elapsed = 0
	h.cancelled = false
	h.children[0].Start(host)
	h.started = true
}

// Cancel ends a cancellable hold at its next tick. It returns false when the
// hold does not accept cancellation.
func (h *Hold) Cancel() bool {
	if !h.Cancellable {
		return false
	}
	h.cancelled = true
	return true
}

func (h *Hold) Tick(host engine.Host, dt float64) bool {
	if h.cancelled {
		return true
	}

	host.SetPlayerOrientation(h.savedYaw, h.savedPitch, h.savedRoll)
	h.drawSubtitles(host)
	h.elapsed += dt

	// the current child still runs on the frame the editor opens
	return h.tickChildren(host, dt) || host.IsEditing()
}

func (h *Hold) tickChildren(host engine.Host, dt float64) bool {
	if !h.children[h.current].Tick(host, dt) {
		return false
	}
	h.children[h.current].Finish(host)
	h.current++
	if h.current >= len(h.children) {
		return true
	}
	h.children[h.current].Start(host)
	return false
}

func (h *Hold) drawSubtitles(host engine.Host) {
	for _, s := range h.Subtitles {
		if !s.Visible(h.elapsed) {
			continue
		}
		if h.Background != nil {
			host.ShowHUDRect(*h.Background)
		}
		host.ShowHUDText(s)
	}
}

// Finish tears down a running child and releases the overrides in reverse
// order of acquisition. It is safe to call more than once.
func (h *Hold) Finish(host engine.Host) {
	if !h.started {
		return
	}
	h.started = false
	if h.current < len(h.children) {
		h.children[h.current].Finish(host)
		h.current = len(h.children)
	}
	for i := len(h.releases) - 1; i >= 0; i-- {
		h.releases[i]()
	}
	h.releases = h.releases[:0]
}
