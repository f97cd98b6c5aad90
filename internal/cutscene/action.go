// Package cutscene plays scripted camera sequences against an engine.Host.
//
// A cutscene is a tree of actions of a few fixed kinds. The root is normally a
// Hold, which freezes the player and hides the HUD while it runs its children
// one after another.
package cutscene

import (
	"errors"

	"github.com/OCAP2/cutscene/internal/engine"
)

// Kind identifies an action variant.
type Kind int

const (
	KindHold Kind = iota
	KindSmooth
	KindTrack
	KindWait
)

func (k Kind) String() string {
	switch k {
	case KindHold:
		return "hold"
	case KindSmooth:
		return "smooth"
	case KindTrack:
		return "track"
	case KindWait:
		return "wait"
	default:
		return "unknown"
	}
}

// Action is one step of a cutscene. Start is called once before the first
// Tick, Tick once per engine frame until it reports done, and Finish once
// afterwards (or when the cutscene is torn down early).
type Action interface {
	Kind() Kind
	Start(h engine.Host)
	Tick(h engine.Host, dt float64) (done bool)
	Finish(h engine.Host)
}

// Canceller is implemented by actions that can be ended by the player.
type Canceller interface {
	Cancel() bool
}

// ErrEmptyHold is returned when a hold is built without children.
var ErrEmptyHold = errors.New("hold needs at least one child action")
