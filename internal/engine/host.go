// Package engine describes what a cutscene needs from the hosting engine.
//
// Overrides such as hiding the HUD are acquired as scoped handles: each
// acquisition returns a Release that undoes it, and the cutscene releases
// everything it took when it finishes.
package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCAP2/cutscene/pkg/core"
)

// Release undoes an override. Calling it more than once has no further effect.
type Release func()

// PlayerState is the part of the player entity a cutscene reads.
type PlayerState struct {
	Position mgl64.Vec3
	Yaw      float64
	Pitch    float64
	Roll     float64
	Health   float64
}

// HUDRect is a filled HUD rectangle in screen fractions.
type HUDRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
	Color  uint32  `json:"color"`
	Alpha  float64 `json:"alpha"`
}

// Host is the capability a playback session drives.
type Host interface {
	// ForceCamera places the virtual camera for the current tick.
	ForceCamera(pose core.Pose)
	// ShowHUDText draws text even while the HUD is suppressed.
	ShowHUDText(s core.Subtitle)
	// ShowHUDRect draws a rectangle even while the HUD is suppressed.
	ShowHUDRect(r HUDRect)

	Player() PlayerState
	SetPlayerOrientation(yaw, pitch, roll float64)

	LockMovement() Release
	SuppressHUD() Release
	HideCrosshair() Release

	HasLineOfSight(from, to mgl64.Vec3) bool
	IsEditing() bool
}

// once wraps fn so only the first call runs it.
func once(fn func()) Release {
	done := false
	return func() {
		if done {
			return
		}
		done = true
		fn()
	}
}
