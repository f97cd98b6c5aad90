package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCAP2/cutscene/pkg/core"
)

// LOSFunc answers line-of-sight queries for a Frame.
type LOSFunc func(from, to mgl64.Vec3) bool

// Frame is the Host used inside the extension. It records the effects of
// each tick so they can be returned to the engine in the tick response.
// Override depths persist across ticks; drawn items and the camera reset
// at BeginTick.
type Frame struct {
	player  PlayerState
	editing bool
	los     LOSFunc

	camera      *core.Pose
	orientation *[3]float64
	texts       []core.Subtitle
	rects       []HUDRect

	hudDepth       int
	crosshairDepth int
	movementLocks  int
}

// NewFrame creates a Frame. A nil los treats every pair of points as visible.
func NewFrame(player PlayerState, los LOSFunc) *Frame {
	if los == nil {
		los = func(_, _ mgl64.Vec3) bool { return true }
	}
	return &Frame{player: player, los: los}
}

// BeginTick clears per-tick output and updates the host-reported inputs.
func (f *Frame) BeginTick(player PlayerState, editing bool) {
	f.player = player
	f.editing = editing
	f.camera = nil
	f.orientation = nil
	f.texts = f.texts[:0]
	f.rects = f.rects[:0]
}

func (f *Frame) ForceCamera(pose core.Pose) {
	pose.Roll = 0
	f.camera = &pose
}

func (f *Frame) ShowHUDText(s core.Subtitle) {
	f.texts = append(f.texts, s)
}

func (f *Frame) ShowHUDRect(r HUDRect) {
	f.rects = append(f.rects, r)
}

func (f *Frame) Player() PlayerState {
	return f.player
}

func (f *Frame) SetPlayerOrientation(yaw, pitch, roll float64) {
	f.player.Yaw, f.player.Pitch, f.player.Roll = yaw, pitch, roll
	f.orientation = &[3]float64{yaw, pitch, roll}
}

func (f *Frame) LockMovement() Release {
	f.movementLocks++
	return once(func() { f.movementLocks-- })
}

func (f *Frame) SuppressHUD() Release {
	f.hudDepth++
	return once(func() { f.hudDepth-- })
}

func (f *Frame) HideCrosshair() Release {
	f.crosshairDepth++
	return once(func() { f.crosshairDepth-- })
}

func (f *Frame) HasLineOfSight(from, to mgl64.Vec3) bool {
	return f.los(from, to)
}

func (f *Frame) IsEditing() bool {
	return f.editing
}

// Overridden reports whether any override is still held.
func (f *Frame) Overridden() bool {
	return f.hudDepth > 0 || f.crosshairDepth > 0 || f.movementLocks > 0
}

// Snapshot is the serialisable result of one tick.
type Snapshot struct {
	Camera      *[6]float64     `json:"camera"`
	HUD         bool            `json:"hud"`
	Crosshair   bool            `json:"crosshair"`
	CanMove     bool            `json:"canMove"`
	Orientation *[3]float64     `json:"orientation"`
	Subtitles   []core.Subtitle `json:"subtitles"`
	Rects       []HUDRect       `json:"rects"`
	Done        bool            `json:"done"`
}

// Snapshot captures the current tick's effects. HUD, Crosshair and CanMove
// are true when the engine should show or allow them.
func (f *Frame) Snapshot() Snapshot {
	s := Snapshot{
		HUD:       f.hudDepth == 0,
		Crosshair: f.crosshairDepth == 0,
		CanMove:   f.movementLocks == 0,
		Subtitles: append([]core.Subtitle{}, f.texts...),
		Rects:     append([]HUDRect{}, f.rects...),
	}
	if f.camera != nil {
		arr := f.camera.Array()
		s.Camera = &arr
	}
	if f.orientation != nil {
		o := *f.orientation
		s.Orientation = &o
	}
	return s
}

var _ Host = (*Frame)(nil)
