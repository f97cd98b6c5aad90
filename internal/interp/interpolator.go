// Package interp blends a camera pose across an ordered list of markers.
//
// Each marker owns SecondsPerMarker of the timeline and is centred on it, with
// the cursor starting half a marker (plus DelayBefore) before the first centre.
// Near the middle of a marker's slot the camera rests on it; towards the slot
// edges the neighbouring markers fade in through SmoothFunc.
package interp

import (
	"errors"
	"math"

	"github.com/OCAP2/cutscene/pkg/core"
)

// ErrNoMarkers is returned when an interpolator is built over an empty path.
var ErrNoMarkers = errors.New("camera path needs at least one marker")

const (
	// DefaultSecondsPerMarker is the dwell time given to each marker.
	DefaultSecondsPerMarker = 4.0
	// DefaultMaxStep caps a single Advance so a stalled frame (asset loading)
	// does not skip ahead along the path.
	DefaultMaxStep = 1.0 / 25
)

// Options tunes the pacing of a path. Zero values take the defaults,
// except the delays whose zero value is meaningful.
type Options struct {
	SecondsPerMarker float64
	DelayBefore      float64
	DelayAfter       float64
	MaxStep          float64
}

func (o Options) withDefaults() Options {
	if o.SecondsPerMarker <= 0 {
		o.SecondsPerMarker = DefaultSecondsPerMarker
	}
	if o.MaxStep <= 0 {
		o.MaxStep = DefaultMaxStep
	}
	return o
}

// Interpolator maps an elapsed-time cursor onto a blended camera pose.
// It is not safe for concurrent use; a playback session owns it.
type Interpolator struct {
	markers []core.Marker
	opts    Options

	start    float64
	cursor   float64
	progress float64
}

// New builds an interpolator over markers. The slice is referenced, not copied,
// and must not be modified while the interpolator is in use.
func New(markers []core.Marker, opts Options) (*Interpolator, error) {
	if len(markers) == 0 {
		return nil, ErrNoMarkers
	}
	opts = opts.withDefaults()
	in := &Interpolator{
		markers: markers,
		opts:    opts,
		start:   -opts.SecondsPerMarker/2 - opts.DelayBefore,
	}
	in.Reset()
	return in, nil
}

// Reset rewinds the cursor to the start of the path.
func (in *Interpolator) Reset() {
	in.cursor = in.start
	in.progress = 0
}

// Options returns the effective pacing options.
func (in *Interpolator) Options() Options {
	return in.opts
}

// Len returns the number of markers on the path.
func (in *Interpolator) Len() int {
	return len(in.markers)
}

// Cursor returns the current timeline position in seconds.
func (in *Interpolator) Cursor() float64 {
	return in.cursor
}

// Advance moves the cursor forward by dt seconds, clamped to MaxStep.
// Negative deltas are ignored.
func (in *Interpolator) Advance(dt float64) {
	if dt <= 0 || math.IsNaN(dt) {
		return
	}
	step := math.Min(dt, in.opts.MaxStep)
	in.cursor += step
	in.progress += step
}

// Remaining returns the path time left, before any delays are spent.
// It goes negative while DelayAfter and DelayBefore are being consumed.
func (in *Interpolator) Remaining() float64 {
	return in.opts.SecondsPerMarker*float64(len(in.markers)) - in.progress
}

// IsPathDepleted reports whether the path, including both delays, has been played.
// DelayBefore is part of the start offset as well as the threshold; DelayAfter only
// of the threshold.
func (in *Interpolator) IsPathDepleted() bool {
	return in.Remaining() <= -in.opts.DelayAfter-in.opts.DelayBefore
}

// CurrentPose returns the blended pose at the current cursor.
func (in *Interpolator) CurrentPose() core.Pose {
	return in.PoseAt(in.cursor)
}

// PoseAt returns the blended pose at timeline position t.
func (in *Interpolator) PoseAt(t float64) core.Pose {
	n := len(in.markers)
	raw := t / in.opts.SecondsPerMarker
	curr := clampIndex(int(math.Floor(raw+0.5)), n)

	alpha := SmoothFunc(float64(curr) - raw) // previous
	beta := SmoothFunc(raw - float64(curr))  // next
	self := 1 - alpha - beta

	last := in.markers[clampIndex(curr-1, n)]
	cur := in.markers[curr]
	next := in.markers[clampIndex(curr+1, n)]

	pos := last.Position.Mul(alpha).
		Add(cur.Position.Mul(self)).
		Add(next.Position.Mul(beta))

	return core.Pose{
		Position: pos,
		Yaw: NormalizeAngle(last.Yaw, cur.Yaw)*alpha +
			cur.Yaw*self +
			NormalizeAngle(next.Yaw, cur.Yaw)*beta,
		Pitch: NormalizeAngle(last.Pitch, cur.Pitch)*alpha +
			cur.Pitch*self +
			NormalizeAngle(next.Pitch, cur.Pitch)*beta,
	}
}

// Weights exposes the previous/next blend weights at timeline position t.
func (in *Interpolator) Weights(t float64) (alpha, beta float64) {
	raw := t / in.opts.SecondsPerMarker
	curr := clampIndex(int(math.Floor(raw+0.5)), len(in.markers))
	return SmoothFunc(float64(curr) - raw), SmoothFunc(raw - float64(curr))
}
