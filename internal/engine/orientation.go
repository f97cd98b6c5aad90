package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// YawPitch converts a view direction into engine angles in degrees.
// Yaw 0 looks along +Y and grows counter-clockwise; pitch is positive upwards.
func YawPitch(dir mgl64.Vec3) (yaw, pitch float64) {
	l := dir.Len()
	if l == 0 {
		return 0, 0
	}
	yaw = mgl64.RadToDeg(math.Atan2(-dir.X(), dir.Y()))
	if yaw < 0 {
		yaw += 360
	}
	pitch = mgl64.RadToDeg(math.Asin(dir.Z() / l))
	return yaw, pitch
}
