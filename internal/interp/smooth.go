package interp

import "math"

// SmoothFunc is the falloff used to weight neighbouring markers.
// It is 0 up to -0.5, 1 from 0.5, and a quadratic ease in between
// (0 at -0.5, 0.5 at 0.5). The jump to 1 at 0.5 is intended.
func SmoothFunc(x float64) float64 {
	switch {
	case x <= -0.5:
		return 0
	case x >= 0.5:
		return 1
	default:
		return 0.5 * math.Pow(math.Abs(x+0.5), 2)
	}
}

// NormalizeAngle shifts angle by whole turns so that it lies within
// 180 degrees of relativeTo, i.e. in (relativeTo-180, relativeTo+180].
func NormalizeAngle(angle, relativeTo float64) float64 {
	for angle > relativeTo+180 {
		angle -= 360
	}
	for angle <= relativeTo-180 {
		angle += 360
	}
	return angle
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
