package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmoothFunc(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{name: "far below", x: -3, want: 0},
		{name: "lower bound", x: -0.5, want: 0},
		{name: "centre", x: 0, want: 0.125},
		{name: "just below upper", x: 0.4999999, want: 0.5},
		{name: "upper bound", x: 0.5, want: 1},
		{name: "far above", x: 7, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SmoothFunc(tt.x), 1e-6)
		})
	}
}

func TestSmoothFunc_ContinuousAtLowerBound(t *testing.T) {
	assert.InDelta(t, 0, SmoothFunc(-0.5+1e-9), 1e-12)
	assert.InDelta(t, 0, SmoothFunc(-0.5-1e-9), 1e-12)
}

func TestSmoothFunc_Monotonic(t *testing.T) {
	prev := SmoothFunc(-1)
	for x := -1.0; x <= 1.0; x += 0.01 {
		v := SmoothFunc(x)
		assert.GreaterOrEqual(t, v, prev, "x=%f", x)
		prev = v
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		name       string
		angle      float64
		relativeTo float64
		want       float64
	}{
		{name: "already close", angle: 20, relativeTo: 10, want: 20},
		{name: "wrap down", angle: 350, relativeTo: 10, want: -10},
		{name: "wrap up", angle: 10, relativeTo: 350, want: 370},
		{name: "several turns", angle: 1090, relativeTo: 0, want: 10},
		{name: "negative input", angle: -710, relativeTo: 0, want: 10},
		{name: "exactly opposite stays above", angle: 190, relativeTo: 10, want: 190},
		{name: "exactly opposite below wraps", angle: -170, relativeTo: 10, want: 190},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NormalizeAngle(tt.angle, tt.relativeTo), 1e-9)
		})
	}
}

func TestClampIndex(t *testing.T) {
	assert.Equal(t, 0, clampIndex(-1, 3))
	assert.Equal(t, 2, clampIndex(2, 3))
	assert.Equal(t, 2, clampIndex(5, 3))
	assert.Equal(t, 0, clampIndex(4, 1))
}
