// pkg/core/marker.go
package core

import "github.com/go-gl/mathgl/mgl64"

// Marker is one authored waypoint of a camera path. Angles are in degrees.
type Marker struct {
	Position mgl64.Vec3 `json:"position" yaml:"position"`
	Yaw      float64    `json:"yaw" yaml:"yaw"`
	Pitch    float64    `json:"pitch" yaml:"pitch"`
}

// Pose is a full camera placement as handed to the host camera sink.
type Pose struct {
	Position mgl64.Vec3
	Yaw      float64
	Pitch    float64
	Roll     float64
}

// PoseOf returns the pose resting exactly on m.
func PoseOf(m Marker) Pose {
	return Pose{Position: m.Position, Yaw: m.Yaw, Pitch: m.Pitch}
}

// Array flattens the pose into the host's forceCamera argument order.
func (p Pose) Array() [6]float64 {
	return [6]float64{p.Position.X(), p.Position.Y(), p.Position.Z(), p.Yaw, p.Pitch, p.Roll}
}
