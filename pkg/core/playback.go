// pkg/core/playback.go
package core

import "time"

// PlaybackRecord is written once per finished cutscene session.
type PlaybackRecord struct {
	ID         uint      `json:"id"`
	Cutscene   string    `json:"cutscene"`
	StartedAt  time.Time `json:"startedAt"`
	EndedAt    time.Time `json:"endedAt"`
	Ticks      uint      `json:"ticks"`
	Elapsed    float64   `json:"elapsed"` // host seconds fed to the session, unclamped
	Cancelled  bool      `json:"cancelled"`
	Stopped    bool      `json:"stopped"`
	DeathCam   bool      `json:"deathCam"`
	MaxFrameDt float64   `json:"maxFrameDt"`
}

// Duration returns the wall-clock duration of the session.
func (r PlaybackRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Outcome names how the session ended: cancelled, stopped or completed.
func (r PlaybackRecord) Outcome() string {
	switch {
	case r.Cancelled:
		return "cancelled"
	case r.Stopped:
		return "stopped"
	default:
		return "completed"
	}
}
