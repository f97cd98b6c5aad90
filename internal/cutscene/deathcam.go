package cutscene

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCAP2/cutscene/internal/engine"
)

const (
	deathCamTries       = 25
	deathCamMinDistance = 75.0
	deathCamDistSpread  = 50.0
)

// DeathCamera looks for a view position with line of sight to target and
// returns a hold that keeps framing the target until the player is alive
// again. It returns false when no position was found.
func DeathCamera(h engine.Host, target mgl64.Vec3, rng *rand.Rand) (*Hold, bool) {
	for range deathCamTries {
		dir := randomDirection(rng)
		view := target.Add(dir.Mul(deathCamMinDistance + rng.Float64()*deathCamDistSpread))
		if !h.HasLineOfSight(view, target) {
			continue
		}

		track := &Track{
			Position: view,
			Target:   target,
			Until: func(h engine.Host) bool {
				return h.Player().Health > 0
			},
		}
		hold, _ := NewHold(track)
		return hold, true
	}
	return nil, false
}

func randomDirection(rng *rand.Rand) mgl64.Vec3 {
	for {
		v := mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		if l := v.Len(); l > 1e-9 {
			return v.Mul(1 / l)
		}
	}
}
