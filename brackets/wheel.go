package brackets

import (
	"math"

	"github.com/Dosada05/tournament-matchups/models"
)

const (
	minTurns   = 5
	extraTurns = 5
	// pointerAngle is where the wheel's pointer sits, measured the same way
	// as the rotation.
	pointerAngle = 90.0
)

// SpinResult describes a wheel spin: the winner and the rotation a client
// should animate to so the wheel comes to rest on the winner's segment.
type SpinResult struct {
	Winner   models.Participant `json:"winner"`
	Index    int                `json:"index"`
	Rotation float64            `json:"rotation"`
	Turns    int                `json:"turns"`
}

// Spin picks one entrant uniformly at random. The resting angle is drawn from
// a continuous uniform distribution, so each equal-width segment is equally
// likely whatever the entrant count.
func (e *Engine) Spin(entrants []models.Participant) (*SpinResult, error) {
	if len(entrants) == 0 {
		return nil, ErrNoEntrants
	}
	turns := minTurns + e.rng.Intn(extraTurns)
	rotation := float64(turns)*360 + e.rng.Float64()*360
	idx := SegmentAt(rotation, len(entrants))
	return &SpinResult{
		Winner:   entrants[idx],
		Index:    idx,
		Rotation: rotation,
		Turns:    turns,
	}, nil
}

// SegmentAt maps a total rotation in degrees to the index of the segment
// under the pointer on a wheel of n equal segments.
func SegmentAt(rotation float64, n int) int {
	segment := 360 / float64(n)
	rest := math.Mod(rotation, 360)
	if rest < 0 {
		rest += 360
	}
	under := math.Mod(360-rest+pointerAngle, 360)
	idx := int(under / segment)
	if idx >= n {
		idx = n - 1
	}
	return idx
}
