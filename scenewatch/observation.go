package scenewatch

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Observation is a single per-frame record from the external tracker:
// a stable identity, a class label, a bounding box in frame coordinates
// and the detector confidence. Identities absent from a frame's set of
// observations are implicitly "not observed".
type Observation struct {
	ID         uuid.UUID
	Label      string
	Box        Rectangle
	Confidence float64
}

func NewObservation(id uuid.UUID, label string, box Rectangle, confidence float64) Observation {
	return Observation{
		ID:         id,
		Label:      label,
		Box:        box,
		Confidence: confidence,
	}
}

// Validate checks observation geometry. Frame bounds of zero disable the
// out-of-frame check. A malformed observation is dropped for its identity
// only and never aborts whole-frame reconciliation.
func (obs Observation) Validate(frameWidth, frameHeight float64) error {
	if obs.Box.Width <= 0 || obs.Box.Height <= 0 {
		return errors.Errorf("non-positive bounding box %fx%f for observation %s", obs.Box.Width, obs.Box.Height, obs.ID.String())
	}
	if frameWidth > 0 && frameHeight > 0 {
		if obs.Box.X < 0 || obs.Box.Y < 0 || obs.Box.X+obs.Box.Width > frameWidth || obs.Box.Y+obs.Box.Height > frameHeight {
			return errors.Errorf("bounding box of observation %s is outside of frame bounds %fx%f", obs.ID.String(), frameWidth, frameHeight)
		}
	}
	return nil
}
