package scenewatch

import (
	"github.com/google/uuid"
)

// baselineCandidate accumulates appearances of one identity during the
// baseline window
type baselineCandidate struct {
	hits       int
	lastObs    Observation
	firstFrame int
	lastFrame  int
}

// baselineBuilder establishes the initial scene baseline from the first
// window of observations. It is a clean-slate bootstrap: identities that do
// not qualify are discarded, not carried forward as candidates.
type baselineBuilder struct {
	window         int
	stableFraction float64
	framesSeen     int
	candidates     map[uuid.UUID]*baselineCandidate
}

func newBaselineBuilder(window int, stableFraction float64) *baselineBuilder {
	return &baselineBuilder{
		window:         window,
		stableFraction: stableFraction,
		candidates:     make(map[uuid.UUID]*baselineCandidate),
	}
}

// ingest feeds one frame's validated observations into the builder
func (builder *baselineBuilder) ingest(frame int, observed map[uuid.UUID]Observation) {
	builder.framesSeen++
	for id, obs := range observed {
		candidate, ok := builder.candidates[id]
		if !ok {
			candidate = &baselineCandidate{
				firstFrame: frame,
			}
			builder.candidates[id] = candidate
		}
		candidate.hits++
		candidate.lastObs = obs
		candidate.lastFrame = frame
	}
}

// done reports whether the baseline window has elapsed
func (builder *baselineBuilder) done() bool {
	return builder.framesSeen >= builder.window
}

// establish promotes every qualifying identity directly to the baseline
// state and returns the resulting entities. An identity qualifies only if it
// appeared in at least stableFraction of the window, so a single spurious
// detection cannot seed a false baseline member. An empty result is a valid
// baseline (a scene with nothing in it).
func (builder *baselineBuilder) establish(dt float64) []*TrackedEntity {
	required := builder.stableFraction * float64(builder.window)
	entities := make([]*TrackedEntity, 0, len(builder.candidates))
	for _, candidate := range builder.candidates {
		if float64(candidate.hits) < required {
			continue
		}
		entity := NewTrackedEntity(candidate.lastObs, candidate.firstFrame, dt)
		entity.state = StateBaseline
		entity.lastSeenFrame = candidate.lastFrame
		// Streaks start clean, steady-state reconciliation owns them from here
		entity.presenceStreak = 0
		entity.absenceStreak = 0
		entities = append(entities, entity)
	}
	return entities
}
