package scenewatch

import (
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// EntityState is the lifecycle state of a tracked entity
type EntityState uint16

const (
	// StateCandidate is a never-before-confirmed identity accumulating presence
	StateCandidate EntityState = iota
	// StateBaseline is an identity established as part of the scene
	StateBaseline
	// StateMissingPending is a baseline identity whose absence is not confirmed yet
	StateMissingPending
	// StateMissing is a confirmed-missing identity kept for the retention window
	StateMissing
	// StateReturning is a missing identity re-accumulating presence
	StateReturning
)

func (state EntityState) String() string {
	switch state {
	case StateCandidate:
		return "candidate"
	case StateBaseline:
		return "baseline"
	case StateMissingPending:
		return "missing_pending"
	case StateMissing:
		return "missing"
	case StateReturning:
		return "returning"
	default:
		return "unknown"
	}
}

// TrackedEntity is the registry's belief about a single identity: lifecycle
// state, hysteresis streaks and last known geometry. Geometry is smoothed by
// an 8-D Kalman filter over the full bounding box [cx, cy, w, h] + velocities,
// which also coasts the box forward while the identity is unseen.
type TrackedEntity struct {
	id              uuid.UUID
	label           string
	state           EntityState
	currentBBox     Rectangle
	predictedBBox   Rectangle
	missingFromBBox Rectangle
	track           []Point
	maxTrackLen     int
	presenceStreak  int
	absenceStreak   int
	firstSeenFrame  int
	lastSeenFrame   int
	diagonal        float64
	tracker         *kalman_filter.KalmanBBox
}

// NewTrackedEntity creates a candidate entity from its first observation.
// dt is the time step between frames (e.g. 1.0/25.0 for 25 fps).
func NewTrackedEntity(obs Observation, frame int, dt float64) *TrackedEntity {
	centerX := obs.Box.X + obs.Box.Width/2.0
	centerY := obs.Box.Y + obs.Box.Height/2.0
	diagonal := math.Sqrt(math.Pow(obs.Box.Width, 2) + math.Pow(obs.Box.Height, 2))

	// Kalman filter props
	uCx := 1.0
	uCy := 1.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	kf := kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(centerX, centerY, obs.Box.Width, obs.Box.Height),
	)

	entity := TrackedEntity{
		id:          obs.ID,
		label:       obs.Label,
		state:       StateCandidate,
		currentBBox: obs.Box,
		predictedBBox: Rectangle{
			X:      obs.Box.X,
			Y:      obs.Box.Y,
			Width:  obs.Box.Width,
			Height: obs.Box.Height,
		},
		track:          make([]Point, 0, 150),
		maxTrackLen:    150,
		presenceStreak: 1,
		absenceStreak:  0,
		firstSeenFrame: frame,
		lastSeenFrame:  frame,
		diagonal:       diagonal,
		tracker:        kf,
	}
	entity.track = append(entity.track, Point{X: centerX, Y: centerY})
	return &entity
}

// GetID returns entity's identifier
func (entity *TrackedEntity) GetID() uuid.UUID {
	return entity.id
}

// GetLabel returns entity's class label
func (entity *TrackedEntity) GetLabel() string {
	return entity.label
}

// GetState returns entity's lifecycle state
func (entity *TrackedEntity) GetState() EntityState {
	return entity.state
}

// GetCenter returns entity's current center
func (entity *TrackedEntity) GetCenter() Point {
	return entity.currentBBox.Center()
}

// GetBBox returns entity's last known (smoothed) bounding box
func (entity *TrackedEntity) GetBBox() Rectangle {
	return entity.currentBBox
}

// GetPredictedBBox returns predicted bounding box from Kalman filter
func (entity *TrackedEntity) GetPredictedBBox() Rectangle {
	return entity.predictedBBox
}

// GetDiagonal returns entity's estimated diagonal
func (entity *TrackedEntity) GetDiagonal() float64 {
	return entity.diagonal
}

// GetTrack returns entity's center history. Be careful: this is not copy of track, but reference to it
func (entity *TrackedEntity) GetTrack() []Point {
	return entity.track
}

// GetMaxTrackLen returns entity's max track length
func (entity *TrackedEntity) GetMaxTrackLen() int {
	return entity.maxTrackLen
}

// SetMaxTrackLen sets entity's max track length
func (entity *TrackedEntity) SetMaxTrackLen(newMaxTrackLen int) {
	entity.maxTrackLen = newMaxTrackLen
}

// GetPresenceStreak returns consecutive frames seen. Resets to 0 on any absence
func (entity *TrackedEntity) GetPresenceStreak() int {
	return entity.presenceStreak
}

// GetAbsenceStreak returns consecutive frames unseen. Resets to 0 on any presence
func (entity *TrackedEntity) GetAbsenceStreak() int {
	return entity.absenceStreak
}

// GetFirstSeenFrame returns the frame-clock value of the first observation
func (entity *TrackedEntity) GetFirstSeenFrame() int {
	return entity.firstSeenFrame
}

// GetLastSeenFrame returns the frame-clock value of the latest observation
func (entity *TrackedEntity) GetLastSeenFrame() int {
	return entity.lastSeenFrame
}

// GetVelocity returns current velocity estimates (vx, vy, vw, vh) from Kalman filter
func (entity *TrackedEntity) GetVelocity() (float64, float64, float64, float64) {
	return entity.tracker.GetVelocity()
}

// markSeen advances the Kalman filter one step and folds the observed box in.
// Streak invariant: presence and absence are never both nonzero.
func (entity *TrackedEntity) markSeen(frame int, box Rectangle) error {
	entity.tracker.Predict()

	newCx := box.X + box.Width/2.0
	newCy := box.Y + box.Height/2.0
	err := entity.tracker.Update(newCx, newCy, box.Width, box.Height)
	if err != nil {
		return errors.Wrapf(err, "Can't update entity tracker %s", entity.id.String())
	}

	cx, cy, w, h := entity.tracker.GetState()
	entity.currentBBox = Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
	entity.predictedBBox = entity.currentBBox
	entity.diagonal = math.Sqrt(math.Pow(w, 2) + math.Pow(h, 2))

	entity.presenceStreak++
	entity.absenceStreak = 0
	entity.lastSeenFrame = frame

	entity.track = append(entity.track, Point{X: cx, Y: cy})
	if len(entity.track) > entity.maxTrackLen {
		entity.track = entity.track[1:]
	}
	return nil
}

// markUnseen advances the Kalman filter prediction only, coasting the
// predicted box forward without folding in a measurement.
func (entity *TrackedEntity) markUnseen() {
	entity.tracker.Predict()
	cx, cy, w, h := entity.tracker.GetState()
	entity.predictedBBox = Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}

	entity.absenceStreak++
	entity.presenceStreak = 0
}
