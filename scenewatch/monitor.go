package scenewatch

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MonitorOption configures optional collaborators of a SceneMonitor
type MonitorOption func(*SceneMonitor)

// WithSink attaches a sink that receives every emitted event in addition to
// the events returned from ProcessFrame
func WithSink(sink Sink) MonitorOption {
	return func(monitor *SceneMonitor) {
		monitor.sink = sink
	}
}

// WithLogger attaches a logger for state transition diagnostics. Without it
// the monitor stays silent.
func WithLogger(logger *slog.Logger) MonitorOption {
	return func(monitor *SceneMonitor) {
		monitor.logger = logger
	}
}

// MonitorMetrics are running totals of the monitor since creation or the
// last reset
type MonitorMetrics struct {
	FramesProcessed int
	BaselineSize    int
	TotalNew        int
	TotalMissing    int
	TotalReturned   int
	TrackedEntities int
	Uptime          time.Duration
}

// SceneMonitor converts noisy frame-by-frame tracker output into debounced
// scene change events. It owns the frame clock and the entity registry; all
// mutation happens inside a single frame's reconciliation pass. Invoke it
// from one goroutine only (see FrameQueue for decoupling acquisition).
type SceneMonitor struct {
	cfg      Config
	registry *Registry
	builder  *baselineBuilder
	// Monotonic frame counter, used for all age/threshold arithmetic
	frameIndex  int
	established bool
	sink        Sink
	logger      *slog.Logger
	startedAt   time.Time
	totalNew    int
	totalMiss   int
	totalReturn int
}

// NewSceneMonitor creates a monitor for one scene. The configuration is
// validated up front: the monitor never starts with invalid thresholds.
func NewSceneMonitor(cfg Config, options ...MonitorOption) (*SceneMonitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Invalid scene monitor configuration")
	}
	monitor := &SceneMonitor{
		cfg:       cfg,
		registry:  NewRegistry(),
		builder:   newBaselineBuilder(cfg.BaselineWindow, cfg.StableFraction),
		startedAt: time.Now(),
	}
	for _, option := range options {
		option(monitor)
	}
	return monitor, nil
}

// Reset discards all scene memory and returns to the baseline phase
func (monitor *SceneMonitor) Reset() {
	monitor.registry = NewRegistry()
	monitor.builder = newBaselineBuilder(monitor.cfg.BaselineWindow, monitor.cfg.StableFraction)
	monitor.frameIndex = 0
	monitor.established = false
	monitor.startedAt = time.Now()
	monitor.totalNew = 0
	monitor.totalMiss = 0
	monitor.totalReturn = 0
	if monitor.logger != nil {
		monitor.logger.Info("scene monitor reset")
	}
}

// FrameIndex returns the current frame-clock value
func (monitor *SceneMonitor) FrameIndex() int {
	return monitor.frameIndex
}

// BaselineEstablished reports whether the startup baseline phase is over
func (monitor *SceneMonitor) BaselineEstablished() bool {
	return monitor.established
}

// Baseline returns the identities currently established as part of the
// scene, in ascending order
func (monitor *SceneMonitor) Baseline() []uuid.UUID {
	return monitor.registry.BaselineIDs()
}

// Entity returns the tracked entity for the given identity if it is still
// within the retention window
func (monitor *SceneMonitor) Entity(id uuid.UUID) (*TrackedEntity, bool) {
	return monitor.registry.Get(id)
}

// EntityTrack returns the bounded center history of an identity
func (monitor *SceneMonitor) EntityTrack(id uuid.UUID) ([]Point, bool) {
	entity, ok := monitor.registry.Get(id)
	if !ok {
		return nil, false
	}
	return entity.GetTrack(), true
}

// Metrics returns running totals of the monitor
func (monitor *SceneMonitor) Metrics() MonitorMetrics {
	return MonitorMetrics{
		FramesProcessed: monitor.frameIndex,
		BaselineSize:    len(monitor.registry.BaselineIDs()),
		TotalNew:        monitor.totalNew,
		TotalMissing:    monitor.totalMiss,
		TotalReturned:   monitor.totalReturn,
		TrackedEntities: monitor.registry.Len(),
		Uptime:          time.Since(monitor.startedAt),
	}
}

// ProcessFrame advances the frame clock and reconciles one frame's
// observations against the registry. During the baseline window frames feed
// the baseline builder and no events are emitted. Afterwards every frame
// yields zero or more change events, ordered by ascending entity identity.
// Events collected before an error are still returned.
func (monitor *SceneMonitor) ProcessFrame(observations []Observation) ([]ChangeEvent, error) {
	monitor.frameIndex++
	observed := monitor.collectValid(observations)

	if !monitor.established {
		monitor.builder.ingest(monitor.frameIndex, observed)
		if monitor.builder.done() {
			monitor.establishBaseline()
		}
		return nil, nil
	}

	events := make([]ChangeEvent, 0)

	// Walk known identities in ascending order, applying the observed or
	// unobserved half of the state table
	for _, id := range monitor.registry.IDs() {
		entity := monitor.registry.Entities[id]
		if obs, ok := observed[id]; ok {
			delete(observed, id)
			event, err := monitor.reconcileSeen(entity, obs)
			if err != nil {
				return events, err
			}
			if event != nil {
				events = append(events, *event)
			}
		} else {
			if event := monitor.reconcileUnseen(entity); event != nil {
				events = append(events, *event)
			}
		}
	}

	// Remaining observations belong to never-before-seen identities
	newIDs := make([]uuid.UUID, 0, len(observed))
	for id := range observed {
		newIDs = append(newIDs, id)
	}
	sortIDs(newIDs)
	for _, id := range newIDs {
		entity := monitor.registry.GetOrCreate(observed[id], monitor.frameIndex, monitor.cfg.DT)
		if entity.presenceStreak >= monitor.cfg.NNew {
			events = append(events, *monitor.promoteNew(entity))
		}
	}

	for _, id := range monitor.registry.Prune(monitor.cfg.RetentionWindow) {
		if monitor.logger != nil {
			monitor.logger.Debug("entity pruned from registry", "entity", id.String(), "frame", monitor.frameIndex)
		}
	}

	if monitor.sink != nil {
		for _, event := range events {
			monitor.sink.Push(event)
		}
	}
	return events, nil
}

// collectValid builds the observed-identity set for this frame, dropping
// malformed observations so one corrupt detection cannot stall the pipeline.
// A duplicated identity keeps its latest observation.
func (monitor *SceneMonitor) collectValid(observations []Observation) map[uuid.UUID]Observation {
	observed := make(map[uuid.UUID]Observation, len(observations))
	for _, obs := range observations {
		if err := obs.Validate(monitor.cfg.FrameWidth, monitor.cfg.FrameHeight); err != nil {
			if monitor.logger != nil {
				monitor.logger.Warn("malformed observation dropped", "error", err.Error(), "frame", monitor.frameIndex)
			}
			continue
		}
		observed[obs.ID] = obs
	}
	return observed
}

func (monitor *SceneMonitor) establishBaseline() {
	entities := monitor.builder.establish(monitor.cfg.DT)
	for _, entity := range entities {
		monitor.registry.Entities[entity.id] = entity
	}
	monitor.established = true
	if monitor.logger != nil {
		monitor.logger.Info("scene baseline established", "objects", len(entities), "frame", monitor.frameIndex)
	}
}

// reconcileSeen applies the "observed this frame" half of the state table
func (monitor *SceneMonitor) reconcileSeen(entity *TrackedEntity, obs Observation) (*ChangeEvent, error) {
	if err := entity.markSeen(monitor.frameIndex, obs.Box); err != nil {
		return nil, err
	}
	entity.label = obs.Label

	switch entity.state {
	case StateCandidate:
		if entity.presenceStreak >= monitor.cfg.NNew {
			return monitor.promoteNew(entity), nil
		}
	case StateBaseline:
		// Steady presence, nothing to confirm
	case StateMissingPending, StateMissing:
		entity.state = StateReturning
		if entity.presenceStreak >= monitor.cfg.NReturn {
			return monitor.promoteReturned(entity), nil
		}
	case StateReturning:
		if entity.presenceStreak >= monitor.cfg.NReturn {
			return monitor.promoteReturned(entity), nil
		}
	}
	return nil, nil
}

// reconcileUnseen applies the "not observed this frame" half of the state
// table. At most one transition happens per entity per frame, so the
// missing confirmation always lands on a later frame than the transition
// into the pending state.
func (monitor *SceneMonitor) reconcileUnseen(entity *TrackedEntity) *ChangeEvent {
	entity.markUnseen()

	switch entity.state {
	case StateCandidate:
		// Presence streak was reset, the candidate must re-accumulate
	case StateBaseline:
		if entity.absenceStreak >= monitor.cfg.MMissing {
			entity.state = StateMissingPending
			entity.missingFromBBox = entity.currentBBox
		}
	case StateMissingPending:
		if entity.absenceStreak >= monitor.cfg.MMissing+monitor.cfg.ConfirmDelay {
			entity.state = StateMissing
			monitor.totalMiss++
			if monitor.logger != nil {
				monitor.logger.Info("object confirmed missing", "entity", entity.id.String(), "label", entity.label, "frame", monitor.frameIndex)
			}
			return &ChangeEvent{
				Kind:       EventObjectMissing,
				EntityID:   entity.id,
				Label:      entity.label,
				Box:        entity.currentBBox,
				FrameIndex: monitor.frameIndex,
			}
		}
	case StateMissing:
		// Aging towards the retention window, pruning handles the exit
	case StateReturning:
		// Flicker during return, back to pending rather than restarting as candidate
		entity.state = StateMissingPending
	}
	return nil
}

func (monitor *SceneMonitor) promoteNew(entity *TrackedEntity) *ChangeEvent {
	entity.state = StateBaseline
	monitor.totalNew++
	if monitor.logger != nil {
		monitor.logger.Info("new object confirmed", "entity", entity.id.String(), "label", entity.label, "frame", monitor.frameIndex)
	}
	return &ChangeEvent{
		Kind:       EventNewObject,
		EntityID:   entity.id,
		Label:      entity.label,
		Box:        entity.currentBBox,
		FrameIndex: monitor.frameIndex,
	}
}

func (monitor *SceneMonitor) promoteReturned(entity *TrackedEntity) *ChangeEvent {
	entity.state = StateBaseline
	monitor.totalReturn++
	drift := &Drift{
		Distance: euclideanDistance(entity.missingFromBBox.Center(), entity.currentBBox.Center()),
		IoU:      IoU(entity.missingFromBBox, entity.currentBBox),
	}
	if monitor.logger != nil {
		monitor.logger.Info("object returned", "entity", entity.id.String(), "label", entity.label, "frame", monitor.frameIndex, "drift", drift.Distance)
	}
	return &ChangeEvent{
		Kind:       EventObjectReturned,
		EntityID:   entity.id,
		Label:      entity.label,
		Box:        entity.currentBBox,
		FrameIndex: monitor.frameIndex,
		Drift:      drift,
	}
}
