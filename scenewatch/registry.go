package scenewatch

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// Registry holds the current belief about every identity within the
// retention window. It is exclusively owned by the scene monitor and is
// mutated only during a single frame's reconciliation, so it needs no
// internal locking.
type Registry struct {
	// Main storage
	Entities map[uuid.UUID]*TrackedEntity
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		Entities: make(map[uuid.UUID]*TrackedEntity),
	}
}

// Get returns the entity for the given identity if it exists
func (registry *Registry) Get(id uuid.UUID) (*TrackedEntity, bool) {
	entity, ok := registry.Entities[id]
	return entity, ok
}

// GetOrCreate returns the existing entity for the observation's identity or
// creates a fresh candidate with a presence streak of one.
func (registry *Registry) GetOrCreate(obs Observation, frame int, dt float64) *TrackedEntity {
	if entity, ok := registry.Entities[obs.ID]; ok {
		return entity
	}
	entity := NewTrackedEntity(obs, frame, dt)
	registry.Entities[obs.ID] = entity
	return entity
}

// Len returns the number of entities currently held
func (registry *Registry) Len() int {
	return len(registry.Entities)
}

// IDs returns all identities in ascending order. Reconciliation walks this
// order so that emitted events are deterministic.
func (registry *Registry) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(registry.Entities))
	for id := range registry.Entities {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// BaselineIDs returns the identities currently established as part of the
// scene, in ascending order. Baseline membership is derived from entity
// state, there is no separate collection to drift out of sync.
func (registry *Registry) BaselineIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(registry.Entities))
	for id, entity := range registry.Entities {
		if entity.state == StateBaseline {
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	return ids
}

// Prune removes entities whose absence streak reached the retention window:
// confirmed-missing entities past their retention and stale candidates that
// never stabilized. A pruned identity reappearing later starts over as a
// brand-new candidate. Returns removed identities in ascending order.
func (registry *Registry) Prune(retentionWindow int) []uuid.UUID {
	removed := make([]uuid.UUID, 0)
	for id, entity := range registry.Entities {
		if entity.absenceStreak < retentionWindow {
			continue
		}
		if entity.state == StateMissing || entity.state == StateCandidate {
			delete(registry.Entities, id)
			removed = append(removed, id)
		}
	}
	sortIDs(removed)
	return removed
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
