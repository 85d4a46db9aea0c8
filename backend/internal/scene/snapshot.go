package scene

import (
	"physgun-server/backend/internal/physics"
)

// Snapshot состояние всех тел сцены, рассылаемое хостом
type Snapshot struct {
	Tick   uint64              `json:"tick"`
	Bodies []physics.BodyState `json:"bodies"`
}

// Capture снимает состояние всех тел
func (m *Manager) Capture(tick uint64) Snapshot {
	bodies := m.RigidBodies()
	snap := Snapshot{Tick: tick, Bodies: make([]physics.BodyState, 0, len(bodies))}
	for _, b := range bodies {
		snap.Bodies = append(snap.Bodies, physics.Capture(b))
	}
	return snap
}

// ApplySnapshot переносит состояние в локальные копии тел.
// Тела, которых нет локально, пропускаются.
func (m *Manager) ApplySnapshot(snap Snapshot) int {
	index := make(map[string]*physics.RigidBody)
	for _, b := range m.RigidBodies() {
		index[b.ID()] = b
	}

	applied := 0
	for _, state := range snap.Bodies {
		if b, ok := index[state.ID]; ok {
			state.Apply(b)
			applied++
		}
	}
	return applied
}
