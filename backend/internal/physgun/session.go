package physgun

import (
	"github.com/go-gl/mathgl/mgl64"

	"physgun-server/backend/internal/physics"
	"physgun-server/backend/internal/scene"
)

// SessionState синхронизируемое состояние захвата. Пишет только владелец пушки.
type SessionState struct {
	Beaming       bool           `json:"beaming"`
	HoldPos       mgl64.Vec3     `json:"hold_pos"`
	HoldRot       mgl64.Quat     `json:"hold_rot"`
	GrabbedObject scene.ObjectID `json:"grabbed_object,omitempty"`
	GrabbedPos    mgl64.Vec3     `json:"grabbed_pos"`
	GrabbedBone   int            `json:"grabbed_bone"`
}

// emptySession состояние без захваченного объекта
func emptySession() SessionState {
	return SessionState{HoldRot: mgl64.QuatIdent(), GrabbedBone: -1}
}

// cleared то же состояние без захвата; Beaming сохраняется
func (s SessionState) cleared() SessionState {
	c := emptySession()
	c.Beaming = s.Beaming
	return c
}

// SyncPayload полезная нагрузка сообщения sync
type SyncPayload struct {
	Gun     string       `json:"gun"`
	Version uint64       `json:"version"`
	State   SessionState `json:"state"`
}

// heldMemo закешированное тело, вычисленное из (объект, кость)
type heldMemo struct {
	object scene.ObjectID
	bone   int
	body   physics.Body
}
