package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BodyState снимок состояния тела для репликации и удаленного солвера
type BodyState struct {
	ID              string     `json:"id"`
	Position        [3]float64 `json:"position"`
	Rotation        [4]float64 `json:"rotation"` // x, y, z, w
	Velocity        [3]float64 `json:"velocity"`
	AngularVelocity [3]float64 `json:"angular_velocity"`
	Static          bool       `json:"static"`
	Mass            float64    `json:"mass"`
	Radius          float64    `json:"radius"`
}

// Capture снимает состояние тела
func Capture(b *RigidBody) BodyState {
	return BodyState{
		ID:              b.id,
		Position:        b.position,
		Rotation:        [4]float64{b.rotation.V[0], b.rotation.V[1], b.rotation.V[2], b.rotation.W},
		Velocity:        b.velocity,
		AngularVelocity: b.angularVelocity,
		Static:          b.bodyType == Static,
		Mass:            b.mass,
		Radius:          b.radius,
	}
}

// Apply переносит снимок в тело. ID и масса не меняются.
func (s BodyState) Apply(b *RigidBody) {
	b.position = s.Position
	b.rotation = mgl64.Quat{W: s.Rotation[3], V: mgl64.Vec3{s.Rotation[0], s.Rotation[1], s.Rotation[2]}}.Normalize()
	b.velocity = s.Velocity
	b.angularVelocity = s.AngularVelocity
	if s.Static {
		b.bodyType = Static
	} else {
		b.bodyType = Dynamic
	}
}
