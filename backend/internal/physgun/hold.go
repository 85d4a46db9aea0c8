package physgun

import (
	"github.com/go-gl/mathgl/mgl64"

	"physgun-server/backend/internal/physics"
)

// Update контроллер удержания: каждый тик тянет тело к HoldPos/HoldRot.
// Работает только там, где захваченный объект не прокси (у хоста).
func (g *Gun) Update(deltaTime float64) {
	if deltaTime <= 0 {
		return
	}

	obj := g.grabbedObject()
	if obj == nil || obj.IsProxy(string(g.net.LocalID())) {
		return
	}

	body := g.heldBody()
	if body == nil {
		return
	}

	st := g.state.Get()

	_, velocity := physics.SmoothDamp(body.Position(), st.HoldPos, body.Velocity(), g.cfg.SmoothTime, deltaTime)
	body.SetVelocity(velocity)

	angular := physics.SmoothDampRotation(body.Rotation(), st.HoldRot, body.AngularVelocity(), g.cfg.SmoothTime, deltaTime)
	body.SetAngularVelocity(angular)
}

// holdPose целевая поза тела для текущего взгляда владельца
func (g *Gun) holdPose(view View, body physics.Body) (mgl64.Vec3, mgl64.Quat) {
	aim := view.AimRay()

	pos := aim.Position.
		Sub(body.Rotation().Rotate(g.heldPos)).
		Add(aim.Forward.Mul(g.holdDistance))
	rot := view.Eye.ToQuat().Mul(g.heldRot).Normalize()

	return pos, rot
}

// MoveTargetDistance меняет дистанцию удержания с учетом ограничений
func (g *Gun) MoveTargetDistance(delta float64) {
	if delta == 0 {
		return
	}
	g.holdDistance = g.cfg.ClampDistance(g.holdDistance + delta)
}

// DoRotate вращает удерживаемый объект смещением мыши. Оси поворота
// строятся в системе камеры и переводятся обратно через eye.
func (g *Gun) DoRotate(eye mgl64.Quat, delta mgl64.Vec2) {
	if delta.X() == 0 && delta.Y() == 0 {
		return
	}

	yaw := physics.FromAxis(physics.Up, delta.X()*g.cfg.RotateSpeed)
	pitch := physics.FromAxis(physics.Right, delta.Y()*g.cfg.RotateSpeed)

	local := eye.Inverse().Mul(eye.Mul(yaw).Mul(pitch))
	g.heldRot = local.Mul(g.heldRot).Normalize()
}
