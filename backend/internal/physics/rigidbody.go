package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// RigidBody реализация Body в памяти процесса хоста
type RigidBody struct {
	id              string
	position        mgl64.Vec3
	rotation        mgl64.Quat
	velocity        mgl64.Vec3
	angularVelocity mgl64.Vec3
	bodyType        BodyType
	mass            float64
	radius          float64

	group      *BodyGroup
	groupIndex int
	destroyed  bool
}

// NewRigidBody создает динамическое тело в указанной позиции
func NewRigidBody(id string, position mgl64.Vec3, radius, mass float64) *RigidBody {
	if mass <= 0 {
		mass = 1.0
	}
	return &RigidBody{
		id:         id,
		position:   position,
		rotation:   mgl64.QuatIdent(),
		bodyType:   Dynamic,
		mass:       mass,
		radius:     radius,
		groupIndex: -1,
	}
}

func (b *RigidBody) ID() string { return b.id }

// Valid ложно для nil и уничтоженных тел
func (b *RigidBody) Valid() bool { return b != nil && !b.destroyed }

// Destroy помечает тело уничтоженным, все ссылки на него становятся невалидными
func (b *RigidBody) Destroy() { b.destroyed = true }

func (b *RigidBody) Position() mgl64.Vec3 { return b.position }

func (b *RigidBody) SetPosition(p mgl64.Vec3) { b.position = p }

func (b *RigidBody) Rotation() mgl64.Quat { return b.rotation }

func (b *RigidBody) SetRotation(q mgl64.Quat) { b.rotation = q.Normalize() }

func (b *RigidBody) Velocity() mgl64.Vec3 { return b.velocity }

func (b *RigidBody) SetVelocity(v mgl64.Vec3) { b.velocity = v }

func (b *RigidBody) AngularVelocity() mgl64.Vec3 { return b.angularVelocity }

func (b *RigidBody) SetAngularVelocity(w mgl64.Vec3) { b.angularVelocity = w }

func (b *RigidBody) BodyType() BodyType { return b.bodyType }

// SetBodyType меняет тип тела. Скорости не трогаются: статичное тело
// просто не интегрируется солвером.
func (b *RigidBody) SetBodyType(t BodyType) {
	b.bodyType = t
}

func (b *RigidBody) Mass() float64 { return b.mass }

// Radius радиус ограничивающей сферы (для трассировки лучей)
func (b *RigidBody) Radius() float64 { return b.radius }

func (b *RigidBody) Group() Group {
	if b.group == nil {
		return nil
	}
	return b.group
}

func (b *RigidBody) GroupIndex() int { return b.groupIndex }

// ApplyImpulseAt прикладывает импульс в мировой точке
func (b *RigidBody) ApplyImpulseAt(position, impulse mgl64.Vec3) {
	if b.bodyType == Static {
		return
	}
	b.velocity = b.velocity.Add(impulse.Mul(1.0 / b.mass))

	// Упрощенный тензор инерции сплошной сферы
	inertia := 0.4 * b.mass * b.radius * b.radius
	if inertia <= 0 {
		return
	}
	arm := position.Sub(b.position)
	b.angularVelocity = b.angularVelocity.Add(arm.Cross(impulse).Mul(1.0 / inertia))
}

// BodyGroup группа тел сочлененного объекта
type BodyGroup struct {
	bodies []*RigidBody
}

// NewBodyGroup собирает тела в группу и проставляет им индексы
func NewBodyGroup(bodies ...*RigidBody) *BodyGroup {
	g := &BodyGroup{bodies: bodies}
	for i, b := range bodies {
		b.group = g
		b.groupIndex = i
	}
	return g
}

// Body возвращает тело по индексу или nil
func (g *BodyGroup) Body(index int) Body {
	if index < 0 || index >= len(g.bodies) {
		return nil
	}
	return g.bodies[index]
}

func (g *BodyGroup) Bodies() []Body {
	result := make([]Body, 0, len(g.bodies))
	for _, b := range g.bodies {
		result = append(result, b)
	}
	return result
}

// Rigid возвращает тела группы с конкретным типом
func (g *BodyGroup) Rigid() []*RigidBody {
	return g.bodies
}

// FixedJoint сварка двух тел
type FixedJoint struct {
	body1, body2 Body
}

func NewFixedJoint(body1, body2 Body) *FixedJoint {
	return &FixedJoint{body1: body1, body2: body2}
}

func (j *FixedJoint) Body1() Body { return j.body1 }

func (j *FixedJoint) Body2() Body { return j.body2 }
