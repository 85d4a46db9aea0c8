package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BodyType определяет, участвует ли тело в симуляции
type BodyType int

const (
	Dynamic BodyType = iota // Тело двигается под действием сил
	Static                  // Тело заморожено на месте
)

func (t BodyType) String() string {
	switch t {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Body контракт физического тела, которым пользуется игровая логика.
// Внутренности солвера (интеграция, ответ на столкновения) скрыты за этим интерфейсом.
type Body interface {
	ID() string
	Valid() bool

	Position() mgl64.Vec3
	Rotation() mgl64.Quat

	Velocity() mgl64.Vec3
	SetVelocity(v mgl64.Vec3)

	AngularVelocity() mgl64.Vec3
	SetAngularVelocity(w mgl64.Vec3)

	BodyType() BodyType
	SetBodyType(t BodyType)

	Mass() float64

	// Group возвращает группу сочлененного тела или nil для одиночного тела
	Group() Group
	// GroupIndex индекс тела внутри группы, -1 если группы нет
	GroupIndex() int

	ApplyImpulseAt(position, impulse mgl64.Vec3)
}

// Group набор тел сочлененного объекта (рэгдолл)
type Group interface {
	Body(index int) Body
	Bodies() []Body
}

// Joint связь между двумя телами
type Joint interface {
	Body1() Body
	Body2() Body
}

// PointToLocal переводит мировую точку в локальное пространство тела
func PointToLocal(b Body, world mgl64.Vec3) mgl64.Vec3 {
	return b.Rotation().Inverse().Rotate(world.Sub(b.Position()))
}

// PointToWorld переводит локальную точку тела в мировое пространство
func PointToWorld(b Body, local mgl64.Vec3) mgl64.Vec3 {
	return b.Position().Add(b.Rotation().Rotate(local))
}
