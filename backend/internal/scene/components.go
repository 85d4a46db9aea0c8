package scene

import (
	"physgun-server/backend/internal/physics"
)

// BodyOwner физическая составляющая объекта. Варианты: SimpleBody и ArticulatedBody.
type BodyOwner interface {
	// Resolve возвращает тело по индексу кости (-1 = цельное тело) или nil
	Resolve(bone int) physics.Body
	// BoneFor индекс кости для попавшего тела, -1 для цельного тела
	BoneFor(hit physics.Body) int
	// Bodies все тела объекта
	Bodies() []physics.Body
	// Rigid тела в виде, пригодном для солвера
	Rigid() []*physics.RigidBody
}

// SimpleBody объект с одним твердым телом
type SimpleBody struct {
	Body *physics.RigidBody
}

func (s *SimpleBody) Resolve(bone int) physics.Body {
	if bone > -1 || !s.Body.Valid() {
		return nil
	}
	return s.Body
}

func (s *SimpleBody) BoneFor(physics.Body) int { return -1 }

func (s *SimpleBody) Bodies() []physics.Body {
	if !s.Body.Valid() {
		return nil
	}
	return []physics.Body{s.Body}
}

func (s *SimpleBody) Rigid() []*physics.RigidBody {
	return []*physics.RigidBody{s.Body}
}

// ArticulatedBody сочлененный объект (рэгдолл) из группы тел
type ArticulatedBody struct {
	Group *physics.BodyGroup
}

func (a *ArticulatedBody) Resolve(bone int) physics.Body {
	if bone < 0 {
		return nil
	}
	b := a.Group.Body(bone)
	if b == nil || !b.Valid() {
		return nil
	}
	return b
}

func (a *ArticulatedBody) BoneFor(hit physics.Body) int {
	if hit == nil {
		return -1
	}
	return hit.GroupIndex()
}

func (a *ArticulatedBody) Bodies() []physics.Body {
	return a.Group.Bodies()
}

func (a *ArticulatedBody) Rigid() []*physics.RigidBody {
	return a.Group.Rigid()
}

// PropHelper хранит сварки объекта с другими объектами
type PropHelper struct {
	Joints []physics.Joint
}

// Weld добавляет сварку, которая видна с обеих сторон
func Weld(a, b *GameObject, joint physics.Joint) {
	for _, o := range []*GameObject{a, b} {
		if o.Props == nil {
			o.Props = &PropHelper{}
		}
		o.Props.Joints = append(o.Props.Joints, joint)
	}
}
