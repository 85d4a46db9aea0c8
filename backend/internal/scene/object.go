package scene

import (
	"physgun-server/backend/internal/physics"
)

// ObjectID идентификатор объекта сцены, стабильный между участниками
type ObjectID string

// GameObject объект сцены
type GameObject struct {
	ID     ObjectID
	Name   string
	Tags   TagSet
	Owner  string // ID участника, владеющего объектом по сети
	Parent *GameObject

	// Physics физическая составляющая, nil если у объекта нет тел
	Physics BodyOwner
	// Props сварки с другими объектами, nil если объект не поддерживает сварку
	Props *PropHelper
	// MapCollider статичная геометрия карты
	MapCollider bool

	destroyed bool
}

// NewGameObject создает пустой объект
func NewGameObject(id ObjectID, name string, tags ...string) *GameObject {
	return &GameObject{
		ID:   id,
		Name: name,
		Tags: NewTagSet(tags...),
	}
}

// NewProp создает объект с одним твердым телом, поддерживающий сварку
func NewProp(id ObjectID, body *physics.RigidBody, tags ...string) *GameObject {
	o := NewGameObject(id, string(id), tags...)
	o.Physics = &SimpleBody{Body: body}
	o.Props = &PropHelper{}
	return o
}

// NewRagdoll создает сочлененный объект
func NewRagdoll(id ObjectID, group *physics.BodyGroup, tags ...string) *GameObject {
	o := NewGameObject(id, string(id), tags...)
	o.Physics = &ArticulatedBody{Group: group}
	o.Props = &PropHelper{}
	return o
}

// IsValid ложно для nil и уничтоженных объектов
func (o *GameObject) IsValid() bool {
	return o != nil && !o.destroyed
}

// Root корень иерархии объекта
func (o *GameObject) Root() *GameObject {
	root := o
	for root.Parent != nil {
		root = root.Parent
	}
	return root
}

// Body находит тело объекта по индексу кости
func (o *GameObject) Body(bone int) physics.Body {
	if !o.IsValid() || o.Physics == nil {
		return nil
	}
	return o.Physics.Resolve(bone)
}

// IsProxy истинно, если объектом владеет другой участник
func (o *GameObject) IsProxy(local string) bool {
	return o.Owner != local
}

func (o *GameObject) destroy() {
	o.destroyed = true
	if o.Physics == nil {
		return
	}
	for _, b := range o.Physics.Rigid() {
		b.Destroy()
	}
}
