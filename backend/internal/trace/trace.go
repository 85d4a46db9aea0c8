package trace

import (
	"github.com/go-gl/mathgl/mgl64"

	"physgun-server/backend/internal/physics"
	"physgun-server/backend/internal/scene"
)

// Ray луч прицеливания
type Ray struct {
	Position mgl64.Vec3 `json:"position"`
	Forward  mgl64.Vec3 `json:"forward"`
}

// Project точка на луче на расстоянии distance
func (r Ray) Project(distance float64) mgl64.Vec3 {
	return r.Position.Add(r.Forward.Normalize().Mul(distance))
}

// Component тип компонента, в который попал луч
type Component int

const (
	ComponentNone Component = iota
	ComponentBody
	ComponentMapCollider
)

// Query параметры трассировки
type Query struct {
	Ray         Ray
	MaxDistance float64
	UseHitboxes bool
	// AnyTags цель должна иметь хотя бы один из тегов; пусто = без фильтра
	AnyTags []string
	// IgnoreHierarchy объекты с этим корнем пропускаются
	IgnoreHierarchy *scene.GameObject
}

// Result результат трассировки
type Result struct {
	Hit          bool
	StartedSolid bool
	EndPosition  mgl64.Vec3
	Distance     float64
	Body         physics.Body
	Object       *scene.GameObject
	Tags         scene.TagSet
	Component    Component
}

// Tracer сервис трассировки лучей по сцене
type Tracer interface {
	Trace(q Query) Result
}
