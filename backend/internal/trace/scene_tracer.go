package trace

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"physgun-server/backend/internal/scene"
)

// SceneTracer трассирует лучи по ограничивающим сферам тел сцены.
// Объекты с MapCollider считаются бесконечной плоскостью пола на высоте FloorHeight.
type SceneTracer struct {
	scene       *scene.Manager
	FloorHeight float64
}

func NewSceneTracer(m *scene.Manager, floorHeight float64) *SceneTracer {
	return &SceneTracer{scene: m, FloorHeight: floorHeight}
}

// Trace возвращает ближайшее попадание
func (t *SceneTracer) Trace(q Query) Result {
	dir := q.Ray.Forward
	if dir.Len() == 0 {
		return Result{}
	}
	dir = dir.Normalize()

	best := Result{Distance: math.Inf(1)}

	var ignoreRoot *scene.GameObject
	if q.IgnoreHierarchy != nil {
		ignoreRoot = q.IgnoreHierarchy.Root()
	}

	for _, obj := range t.scene.All() {
		if !obj.IsValid() || (ignoreRoot != nil && obj.Root() == ignoreRoot) {
			continue
		}
		if len(q.AnyTags) > 0 && !obj.Tags.HasAny(q.AnyTags...) {
			continue
		}

		if obj.MapCollider {
			if d, ok := t.intersectFloor(q.Ray.Position, dir); ok && d <= q.MaxDistance && d < best.Distance {
				best = Result{
					Hit:         true,
					EndPosition: q.Ray.Position.Add(dir.Mul(d)),
					Distance:    d,
					Object:      obj,
					Tags:        obj.Tags.Clone(),
					Component:   ComponentMapCollider,
				}
			}
			continue
		}

		if obj.Physics == nil {
			continue
		}

		bodies := obj.Physics.Rigid()
		if !q.UseHitboxes && len(bodies) > 1 {
			bodies = bodies[:1]
		}
		for _, b := range bodies {
			if !b.Valid() {
				continue
			}
			d, inside, ok := intersectSphere(q.Ray.Position, dir, b.Position(), b.Radius())
			if !ok || d > q.MaxDistance || d >= best.Distance {
				continue
			}
			best = Result{
				Hit:          true,
				StartedSolid: inside,
				EndPosition:  q.Ray.Position.Add(dir.Mul(d)),
				Distance:     d,
				Body:         b,
				Object:       obj,
				Tags:         obj.Tags.Clone(),
				Component:    ComponentBody,
			}
		}
	}

	if !best.Hit {
		return Result{}
	}
	return best
}

func (t *SceneTracer) intersectFloor(origin, dir mgl64.Vec3) (float64, bool) {
	if dir.Z() >= 0 {
		return 0, false
	}
	d := (t.FloorHeight - origin.Z()) / dir.Z()
	return d, d >= 0
}

// intersectSphere расстояние до первого пересечения луча со сферой
func intersectSphere(origin, dir, center mgl64.Vec3, radius float64) (float64, bool, bool) {
	oc := origin.Sub(center)
	if oc.Len() < radius {
		return 0, true, true
	}

	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false, false
	}
	d := -b - math.Sqrt(disc)
	if d < 0 {
		return 0, false, false
	}
	return d, false, true
}

var _ Tracer = (*SceneTracer)(nil)
