package physgun

import (
	"github.com/elliotchance/orderedmap/v2"

	"physgun-server/backend/internal/physics"
	"physgun-server/backend/internal/scene"
)

// ObjectResolver находит объект-владелец тела
type ObjectResolver interface {
	ObjectOfBody(b physics.Body) *scene.GameObject
}

// CollectConnected возвращает корень и все объекты, транзитивно связанные
// с ним сварками. Каждый объект входит в результат один раз, корень первым.
// Обход идет по явному стеку, поэтому глубина графа не ограничена стеком вызовов.
func CollectConnected(root *scene.GameObject, resolver ObjectResolver) []*scene.GameObject {
	if !root.IsValid() {
		return nil
	}

	result := orderedmap.NewOrderedMap[scene.ObjectID, *scene.GameObject]()
	result.Set(root.ID, root)

	if root.Props == nil {
		return []*scene.GameObject{root}
	}

	visited := make(map[scene.ObjectID]struct{})
	stack := []*scene.GameObject{root}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[node.ID]; seen {
			continue
		}
		visited[node.ID] = struct{}{}

		for _, joint := range node.Props.Joints {
			other := otherEnd(node, joint, resolver)
			if !other.IsValid() {
				continue
			}

			if _, known := result.Get(other.ID); !known {
				result.Set(other.ID, other)
			}

			if other.Props == nil {
				continue
			}
			if _, seen := visited[other.ID]; !seen {
				stack = append(stack, other)
			}
		}
	}

	connected := make([]*scene.GameObject, 0, result.Len())
	for _, id := range result.Keys() {
		obj, _ := result.Get(id)
		connected = append(connected, obj)
	}
	return connected
}

// otherEnd объект на противоположном конце сварки
func otherEnd(node *scene.GameObject, joint physics.Joint, resolver ObjectResolver) *scene.GameObject {
	obj := resolver.ObjectOfBody(joint.Body1())
	if obj == node {
		obj = resolver.ObjectOfBody(joint.Body2())
	}
	return obj
}
