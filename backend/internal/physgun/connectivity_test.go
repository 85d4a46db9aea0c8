package physgun

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"physgun-server/backend/internal/physics"
	"physgun-server/backend/internal/scene"
)

func newGraph(n int) (*scene.Manager, []*scene.GameObject) {
	m := scene.NewManager()
	objs := make([]*scene.GameObject, n)
	for i := range objs {
		id := fmt.Sprintf("p%d", i)
		objs[i] = scene.NewProp(scene.ObjectID(id), physics.NewRigidBody(id, mgl64.Vec3{float64(i) * 50, 0, 0}, 10, 1))
		m.Add(objs[i])
	}
	return m, objs
}

func weld(a, b *scene.GameObject) {
	scene.Weld(a, b, physics.NewFixedJoint(a.Body(-1), b.Body(-1)))
}

func ids(objs []*scene.GameObject) []scene.ObjectID {
	out := make([]scene.ObjectID, len(objs))
	for i, o := range objs {
		out[i] = o.ID
	}
	return out
}

func TestCollectConnected_Component(t *testing.T) {
	m, p := newGraph(3)
	weld(p[0], p[1])

	got := ids(CollectConnected(p[0], m))
	if len(got) != 2 || got[0] != "p0" || got[1] != "p1" {
		t.Errorf("Ожидалось [p0 p1], получено %v", got)
	}
}

func TestCollectConnected_Cycle(t *testing.T) {
	m, p := newGraph(4)
	weld(p[0], p[1])
	weld(p[1], p[2])
	weld(p[2], p[0])
	weld(p[2], p[3])
	weld(p[3], p[3])

	got := ids(CollectConnected(p[1], m))
	if len(got) != 4 {
		t.Fatalf("Ожидалось 4 объекта, получено %v", got)
	}
	if got[0] != "p1" {
		t.Errorf("Корень должен быть первым, получено %v", got)
	}

	seen := make(map[scene.ObjectID]bool)
	for _, id := range got {
		if seen[id] {
			t.Errorf("Объект %s встречается дважды", id)
		}
		seen[id] = true
	}
}

func TestCollectConnected_DeepChain(t *testing.T) {
	const n = 5000
	m, p := newGraph(n)
	for i := 1; i < n; i++ {
		weld(p[i-1], p[i])
	}

	if got := len(CollectConnected(p[0], m)); got != n {
		t.Errorf("Ожидалось %d объектов, получено %d", n, got)
	}
}

func TestCollectConnected_NoProps(t *testing.T) {
	m := scene.NewManager()
	root := scene.NewGameObject("lonely", "lonely", scene.TagSolid)
	m.Add(root)

	got := CollectConnected(root, m)
	if len(got) != 1 || got[0] != root {
		t.Errorf("Без сварок результат только корень, получено %v", ids(got))
	}
}

func TestCollectConnected_SkipsDestroyed(t *testing.T) {
	m, p := newGraph(3)
	weld(p[0], p[1])
	weld(p[1], p[2])
	m.Destroy(p[1].ID)

	got := ids(CollectConnected(p[0], m))
	if len(got) != 1 || got[0] != "p0" {
		t.Errorf("Через уничтоженный объект обход не идет, получено %v", got)
	}
}

func TestCollectConnected_InvalidRoot(t *testing.T) {
	m, p := newGraph(1)
	m.Destroy(p[0].ID)

	if got := CollectConnected(p[0], m); got != nil {
		t.Errorf("Для невалидного корня ожидался nil, получено %v", ids(got))
	}
	if got := CollectConnected(nil, m); got != nil {
		t.Errorf("Для nil ожидался nil, получено %v", ids(got))
	}
}
