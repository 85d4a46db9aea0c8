package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"physgun-server/backend/internal/physics"
)

func TestManager_ResolveAndDestroy(t *testing.T) {
	m := NewManager()
	body := physics.NewRigidBody("crate", mgl64.Vec3{}, 10, 1)
	crate := NewProp("crate", body, TagSolid)
	m.Add(crate)

	if m.Resolve("crate") != crate {
		t.Fatal("Resolve должен вернуть зарегистрированный объект")
	}
	if m.Resolve("") != nil {
		t.Error("Пустой ID означает отсутствие объекта")
	}
	if m.ObjectOfBody(body) != crate {
		t.Error("ObjectOfBody должен найти владельца тела")
	}

	m.Destroy("crate")

	if m.Resolve("crate") != nil {
		t.Error("Уничтоженный объект не резолвится")
	}
	if crate.IsValid() || body.Valid() {
		t.Error("Объект и его тела должны стать невалидными")
	}
	if m.ObjectOfBody(body) != nil {
		t.Error("Тело уничтоженного объекта не имеет владельца")
	}
	if m.Count() != 0 {
		t.Errorf("Ожидалось 0 объектов, получено %d", m.Count())
	}
}

func TestGameObject_BodyByBone(t *testing.T) {
	single := NewProp("single", physics.NewRigidBody("single", mgl64.Vec3{}, 1, 1))
	if single.Body(-1) == nil || single.Body(0) != nil {
		t.Error("Одиночное тело доступно только по кости -1")
	}

	bones := []*physics.RigidBody{
		physics.NewRigidBody("r0", mgl64.Vec3{}, 1, 1),
		physics.NewRigidBody("r1", mgl64.Vec3{}, 1, 1),
	}
	rag := NewRagdoll("rag", physics.NewBodyGroup(bones...))
	if rag.Body(1) != bones[1] {
		t.Error("Сочлененный объект отдает тело по индексу кости")
	}
	if rag.Body(-1) != nil || rag.Body(5) != nil {
		t.Error("Невалидная кость дает nil")
	}
	if rag.Physics.BoneFor(bones[1]) != 1 || single.Physics.BoneFor(single.Body(-1)) != -1 {
		t.Error("BoneFor должен возвращать индекс кости")
	}

	var missing *GameObject
	if missing.Body(-1) != nil {
		t.Error("nil объект не имеет тел")
	}
}

func TestGameObject_RootAndProxy(t *testing.T) {
	player := NewGameObject("player", "player", TagPlayer)
	player.Owner = "alice"
	hand := NewGameObject("hand", "hand")
	hand.Parent = player

	if hand.Root() != player {
		t.Error("Корнем руки должен быть игрок")
	}
	if player.IsProxy("alice") || !player.IsProxy("host") {
		t.Error("Прокси для всех, кроме владельца")
	}
}

func TestWeld_BothSides(t *testing.T) {
	a := NewProp("a", physics.NewRigidBody("a", mgl64.Vec3{}, 1, 1))
	b := NewGameObject("b", "b")
	b.Physics = &SimpleBody{Body: physics.NewRigidBody("b", mgl64.Vec3{}, 1, 1)}

	Weld(a, b, physics.NewFixedJoint(a.Body(-1), b.Body(-1)))

	if len(a.Props.Joints) != 1 || b.Props == nil || len(b.Props.Joints) != 1 {
		t.Error("Сварка должна быть видна с обеих сторон")
	}
}

func TestTagSet(t *testing.T) {
	s := NewTagSet(TagSolid)
	s.Set(TagGrabbed, true)

	if !s.HasAny(TagDebris, TagGrabbed) {
		t.Error("HasAny должен найти grabbed")
	}

	c := s.Clone()
	s.Set(TagGrabbed, false)
	if s.Has(TagGrabbed) || !c.Has(TagGrabbed) {
		t.Error("Clone должен быть независимой копией")
	}

	if got := c.List(); len(got) != 2 || got[0] != TagGrabbed || got[1] != TagSolid {
		t.Errorf("List() = %v", got)
	}
}

func TestSnapshot_CaptureApply(t *testing.T) {
	host := NewManager()
	hostBody := physics.NewRigidBody("crate", mgl64.Vec3{1, 2, 3}, 5, 1)
	host.Add(NewProp("crate", hostBody, TagSolid))
	hostBody.SetBodyType(physics.Static)

	client := NewManager()
	clientBody := physics.NewRigidBody("crate", mgl64.Vec3{}, 5, 1)
	client.Add(NewProp("crate", clientBody, TagSolid))

	snap := host.Capture(7)
	snap.Bodies = append(snap.Bodies, physics.BodyState{ID: "unknown"})

	if n := client.ApplySnapshot(snap); n != 1 {
		t.Errorf("Ожидалось 1 примененное тело, получено %d", n)
	}
	if clientBody.Position() != hostBody.Position() || clientBody.BodyType() != physics.Static {
		t.Errorf("Состояние не перенесено: %v %s", clientBody.Position(), clientBody.BodyType())
	}
}
