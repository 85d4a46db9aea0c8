package physgun

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"physgun-server/backend/internal/physics"
	"physgun-server/backend/internal/replication"
	"physgun-server/backend/internal/scene"
)

// session хост и клиент alice, у каждого своя копия сцены
type session struct {
	hub   *replication.LocalHub
	host  *participant
	alice *participant

	gun   *Gun // пушка alice у нее самой
	proxy *Gun // та же пушка на хосте

	hostCrate  *scene.GameObject
	aliceCrate *scene.GameObject
}

func newSession(t *testing.T) *session {
	t.Helper()
	hub := replication.NewLocalHub(hostID)
	s := &session{
		hub:   hub,
		host:  newParticipant(t, hub, hostID),
		alice: newParticipant(t, hub, "alice"),
	}
	s.gun = s.alice.addGun("alice")
	s.proxy = s.host.addGun("alice")
	s.hostCrate = s.host.addProp("crate", mgl64.Vec3{200, 0, 50})
	s.aliceCrate = s.alice.addProp("crate", mgl64.Vec3{200, 0, 50})
	return s
}

func (s *session) drain() {
	s.host.drain()
	s.alice.drain()
}

func TestReplication_OnlyHostMutatesBodies(t *testing.T) {
	s := newSession(t)
	bodyOf(s.hostCrate).SetBodyType(physics.Static)
	bodyOf(s.aliceCrate).SetBodyType(physics.Static)

	s.gun.Control(Frame{Buttons: ButtonAttack1}, lookAlongX())
	s.drain()

	if got := bodyOf(s.hostCrate).BodyType(); got != physics.Dynamic {
		t.Errorf("Хост должен разморозить свою копию, получено %s", got)
	}
	if got := bodyOf(s.aliceCrate).BodyType(); got != physics.Static {
		t.Errorf("Клиент не должен менять физику, получено %s", got)
	}
}

func TestReplication_StateReachesObservers(t *testing.T) {
	s := newSession(t)

	s.gun.Control(Frame{Buttons: ButtonAttack1}, lookAlongX())
	s.drain()

	if !s.proxy.IsProxy() {
		t.Fatal("Пушка alice на хосте должна быть прокси")
	}
	if s.proxy.State() != s.gun.State() {
		t.Errorf("Состояние прокси %+v не совпадает с владельцем %+v", s.proxy.State(), s.gun.State())
	}
	if !s.hostCrate.Tags.Has(scene.TagGrabbed) {
		t.Error("У хоста объект должен быть помечен grabbed")
	}

	s.gun.Control(Frame{}, lookAlongX())
	s.drain()

	if s.proxy.State().GrabbedObject != "" {
		t.Error("Отпускание должно дойти до наблюдателей")
	}
	if s.hostCrate.Tags.Has(scene.TagGrabbed) {
		t.Error("Тег grabbed должен сняться у хоста")
	}
}

func TestReplication_HoldControllerRunsOnHostOnly(t *testing.T) {
	s := newSession(t)

	s.gun.Control(Frame{Buttons: ButtonAttack1}, lookAlongX())
	s.drain()
	s.gun.Control(Frame{Buttons: ButtonAttack1}, View{Position: mgl64.Vec3{0, 0, 50}, Eye: physics.Angles{Yaw: 90}})
	s.drain()

	s.host.registry.Update(0.05)
	s.alice.registry.Update(0.05)

	if v := bodyOf(s.hostCrate).Velocity(); v.Y() <= 0 {
		t.Errorf("Хост должен тянуть тело к цели, скорость %v", v)
	}
	if v := bodyOf(s.aliceCrate).Velocity(); v.Len() != 0 {
		t.Errorf("Клиент не должен менять скорость тела хоста, скорость %v", v)
	}
}

func TestReplication_ProxyControlIsNoop(t *testing.T) {
	s := newSession(t)

	res := s.proxy.Control(Frame{Buttons: ButtonAttack1 | ButtonUse}, lookAlongX())
	s.drain()

	if res.LockMovement || s.proxy.Grabbing() || s.gun.Grabbing() {
		t.Error("Управление прокси ничего не должно делать")
	}
}

func TestReplication_CallsFromOtherParticipantsIgnored(t *testing.T) {
	s := newSession(t)
	bob := s.hub.Join("bob")

	msg, err := replication.NewMessage(replication.MessageTypeCall, Call{
		Gun:    s.proxy.ID(),
		Method: CallFreeze,
		Object: s.hostCrate.ID,
		Bone:   -1,
	})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if err := bob.Broadcast(msg); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	forged, err := replication.NewMessage(replication.MessageTypeSync, SyncPayload{
		Gun:     s.proxy.ID(),
		Version: 100,
		State:   SessionState{GrabbedObject: s.hostCrate.ID, GrabbedBone: -1, HoldRot: mgl64.QuatIdent()},
	})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if err := bob.Broadcast(forged); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	s.drain()

	if got := bodyOf(s.hostCrate).BodyType(); got != physics.Dynamic {
		t.Errorf("Чужой вызов не должен замораживать тело, получено %s", got)
	}
	if s.proxy.State().GrabbedObject != "" {
		t.Error("Чужое состояние не должно применяться")
	}
	if len(s.host.effects.frozen) != 0 {
		t.Errorf("Эффекты не должны проигрываться, получено %v", s.host.effects.frozen)
	}
}

func TestReplication_ImpulseAppliedByHostOnly(t *testing.T) {
	s := newSession(t)
	center := mgl64.Vec3{200, 0, 50}

	s.gun.ApplyImpulseAt(s.aliceCrate, -1, center, mgl64.Vec3{100, 0, 0})
	s.drain()

	if got := bodyOf(s.hostCrate).Velocity(); !vecNear(got, mgl64.Vec3{10, 0, 0}, 1e-9) {
		t.Errorf("Хост должен применить импульс J/m, получено %v", got)
	}
	if got := bodyOf(s.aliceCrate).Velocity(); got.Len() != 0 {
		t.Errorf("Клиент не меняет скорость сам, получено %v", got)
	}
}

func TestReplication_OwnEndGrabEchoKeepsNewGrab(t *testing.T) {
	s := newSession(t)

	s.gun.Control(Frame{Buttons: ButtonAttack1}, lookAlongX())
	s.drain()

	// Отпускание и новый захват до того, как вернулось эхо end_grab
	s.gun.Control(Frame{}, lookAlongX())
	s.gun.Control(Frame{Buttons: ButtonAttack1}, lookAlongX())
	if !s.gun.Grabbing() {
		t.Fatal("Повторный захват должен начаться сразу")
	}

	s.alice.drain()

	if !s.gun.Grabbing() {
		t.Fatal("Эхо собственного end_grab не должно сбрасывать новый захват")
	}
	if got := s.gun.State().GrabbedObject; got != s.aliceCrate.ID {
		t.Errorf("Ожидался захват %s, получено %q", s.aliceCrate.ID, got)
	}
	if !s.aliceCrate.Tags.Has(scene.TagGrabbed) {
		t.Error("Объект нового захвата должен сохранить тег grabbed")
	}

	s.host.drain()
	if s.proxy.State() != s.gun.State() {
		t.Errorf("Прокси должен сойтись с владельцем: %+v против %+v", s.proxy.State(), s.gun.State())
	}
	if !s.hostCrate.Tags.Has(scene.TagGrabbed) {
		t.Error("У хоста объект нового захвата должен остаться помеченным")
	}
}
