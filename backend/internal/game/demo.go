package game

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"physgun-server/backend/internal/physics"
	"physgun-server/backend/internal/replication"
	"physgun-server/backend/internal/scene"
)

// spawnPoints точки появления игроков
var spawnPoints = []mgl64.Vec3{
	{0, 0, 64},
	{0, 300, 64},
	{0, -300, 64},
	{-300, 0, 64},
}

// RandomSpawnPoint случайная точка появления
func RandomSpawnPoint() mgl64.Vec3 {
	return spawnPoints[rand.Intn(len(spawnPoints))]
}

// PopulateDemo строит тестовую сцену: пол, ящики, сваренную цепочку и
// рэгдолл. Идентификаторы детерминированы, поэтому клиенты строят ту же
// сцену и получают состояние тел из снимков хоста.
func PopulateDemo(m *scene.Manager, host replication.ParticipantID) {
	owned := func(obj *scene.GameObject) *scene.GameObject {
		obj.Owner = string(host)
		m.Add(obj)
		return obj
	}

	world := scene.NewGameObject("world", "world", scene.TagSolid)
	world.MapCollider = true
	owned(world)

	// Отдельные ящики перед точками появления
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("crate-%d", i)
		body := physics.NewRigidBody(id, mgl64.Vec3{300, float64(i-2) * 120, 20}, 20, 25)
		owned(scene.NewProp(scene.ObjectID(id), body, scene.TagSolid))
	}

	// Мелкий мусор
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("can-%d", i)
		body := physics.NewRigidBody(id, mgl64.Vec3{200, float64(i) * 40, 5}, 5, 1)
		owned(scene.NewProp(scene.ObjectID(id), body, scene.TagDebris))
	}

	// Цепочка из сваренных замороженных плит
	var prev *scene.GameObject
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("plank-%d", i)
		body := physics.NewRigidBody(id, mgl64.Vec3{500, float64(i) * 45, 100}, 20, 15)
		body.SetBodyType(physics.Static)
		plank := owned(scene.NewProp(scene.ObjectID(id), body, scene.TagSolid))
		if prev != nil {
			scene.Weld(prev, plank, physics.NewFixedJoint(prev.Body(-1), plank.Body(-1)))
		}
		prev = plank
	}

	// Рэгдолл: таз, торс, голова
	bones := []*physics.RigidBody{
		physics.NewRigidBody("ragdoll-pelvis", mgl64.Vec3{400, -250, 30}, 15, 20),
		physics.NewRigidBody("ragdoll-torso", mgl64.Vec3{400, -250, 60}, 15, 25),
		physics.NewRigidBody("ragdoll-head", mgl64.Vec3{400, -250, 85}, 10, 5),
	}
	owned(scene.NewRagdoll("ragdoll", physics.NewBodyGroup(bones...), scene.TagSolid))
}
