package physgun

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"physgun-server/backend/internal/physics"
	"physgun-server/backend/internal/replication"
	"physgun-server/backend/internal/scene"
	"physgun-server/backend/internal/trace"
)

const hostID = replication.ParticipantID("host")

// recordingEffects запоминает вызовы эффектов
type recordingEffects struct {
	frozen []scene.ObjectID
}

func (r *recordingEffects) FreezeEffects(obj *scene.GameObject, bone int) {
	r.frozen = append(r.frozen, obj.ID)
}

// participant один участник сессии со своей сценой
type participant struct {
	t        *testing.T
	endpoint *replication.Endpoint
	scene    *scene.Manager
	registry *Registry
	effects  *recordingEffects
}

func newParticipant(t *testing.T, hub *replication.LocalHub, id replication.ParticipantID) *participant {
	t.Helper()
	return &participant{
		t:        t,
		endpoint: hub.Join(id),
		scene:    scene.NewManager(),
		registry: NewRegistry(nil),
		effects:  &recordingEffects{},
	}
}

// addGun создает игрока и его пушку на этом участнике
func (p *participant) addGun(owner replication.ParticipantID) *Gun {
	player := scene.NewGameObject(scene.ObjectID("player-"+string(owner)), "player", scene.TagPlayer)
	player.Owner = string(owner)
	p.scene.Add(player)

	g := New("gun-"+string(owner), player, Options{
		Config:  DefaultConfig(),
		Scene:   p.scene,
		Tracer:  trace.NewSceneTracer(p.scene, 0),
		Network: p.endpoint,
		Effects: p.effects,
	})
	p.registry.Add(g)
	return g
}

// addProp добавляет принадлежащий хосту проп со сферой радиуса 20
func (p *participant) addProp(id string, pos mgl64.Vec3, tags ...string) *scene.GameObject {
	if len(tags) == 0 {
		tags = []string{scene.TagSolid}
	}
	body := physics.NewRigidBody(id, pos, 20, 10)
	obj := scene.NewProp(scene.ObjectID(id), body, tags...)
	obj.Owner = string(hostID)
	p.scene.Add(obj)
	return obj
}

// drain разбирает все входящие сообщения
func (p *participant) drain() {
	p.t.Helper()
	for {
		select {
		case msg := <-p.endpoint.Inbox():
			if _, err := p.registry.Dispatch(msg); err != nil {
				p.t.Fatalf("Dispatch(%s): %v", msg.Type, err)
			}
		default:
			return
		}
	}
}

func bodyOf(obj *scene.GameObject) physics.Body {
	return obj.Body(-1)
}

// lookAlongX взгляд из (0,0,50) вдоль +X
func lookAlongX() View {
	return View{Position: mgl64.Vec3{0, 0, 50}}
}

func vecNear(a, b mgl64.Vec3, eps float64) bool {
	return a.Sub(b).Len() <= eps
}
