package physgun

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"physgun-server/backend/internal/physics"
	"physgun-server/backend/internal/replication"
	"physgun-server/backend/internal/scene"
	"physgun-server/backend/internal/trace"
)

// Методы широковещательных вызовов пушки
const (
	CallFreeze      = "freeze"
	CallUnfreeze    = "unfreeze"
	CallUnfreezeAll = "unfreeze_all"
	CallEndGrab     = "end_grab"
	CallImpulse     = "impulse"
)

// Call широковещательный вызов: выполняется у всех участников с теми же
// аргументами, изменения физики применяет только хост
type Call struct {
	Gun      string         `json:"gun"`
	Method   string         `json:"method"`
	Object   scene.ObjectID `json:"object,omitempty"`
	Bone     int            `json:"bone"`
	Ray      trace.Ray      `json:"ray"`
	Position mgl64.Vec3     `json:"position"`
	Force    mgl64.Vec3     `json:"force"`
}

// Freeze делает тело статичным у хоста и проигрывает эффект у всех
func (g *Gun) Freeze(obj *scene.GameObject, bone int) {
	g.broadcast(Call{Method: CallFreeze, Object: obj.ID, Bone: bone})
}

// Unfreeze возвращает телу динамику
func (g *Gun) Unfreeze(obj *scene.GameObject, bone int) {
	g.broadcast(Call{Method: CallUnfreeze, Object: obj.ID, Bone: bone})
}

// TryUnfreezeAll размораживает все тела, связанные сварками с захваченным
// объектом или с объектом под прицелом
func (g *Gun) TryUnfreezeAll(aim trace.Ray) {
	g.broadcast(Call{Method: CallUnfreezeAll, Object: g.state.Get().GrabbedObject, Bone: -1, Ray: aim})
}

// ApplyImpulseAt толкает тело объекта в мировой точке
func (g *Gun) ApplyImpulseAt(obj *scene.GameObject, bone int, position, force mgl64.Vec3) {
	g.broadcast(Call{Method: CallImpulse, Object: obj.ID, Bone: bone, Position: position, Force: force})
}

// TryEndGrab отпускает объект. Тело остается динамичным.
func (g *Gun) TryEndGrab() {
	released := g.state.Get().GrabbedObject
	g.endGrab(released)
	g.broadcast(Call{Method: CallEndGrab, Object: released, Bone: -1})
}

func (g *Gun) endGrab(released scene.ObjectID) {
	if g.IsProxy() {
		// Состояние придет от владельца; снимаем только тег
		if released == "" {
			released = g.state.Get().GrabbedObject
		}
		g.setGrabbedTag(released, false)
		return
	}
	g.mutate(func(s *SessionState) { *s = s.cleared() })
}

func (g *Gun) broadcast(call Call) {
	call.Gun = g.id

	msg, err := replication.NewMessage(replication.MessageTypeCall, call)
	if err != nil {
		g.logger.Warn("не удалось упаковать вызов", zap.String("method", call.Method), zap.Error(err))
		return
	}
	if err := g.net.Broadcast(msg); err != nil {
		g.logger.Warn("не удалось разослать вызов", zap.String("method", call.Method), zap.Error(err))
	}
}

// HandleCall выполняет широковещательный вызов, пришедший по сети
func (g *Gun) HandleCall(msg replication.Message, call Call) {
	if msg.Sender != g.ownerID {
		g.logger.Debug("вызов не от владельца пушки",
			zap.String("sender", string(msg.Sender)),
			zap.String("method", call.Method))
		return
	}

	switch call.Method {
	case CallEndGrab:
		// Владелец уже отпустил объект локально, эхо может прийти после нового захвата
		if g.IsProxy() {
			g.endGrab(call.Object)
		}
	case CallFreeze:
		g.execSetBodyType(call, physics.Static)
		if obj := g.scene.Resolve(call.Object); obj != nil {
			g.effects.FreezeEffects(obj, call.Bone)
		}
	case CallUnfreeze:
		g.execSetBodyType(call, physics.Dynamic)
	case CallUnfreezeAll:
		g.execUnfreezeAll(call)
	case CallImpulse:
		g.execImpulse(call)
	default:
		g.logger.Warn("неизвестный вызов", zap.String("method", call.Method))
	}
}

// authoritativeBody тело, которое хост вправе изменить, или nil
func (g *Gun) authoritativeBody(call Call) physics.Body {
	if !g.net.IsHost() {
		return nil
	}
	obj := g.scene.Resolve(call.Object)
	if obj == nil {
		return nil
	}
	return obj.Body(call.Bone)
}

func (g *Gun) execSetBodyType(call Call, bodyType physics.BodyType) {
	body := g.authoritativeBody(call)
	if body == nil {
		return
	}
	body.SetBodyType(bodyType)

	g.logger.Debug("тип тела изменен",
		zap.String("object", string(call.Object)),
		zap.Int("bone", call.Bone),
		zap.Stringer("type", bodyType))
}

func (g *Gun) execImpulse(call Call) {
	body := g.authoritativeBody(call)
	if body == nil {
		return
	}
	body.ApplyImpulseAt(call.Position, call.Force)
}

func (g *Gun) execUnfreezeAll(call Call) {
	if !g.net.IsHost() {
		return
	}

	root := g.scene.Resolve(call.Object)
	if root == nil {
		tr := g.tracer.Trace(trace.Query{
			Ray:             call.Ray,
			MaxDistance:     g.cfg.MaxTargetDistance,
			UseHitboxes:     true,
			IgnoreHierarchy: g.owner,
		})
		if !tr.Hit || !tr.Object.IsValid() || tr.Component == trace.ComponentMapCollider {
			return
		}
		root = tr.Object.Root()
	}

	if !root.IsValid() || root.IsProxy(string(g.net.LocalID())) {
		return
	}

	count := 0
	for _, obj := range CollectConnected(root, g.scene) {
		if obj.Physics == nil {
			continue
		}
		for _, body := range obj.Physics.Bodies() {
			if body.Valid() && body.BodyType() == physics.Static {
				body.SetBodyType(physics.Dynamic)
				count++
			}
		}
	}

	g.logger.Debug("разморожено тел", zap.String("root", string(root.ID)), zap.Int("count", count))
}
