package physgun

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"physgun-server/backend/internal/physics"
	"physgun-server/backend/internal/replication"
	"physgun-server/backend/internal/scene"
	"physgun-server/backend/internal/trace"
)

// Effects внешние эффекты оружия (звук, частицы)
type Effects interface {
	FreezeEffects(obj *scene.GameObject, bone int)
}

// NopEffects эффекты-заглушка
type NopEffects struct{}

func (NopEffects) FreezeEffects(*scene.GameObject, int) {}

// Options зависимости пушки
type Options struct {
	Config  Config
	Scene   *scene.Manager
	Tracer  trace.Tracer
	Network replication.Network
	Effects Effects
	Logger  *zap.Logger
}

// ControlResult выходы кадра управления для контроллера игрока
type ControlResult struct {
	// LockMovement игрок вращает объект, движение не обрабатывается
	LockMovement bool
}

// Gun физпушка одного игрока. Копия есть у каждого участника сессии;
// Control выполняется только у владельца, Update и обработка вызовов - у всех.
type Gun struct {
	id      string
	cfg     Config
	owner   *scene.GameObject
	ownerID replication.ParticipantID

	scene   *scene.Manager
	tracer  trace.Tracer
	net     replication.Network
	effects Effects
	logger  *zap.Logger

	state     *replication.Owned[SessionState]
	published uint64

	input   Input
	latched bool // захват уже сработал при текущем нажатии

	// Локальные смещения удержания, только у владельца
	heldPos      mgl64.Vec3
	heldRot      mgl64.Quat
	holdDistance float64

	held heldMemo
}

// New создает пушку, принадлежащую объекту игрока owner
func New(id string, owner *scene.GameObject, opts Options) *Gun {
	if opts.Effects == nil {
		opts.Effects = NopEffects{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ownerID := replication.ParticipantID(owner.Owner)
	return &Gun{
		id:      id,
		cfg:     opts.Config,
		owner:   owner,
		ownerID: ownerID,
		scene:   opts.Scene,
		tracer:  opts.Tracer,
		net:     opts.Network,
		effects: opts.Effects,
		logger:  opts.Logger.Named("PhysGun").With(zap.String("gun", id)),
		state:   replication.NewOwned(ownerID, emptySession()),
		heldRot: mgl64.QuatIdent(),
		held:    heldMemo{bone: -1},
	}
}

func (g *Gun) ID() string { return g.id }

// Owner объект игрока
func (g *Gun) Owner() *scene.GameObject { return g.owner }

// IsProxy истинно на всех участниках, кроме владельца
func (g *Gun) IsProxy() bool { return g.ownerID != g.net.LocalID() }

// State текущее синхронизируемое состояние
func (g *Gun) State() SessionState { return g.state.Get() }

// HoldDistance дистанция удержания вдоль луча
func (g *Gun) HoldDistance() float64 { return g.holdDistance }

// HeldLocalPosition точка крепления в пространстве тела
func (g *Gun) HeldLocalPosition() mgl64.Vec3 { return g.heldPos }

// HeldLocalRotation ориентация тела относительно взгляда
func (g *Gun) HeldLocalRotation() mgl64.Quat { return g.heldRot }

// Grabbing истинно, пока удерживается валидный объект
func (g *Gun) Grabbing() bool { return g.grabbedObject() != nil }

// Enable сбрасывает захват при включении оружия
func (g *Gun) Enable() {
	g.reset()
}

// Disable отпускает объект и очищает кеши. Повторный вызов ничего не делает.
func (g *Gun) Disable() {
	g.reset()
}

func (g *Gun) reset() {
	g.latched = false
	g.input = Input{}
	if g.IsProxy() {
		// Владелец ушел: его состояние больше не придет
		g.setGrabbedTag(g.state.Get().GrabbedObject, false)
	} else {
		g.mutate(func(s *SessionState) { *s = emptySession() })
		g.publish()
	}
	g.held = heldMemo{bone: -1}
}

// Control один кадр управления владельца: ввод -> захват, удержание, отпускание, заморозка
func (g *Gun) Control(frame Frame, view View) ControlResult {
	if g.IsProxy() {
		return ControlResult{}
	}

	g.input.Push(frame)
	defer g.publish()

	g.dropStaleGrab()

	result := ControlResult{
		LockMovement: g.input.Down(ButtonUse) && g.Grabbing(),
	}

	beaming := g.input.Down(ButtonAttack1)
	g.mutate(func(s *SessionState) { s.Beaming = beaming })

	if !g.Grabbing() && beaming && !g.latched && g.tryStartGrab(view) {
		g.latched = true
	}

	if beaming && !g.Grabbing() {
		if ok, _ := TryResolveGrab(g.tracer, view.AimRay(), g.cfg.MaxTargetDistance, g.owner); !ok {
			g.latched = false
		}
	}

	if g.input.Released(ButtonAttack1) {
		g.TryEndGrab()
		g.latched = false
	}

	if g.input.Pressed(ButtonReload) && g.input.Down(ButtonRun) {
		g.TryUnfreezeAll(view.AimRay())
	}

	obj := g.grabbedObject()
	if obj == nil {
		return result
	}

	if g.input.Pressed(ButtonAttack2) {
		g.Freeze(obj, g.state.Get().GrabbedBone)
		g.mutate(func(s *SessionState) { *s = s.cleared() })
		return result
	}

	g.MoveTargetDistance(g.input.MouseWheel() * g.cfg.TargetDistanceSpeed)

	if g.input.Down(ButtonUse) {
		g.DoRotate(view.HorizontalRotation(), g.input.MouseDelta())
	}

	body := g.heldBody()
	if body == nil {
		return result
	}

	holdPos, holdRot := g.holdPose(view, body)
	if g.input.Down(ButtonRun) && g.input.Down(ButtonUse) {
		holdRot = physics.SnapRotation(holdRot, g.cfg.RotateSnapAt)
	}

	g.mutate(func(s *SessionState) {
		s.HoldPos = holdPos
		s.HoldRot = holdRot
	})

	return result
}

// tryStartGrab захватывает тело под прицелом и фиксирует локальные смещения
func (g *Gun) tryStartGrab(view View) bool {
	ok, tr := TryResolveGrab(g.tracer, view.AimRay(), g.cfg.MaxTargetDistance, g.owner)
	if !ok || tr.Body == nil || !tr.Body.Valid() {
		return false
	}

	obj := tr.Object
	bone := obj.Physics.BoneFor(tr.Body)
	body := obj.Body(bone)
	if body == nil {
		return false
	}

	g.holdDistance = g.cfg.ClampDistance(view.Position.Sub(tr.EndPosition).Len())
	g.heldRot = view.Eye.ToQuat().Inverse().Mul(body.Rotation()).Normalize()
	g.heldPos = physics.PointToLocal(body, tr.EndPosition)

	g.mutate(func(s *SessionState) {
		s.GrabbedObject = obj.ID
		s.GrabbedBone = bone
		s.HoldPos = body.Position()
		s.HoldRot = body.Rotation()
		s.GrabbedPos = physics.PointToLocal(tr.Body, tr.EndPosition)
	})

	g.Unfreeze(obj, bone)

	g.logger.Debug("захват объекта",
		zap.String("object", string(obj.ID)),
		zap.Int("bone", bone),
		zap.Float64("distance", g.holdDistance))

	return true
}

// dropStaleGrab неявно отпускает уничтоженный объект
func (g *Gun) dropStaleGrab() {
	st := g.state.Get()
	if st.GrabbedObject == "" || g.grabbedObject() != nil {
		return
	}
	g.logger.Debug("захваченный объект больше не существует", zap.String("object", string(st.GrabbedObject)))
	g.mutate(func(s *SessionState) { *s = s.cleared() })
}

// grabbedObject валидный захваченный объект или nil
func (g *Gun) grabbedObject() *scene.GameObject {
	return g.scene.Resolve(g.state.Get().GrabbedObject)
}

// heldBody тело захваченного объекта. Кеш пересчитывается, когда меняется
// пара (объект, кость) или тело становится невалидным.
func (g *Gun) heldBody() physics.Body {
	st := g.state.Get()
	stale := g.held.body == nil || !g.held.body.Valid()
	if stale || g.held.object != st.GrabbedObject || g.held.bone != st.GrabbedBone {
		g.held = heldMemo{object: st.GrabbedObject, bone: st.GrabbedBone}
		if obj := g.scene.Resolve(st.GrabbedObject); obj != nil {
			g.held.body = obj.Body(st.GrabbedBone)
		}
	}

	if g.held.body == nil || !g.held.body.Valid() {
		return nil
	}
	return g.held.body
}

// mutate меняет синхронизируемое состояние от имени владельца
func (g *Gun) mutate(fn func(s *SessionState)) {
	prev := g.state.Get()
	next := prev
	fn(&next)
	if next == prev {
		return
	}

	if err := g.state.Set(g.net.LocalID(), next); err != nil {
		g.logger.Debug("запись состояния отклонена", zap.Error(err))
		return
	}
	g.onStateChanged(prev, next)
}

// onStateChanged вызывается при любом изменении состояния, локальном или по сети
func (g *Gun) onStateChanged(prev, next SessionState) {
	if prev.GrabbedObject == next.GrabbedObject {
		return
	}
	g.setGrabbedTag(prev.GrabbedObject, false)
	g.setGrabbedTag(next.GrabbedObject, true)
}

func (g *Gun) setGrabbedTag(id scene.ObjectID, enabled bool) {
	if obj := g.scene.Resolve(id); obj != nil {
		obj.Tags.Set(scene.TagGrabbed, enabled)
	}
}

// publish рассылает состояние, если оно изменилось с прошлой рассылки
func (g *Gun) publish() {
	if g.IsProxy() || g.state.Version() == g.published {
		return
	}

	msg, err := replication.NewMessage(replication.MessageTypeSync, SyncPayload{
		Gun:     g.id,
		Version: g.state.Version(),
		State:   g.state.Get(),
	})
	if err != nil {
		g.logger.Warn("не удалось упаковать состояние", zap.Error(err))
		return
	}

	g.published = g.state.Version()
	if err := g.net.Broadcast(msg); err != nil {
		g.logger.Warn("не удалось разослать состояние", zap.Error(err))
	}
}

// HandleSync применяет состояние, пришедшее от владельца
func (g *Gun) HandleSync(msg replication.Message, payload SyncPayload) {
	if msg.Sender != g.ownerID {
		g.logger.Debug("sync не от владельца", zap.String("sender", string(msg.Sender)))
		return
	}

	prev := g.state.Get()
	if g.state.Replicate(msg.Sender, payload.Version, payload.State) {
		g.onStateChanged(prev, payload.State)
	}
}
