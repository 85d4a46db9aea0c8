package game

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"physgun-server/backend/internal/physgun"
	"physgun-server/backend/internal/replication"
	"physgun-server/backend/internal/scene"
	"physgun-server/backend/internal/telemetry"
	"physgun-server/backend/internal/trace"
)

// Command ввод игрока за один тик
type Command struct {
	Frame physgun.Frame `json:"frame"`
	View  physgun.View  `json:"view"`
}

type controlInput struct {
	cmd   Command
	fresh bool
}

type eventKind int

const (
	eventJoin eventKind = iota
	eventLeave
)

type sessionEvent struct {
	kind        eventKind
	participant replication.ParticipantID
}

// SessionOptions зависимости сессии
type SessionOptions struct {
	PhysGun     physgun.Config
	FloorHeight float64
	Network     replication.Network
	Effects     physgun.Effects
	Telemetry   *telemetry.Recorder
	Logger      *zap.Logger
}

// Session игровая сессия одного участника: сцена, игроки и их пушки.
// Все изменения сцены выполняются в тике игрового цикла; транспорт
// передает подключения через Join/Leave.
type Session struct {
	cfg      physgun.Config
	scene    *scene.Manager
	tracer   trace.Tracer
	registry *physgun.Registry
	net      replication.Network
	effects  physgun.Effects
	events   *telemetry.Recorder
	logger   *zap.Logger

	players map[replication.ParticipantID]*scene.GameObject
	spawns  map[replication.ParticipantID]mgl64.Vec3

	inputMu sync.Mutex
	inputs  map[replication.ParticipantID]*controlInput
	results map[replication.ParticipantID]physgun.ControlResult

	queue chan sessionEvent
}

func NewSession(opts SessionOptions) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.Named("Session").With(zap.String("participant", string(opts.Network.LocalID())))
	if opts.Telemetry == nil {
		opts.Telemetry = telemetry.NewRecorder(200)
	}
	if opts.Effects == nil {
		opts.Effects = NewLogEffects(logger, opts.Telemetry)
	}

	m := scene.NewManager()
	return &Session{
		cfg:      opts.PhysGun,
		scene:    m,
		tracer:   trace.NewSceneTracer(m, opts.FloorHeight),
		registry: physgun.NewRegistry(logger),
		net:      opts.Network,
		effects:  opts.Effects,
		events:   opts.Telemetry,
		logger:   logger,
		players:  make(map[replication.ParticipantID]*scene.GameObject),
		spawns:   make(map[replication.ParticipantID]mgl64.Vec3),
		inputs:   make(map[replication.ParticipantID]*controlInput),
		results:  make(map[replication.ParticipantID]physgun.ControlResult),
		queue:    make(chan sessionEvent, 64),
	}
}

func (s *Session) Scene() *scene.Manager { return s.scene }

func (s *Session) Registry() *physgun.Registry { return s.registry }

func (s *Session) Network() replication.Network { return s.net }

// Telemetry последние события сессии
func (s *Session) Telemetry() *telemetry.Recorder { return s.events }

// GunID идентификатор пушки участника
func GunID(p replication.ParticipantID) string { return "gun-" + string(p) }

// PlayerObjectID идентификатор объекта игрока
func PlayerObjectID(p replication.ParticipantID) scene.ObjectID {
	return scene.ObjectID("player-" + string(p))
}

// Join ставит подключение участника в очередь на обработку в тике
func (s *Session) Join(p replication.ParticipantID) {
	s.queue <- sessionEvent{kind: eventJoin, participant: p}
}

// Leave ставит отключение участника в очередь на обработку в тике
func (s *Session) Leave(p replication.ParticipantID) {
	s.queue <- sessionEvent{kind: eventLeave, participant: p}
}

// Gun пушка участника
func (s *Session) Gun(p replication.ParticipantID) (*physgun.Gun, bool) {
	return s.registry.Get(GunID(p))
}

// SpawnPoint точка появления участника, если он уже появился
func (s *Session) SpawnPoint(p replication.ParticipantID) (mgl64.Vec3, bool) {
	pos, ok := s.spawns[p]
	return pos, ok
}

// Players участники с объектом игрока, по порядку
func (s *Session) Players() []replication.ParticipantID {
	out := make([]replication.ParticipantID, 0, len(s.players))
	for p := range s.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SpawnPlayer создает объект игрока и его пушку. Повторный вызов ничего не делает.
func (s *Session) SpawnPlayer(p replication.ParticipantID, pos mgl64.Vec3) *physgun.Gun {
	if g, ok := s.Gun(p); ok {
		return g
	}

	player := scene.NewGameObject(PlayerObjectID(p), string(p), scene.TagPlayer)
	player.Owner = string(p)
	s.scene.Add(player)
	s.players[p] = player
	s.spawns[p] = pos

	g := physgun.New(GunID(p), player, physgun.Options{
		Config:  s.cfg,
		Scene:   s.scene,
		Tracer:  s.tracer,
		Network: s.net,
		Effects: s.effects,
		Logger:  s.logger,
	})
	s.registry.Add(g)
	s.events.Record(telemetry.Event{Kind: telemetry.KindJoin, Participant: string(p), Position: pos})

	s.logger.Info("игрок появился",
		zap.String("player", string(p)),
		zap.Bool("local", p == s.net.LocalID()))
	return g
}

// DespawnPlayer убирает игрока и отпускает все, что он держал
func (s *Session) DespawnPlayer(p replication.ParticipantID) {
	player, ok := s.players[p]
	if !ok {
		return
	}

	s.registry.Remove(GunID(p))
	s.registry.Forget(p)
	s.scene.Destroy(player.ID)
	delete(s.players, p)
	delete(s.spawns, p)

	s.inputMu.Lock()
	delete(s.inputs, p)
	delete(s.results, p)
	s.inputMu.Unlock()

	s.events.Record(telemetry.Event{Kind: telemetry.KindLeave, Participant: string(p)})
	s.logger.Info("игрок ушел", zap.String("player", string(p)))
}

// SubmitInput запоминает ввод локального игрока до следующего тика
func (s *Session) SubmitInput(p replication.ParticipantID, cmd Command) {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	s.inputs[p] = &controlInput{cmd: cmd, fresh: true}
}

// LastResult результат последнего кадра управления игрока
func (s *Session) LastResult(p replication.ParticipantID) physgun.ControlResult {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	return s.results[p]
}

// processEvents применяет подключения и отключения
func (s *Session) processEvents() {
	for {
		select {
		case ev := <-s.queue:
			switch ev.kind {
			case eventJoin:
				s.onJoin(ev.participant)
			case eventLeave:
				s.onLeave(ev.participant)
			}
		default:
			return
		}
	}
}

func (s *Session) onJoin(p replication.ParticipantID) {
	if !s.net.IsHost() {
		return
	}

	s.SpawnPlayer(p, RandomSpawnPoint())

	// Новичку нужны все игроки, остальные повторы игнорируют
	for _, id := range s.Players() {
		s.broadcast(replication.MessageTypeSpawn, replication.SpawnPayload{
			Participant: id,
			Object:      string(PlayerObjectID(id)),
			Position:    s.spawns[id],
		})
	}
}

func (s *Session) onLeave(p replication.ParticipantID) {
	if !s.net.IsHost() {
		return
	}
	s.DespawnPlayer(p)
	s.broadcast(replication.MessageTypeDespawn, replication.SpawnPayload{Participant: p})
}

// drainInbox разбирает все входящие сообщения
func (s *Session) drainInbox() int {
	count := 0
	for {
		select {
		case msg, ok := <-s.net.Inbox():
			if !ok {
				return count
			}
			count++
			if err := s.HandleMessage(msg); err != nil {
				s.logger.Warn("сообщение отброшено",
					zap.String("type", msg.Type),
					zap.String("sender", string(msg.Sender)),
					zap.Error(err))
			}
		default:
			return count
		}
	}
}

// HandleMessage обрабатывает одно сообщение репликации
func (s *Session) HandleMessage(msg replication.Message) error {
	if handled, err := s.registry.Dispatch(msg); handled {
		return err
	}

	switch msg.Type {
	case replication.MessageTypeSnapshot:
		if s.net.IsHost() {
			return nil
		}
		var snap scene.Snapshot
		if err := msg.Decode(&snap); err != nil {
			return err
		}
		s.scene.ApplySnapshot(snap)

	case replication.MessageTypeSpawn:
		if s.net.IsHost() {
			return nil
		}
		var payload replication.SpawnPayload
		if err := msg.Decode(&payload); err != nil {
			return err
		}
		s.SpawnPlayer(payload.Participant, payload.Position)

	case replication.MessageTypeDespawn:
		if s.net.IsHost() {
			return nil
		}
		var payload replication.SpawnPayload
		if err := msg.Decode(&payload); err != nil {
			return err
		}
		s.DespawnPlayer(payload.Participant)

	case replication.MessageTypeWelcome, replication.MessageTypeInfo:
		s.logger.Debug("служебное сообщение", zap.String("type", msg.Type), zap.ByteString("payload", msg.Payload))

	default:
		return fmt.Errorf("%q: %w", msg.Type, replication.ErrUnknownMessage)
	}
	return nil
}

// controlLocal выполняет кадр управления для пушек, которыми владеет этот участник
func (s *Session) controlLocal() {
	for _, g := range s.registry.Guns() {
		if g.IsProxy() {
			continue
		}
		p := replication.ParticipantID(g.Owner().Owner)

		s.inputMu.Lock()
		in, ok := s.inputs[p]
		var cmd Command
		if ok {
			cmd = in.cmd
			if !in.fresh {
				// Кнопки удерживаются, а колесо и мышь за тик уже учтены
				cmd.Frame.MouseWheel = 0
				cmd.Frame.MouseDelta = mgl64.Vec2{}
			}
			in.fresh = false
		}
		s.inputMu.Unlock()

		if !ok {
			continue
		}

		before := g.State().GrabbedObject
		res := g.Control(cmd.Frame, cmd.View)
		if st := g.State(); st.GrabbedObject != "" && st.GrabbedObject != before {
			s.events.Record(telemetry.Event{
				Kind:        telemetry.KindGrab,
				Participant: string(p),
				Object:      string(st.GrabbedObject),
				Bone:        st.GrabbedBone,
			})
		}

		s.inputMu.Lock()
		s.results[p] = res
		s.inputMu.Unlock()
	}
}

func (s *Session) broadcast(messageType string, payload interface{}) {
	msg, err := replication.NewMessage(messageType, payload)
	if err != nil {
		s.logger.Warn("не удалось упаковать сообщение", zap.String("type", messageType), zap.Error(err))
		return
	}
	if err := s.net.Broadcast(msg); err != nil {
		s.logger.Warn("не удалось разослать сообщение", zap.String("type", messageType), zap.Error(err))
	}
}
