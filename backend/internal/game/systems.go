package game

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"physgun-server/backend/internal/physics"
	"physgun-server/backend/internal/replication"
)

// NetworkSystem разбирает подключения и входящие сообщения
type NetworkSystem struct {
	name     string
	priority int
	session  *Session
}

func NewNetworkSystem(session *Session) *NetworkSystem {
	return &NetworkSystem{
		name:     "NetworkSystem",
		priority: 0, // Сначала принимаем все, что пришло за тик
		session:  session,
	}
}

func (ns *NetworkSystem) Update(deltaTime time.Duration) error {
	ns.session.processEvents()
	ns.session.drainInbox()
	return nil
}

func (ns *NetworkSystem) GetName() string { return ns.name }

func (ns *NetworkSystem) GetPriority() int { return ns.priority }

// ControlSystem кадр управления пушек локальных игроков
type ControlSystem struct {
	name     string
	priority int
	session  *Session
}

func NewControlSystem(session *Session) *ControlSystem {
	return &ControlSystem{
		name:     "ControlSystem",
		priority: 10,
		session:  session,
	}
}

func (cs *ControlSystem) Update(deltaTime time.Duration) error {
	cs.session.controlLocal()
	return nil
}

func (cs *ControlSystem) GetName() string { return cs.name }

func (cs *ControlSystem) GetPriority() int { return cs.priority }

// HoldSystem контроллер удержания для всех копий пушек
type HoldSystem struct {
	name     string
	priority int
	session  *Session
}

func NewHoldSystem(session *Session) *HoldSystem {
	return &HoldSystem{
		name:     "HoldSystem",
		priority: 20,
		session:  session,
	}
}

func (hs *HoldSystem) Update(deltaTime time.Duration) error {
	hs.session.registry.Update(deltaTime.Seconds())
	return nil
}

func (hs *HoldSystem) GetName() string { return hs.name }

func (hs *HoldSystem) GetPriority() int { return hs.priority }

// PhysicsSystem шаг солвера. Симулирует только хост.
type PhysicsSystem struct {
	name        string
	priority    int
	session     *Session
	solver      physics.Solver
	stepTimeout time.Duration
	logger      *zap.Logger
}

func NewPhysicsSystem(session *Session, solver physics.Solver, stepTimeout time.Duration, logger *zap.Logger) *PhysicsSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhysicsSystem{
		name:        "PhysicsSystem",
		priority:    30,
		session:     session,
		solver:      solver,
		stepTimeout: stepTimeout,
		logger:      logger.Named("PhysicsSystem"),
	}
}

func (ps *PhysicsSystem) Update(deltaTime time.Duration) error {
	if !ps.session.net.IsHost() {
		return nil
	}

	ctx := context.Background()
	if ps.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ps.stepTimeout)
		defer cancel()
	}

	if err := ps.solver.Step(ctx, deltaTime.Seconds(), ps.session.scene.RigidBodies()); err != nil {
		return fmt.Errorf("physics step: %w", err)
	}
	return nil
}

func (ps *PhysicsSystem) GetName() string { return ps.name }

func (ps *PhysicsSystem) GetPriority() int { return ps.priority }

// ReplicationSystem рассылает снимки тел хоста
type ReplicationSystem struct {
	name     string
	priority int
	session  *Session
	interval uint64
	tick     uint64
	logger   *zap.Logger
}

func NewReplicationSystem(session *Session, interval int, logger *zap.Logger) *ReplicationSystem {
	if interval <= 0 {
		interval = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplicationSystem{
		name:     "ReplicationSystem",
		priority: 40, // После физики, чтобы отправить актуальное состояние
		session:  session,
		interval: uint64(interval),
		logger:   logger.Named("ReplicationSystem"),
	}
}

func (rs *ReplicationSystem) Update(deltaTime time.Duration) error {
	rs.tick++
	if !rs.session.net.IsHost() || rs.tick%rs.interval != 0 {
		return nil
	}

	snap := rs.session.scene.Capture(rs.tick)
	msg, err := replication.NewMessage(replication.MessageTypeSnapshot, snap)
	if err != nil {
		return err
	}
	if err := rs.session.net.Broadcast(msg); err != nil {
		return fmt.Errorf("broadcast snapshot: %w", err)
	}

	// Раз в ~10 секунд при 60 TPS
	if rs.tick%600 == 0 {
		rs.logger.Info("состояние сцены",
			zap.Int("objects", rs.session.scene.Count()),
			zap.Int("bodies", len(snap.Bodies)),
			zap.Int("players", len(rs.session.players)),
			zap.Any("events", rs.session.events.Summary()))
	}
	return nil
}

func (rs *ReplicationSystem) GetName() string { return rs.name }

func (rs *ReplicationSystem) GetPriority() int { return rs.priority }

// RegisterSystems подключает все системы сессии к тикеру
func RegisterSystems(ticker *GameTicker, session *Session, solver physics.Solver, snapshotInterval int, logger *zap.Logger) {
	ticker.RegisterSystem(NewNetworkSystem(session))
	ticker.RegisterSystem(NewControlSystem(session))
	ticker.RegisterSystem(NewHoldSystem(session))
	ticker.RegisterSystem(NewPhysicsSystem(session, solver, ticker.TickDuration(), logger))
	ticker.RegisterSystem(NewReplicationSystem(session, snapshotInterval, logger))
}
