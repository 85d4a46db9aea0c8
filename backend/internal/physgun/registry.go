package physgun

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"physgun-server/backend/internal/replication"
)

// Registry пушки всех игроков на одном участнике. Раздает им входящие
// сообщения sync и call.
type Registry struct {
	mu     sync.RWMutex
	guns   map[string]*Gun
	guard  *replication.SeqGuard
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		guns:   make(map[string]*Gun),
		guard:  replication.NewSeqGuard(),
		logger: logger.Named("PhysGunRegistry"),
	}
}

// Add регистрирует и включает пушку
func (r *Registry) Add(g *Gun) {
	r.mu.Lock()
	r.guns[g.ID()] = g
	r.mu.Unlock()

	g.Enable()
}

// Remove выключает пушку и убирает ее из реестра
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	g, ok := r.guns[id]
	delete(r.guns, id)
	r.mu.Unlock()

	if ok {
		g.Disable()
	}
}

// Forget сбрасывает историю сообщений отключившегося участника
func (r *Registry) Forget(id replication.ParticipantID) {
	r.mu.Lock()
	r.guard.Forget(id)
	r.mu.Unlock()
}

func (r *Registry) Get(id string) (*Gun, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.guns[id]
	return g, ok
}

// Guns пушки в порядке ID
func (r *Registry) Guns() []*Gun {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Gun, 0, len(r.guns))
	for _, g := range r.guns {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Update шаг контроллера удержания для всех пушек
func (r *Registry) Update(deltaTime float64) {
	for _, g := range r.Guns() {
		g.Update(deltaTime)
	}
}

// Dispatch передает сообщение пушке-адресату. Возвращает false, если
// сообщение не относится к пушкам.
func (r *Registry) Dispatch(msg replication.Message) (bool, error) {
	if msg.Type != replication.MessageTypeSync && msg.Type != replication.MessageTypeCall {
		return false, nil
	}

	r.mu.Lock()
	fresh := r.guard.Accept(msg)
	r.mu.Unlock()
	if !fresh {
		r.logger.Debug("устаревшее сообщение отброшено",
			zap.String("sender", string(msg.Sender)),
			zap.Uint64("seq", msg.Seq))
		return true, nil
	}

	switch msg.Type {
	case replication.MessageTypeSync:
		var payload SyncPayload
		if err := msg.Decode(&payload); err != nil {
			return true, err
		}
		g, ok := r.Get(payload.Gun)
		if !ok {
			return true, fmt.Errorf("sync для неизвестной пушки %q", payload.Gun)
		}
		g.HandleSync(msg, payload)

	case replication.MessageTypeCall:
		var call Call
		if err := msg.Decode(&call); err != nil {
			return true, err
		}
		g, ok := r.Get(call.Gun)
		if !ok {
			return true, fmt.Errorf("вызов %s для неизвестной пушки %q", call.Method, call.Gun)
		}
		g.HandleCall(msg, call)
	}

	return true, nil
}
