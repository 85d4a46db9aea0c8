package replication

import (
	"sync"
)

// LocalHub сеть внутри одного процесса: каждый участник получает свой Endpoint.
// Используется сервером для собственного участника и в тестах.
type LocalHub struct {
	mu        sync.RWMutex
	endpoints []*Endpoint
	host      ParticipantID
	inboxSize int
}

func NewLocalHub(host ParticipantID) *LocalHub {
	return &LocalHub{host: host, inboxSize: 1024}
}

// Join подключает участника к хабу
func (h *LocalHub) Join(id ParticipantID) *Endpoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	ep := &Endpoint{
		hub:   h,
		id:    id,
		inbox: make(chan Message, h.inboxSize),
	}
	h.endpoints = append(h.endpoints, ep)
	return ep
}

// Deliver кладет сообщение во входящие всех участников
func (h *LocalHub) Deliver(msg Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var firstErr error
	for _, ep := range h.endpoints {
		select {
		case ep.inbox <- msg:
		default:
			if firstErr == nil {
				firstErr = ErrInboxFull
			}
		}
	}
	return firstErr
}

// Endpoint участник локального хаба
type Endpoint struct {
	hub   *LocalHub
	id    ParticipantID
	inbox chan Message

	mu  sync.Mutex
	seq uint64
}

func (e *Endpoint) LocalID() ParticipantID { return e.id }

func (e *Endpoint) IsHost() bool { return e.id == e.hub.host }

func (e *Endpoint) Broadcast(msg Message) error {
	e.mu.Lock()
	e.seq++
	msg.Sender = e.id
	msg.Seq = e.seq
	e.mu.Unlock()

	return e.hub.Deliver(msg)
}

func (e *Endpoint) Inbox() <-chan Message { return e.inbox }

var _ Network = (*Endpoint)(nil)
