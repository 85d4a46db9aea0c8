package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"physgun-server/backend/internal/replication"
)

const (
	DefaultPingInterval  = 20 * time.Second
	DefaultWriteTimeout  = 10 * time.Second
	DefaultReadTimeout   = 60 * time.Second
	DefaultInboxSize     = 1024
	DefaultSendQueueSize = 256
)

// SessionHooks получает подключения и отключения участников
type SessionHooks interface {
	Join(p replication.ParticipantID)
	Leave(p replication.ParticipantID)
}

// ServerOptions настройки сервера
type ServerOptions struct {
	HostID        replication.ParticipantID
	PingInterval  time.Duration
	WriteTimeout  time.Duration
	ReadTimeout   time.Duration
	InboxSize     int
	SendQueueSize int
	Logger        *zap.Logger
}

// clientTypes сообщения, которые клиент вправе отправлять
var clientTypes = map[string]bool{
	replication.MessageTypeSync: true,
	replication.MessageTypeCall: true,
	replication.MessageTypeInfo: true,
}

// Server ретранслятор сообщений между клиентами и участник-хост.
// Каждое сообщение доставляется всем участникам, включая отправителя;
// отправитель проставляется сервером по соединению.
type Server struct {
	upgrader websocket.Upgrader
	opts     ServerOptions
	hooks    SessionHooks
	logger   *zap.Logger

	inbox chan replication.Message

	seqMu sync.Mutex // порядок рассылок хоста
	seq   uint64

	mu      sync.RWMutex
	clients map[replication.ParticipantID]*clientConn
	nextID  uint64
}

// clientConn подключенный участник с очередью отправки
type clientConn struct {
	id     replication.ParticipantID
	writer *SafeWriter
	send   chan []byte
	done   chan struct{}
	once   sync.Once

	seq uint64 // последний номер, выданный сообщениям клиента; только readLoop
}

func (c *clientConn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.writer.Close()
	})
}

// NewServer создает сервер. hooks может быть nil.
func NewServer(opts ServerOptions, hooks SessionHooks) *Server {
	if opts.HostID == "" {
		opts.HostID = "host"
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}
	if opts.SendQueueSize <= 0 {
		opts.SendQueueSize = DefaultSendQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		opts:    opts,
		hooks:   hooks,
		logger:  opts.Logger.Named("WSServer"),
		inbox:   make(chan replication.Message, opts.InboxSize),
		clients: make(map[replication.ParticipantID]*clientConn),
	}
}

// SetHooks подключает сессию после создания сервера
func (s *Server) SetHooks(hooks SessionHooks) {
	s.hooks = hooks
}

// LocalID участник хоста
func (s *Server) LocalID() replication.ParticipantID { return s.opts.HostID }

// IsHost сервер всегда хост
func (s *Server) IsHost() bool { return true }

// Inbox сообщения для сессии хоста
func (s *Server) Inbox() <-chan replication.Message { return s.inbox }

// Broadcast рассылает сообщение хоста всем клиентам и самому хосту
func (s *Server) Broadcast(msg replication.Message) error {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	s.seq++
	msg.Sender = s.opts.HostID
	msg.Seq = s.seq

	if err := s.relay(msg); err != nil {
		return err
	}

	select {
	case s.inbox <- msg:
		return nil
	default:
		return replication.ErrInboxFull
	}
}

// Clients число подключенных клиентов
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// relay ставит сообщение в очереди всех клиентов
func (s *Server) relay(msg replication.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients {
		select {
		case c.send <- data:
		case <-c.done:
		default:
			// Клиент не успевает читать: рвем соединение, иначе он потеряет порядок
			s.logger.Warn("очередь клиента переполнена, отключаем", zap.String("participant", string(c.id)))
			go c.close()
		}
	}
	return nil
}

// HandleWS обрабатывает входящие WebSocket соединения
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}

	c := &clientConn{
		writer: NewSafeWriter(conn, s.opts.WriteTimeout),
		send:   make(chan []byte, s.opts.SendQueueSize),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.nextID++
	c.id = replication.ParticipantID(fmt.Sprintf("p%d", s.nextID))
	s.mu.Unlock()

	// Приветствие отправляем до регистрации, чтобы оно было первым
	welcome, err := replication.NewMessage(replication.MessageTypeWelcome, replication.WelcomePayload{
		Participant: c.id,
		Host:        s.opts.HostID,
	})
	if err == nil {
		err = c.writer.WriteJSON(welcome)
	}
	if err != nil {
		s.logger.Warn("не удалось отправить приветствие", zap.Error(err))
		c.close()
		return
	}

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()

	logger := s.logger.With(zap.String("participant", string(c.id)))
	logger.Info("клиент подключен", zap.String("remote", conn.RemoteAddr().String()))

	go s.writeLoop(c, logger)

	if s.hooks != nil {
		s.hooks.Join(c.id)
	}

	s.readLoop(c, conn, logger)

	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	c.close()

	if s.hooks != nil {
		s.hooks.Leave(c.id)
	}
	logger.Info("клиент отключен")
}

func (s *Server) readLoop(c *clientConn, conn *websocket.Conn, logger *zap.Logger) {
	_ = conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ошибка чтения", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))

		msg, err := replication.ParseMessage(data)
		if err != nil {
			logger.Debug("некорректное сообщение", zap.Error(err))
			continue
		}
		if !clientTypes[msg.Type] {
			logger.Warn("клиент не может отправлять этот тип", zap.String("type", msg.Type))
			continue
		}

		// Отправителя и порядковый номер определяет соединение, а не содержимое
		msg.Sender = c.id
		c.seq++
		msg.Seq = c.seq

		if err := s.relay(msg); err != nil {
			logger.Warn("ретрансляция", zap.Error(err))
			continue
		}

		select {
		case s.inbox <- msg:
		case <-c.done:
			return
		}
	}
}

func (s *Server) writeLoop(c *clientConn, logger *zap.Logger) {
	var pings <-chan time.Time
	if s.opts.PingInterval > 0 {
		ticker := time.NewTicker(s.opts.PingInterval)
		defer ticker.Stop()
		pings = ticker.C
	}

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if err := c.writer.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("ошибка записи", zap.Error(err))
				c.close()
				return
			}
		case <-pings:
			if err := c.writer.Ping(); err != nil {
				logger.Debug("ошибка ping", zap.Error(err))
				c.close()
				return
			}
		}
	}
}

// Close отключает всех клиентов
func (s *Server) Close() {
	s.mu.Lock()
	clients := make([]*clientConn, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

var _ replication.Network = (*Server)(nil)
