package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"physgun-server/backend/internal/replication"
)

var ErrNoWelcome = errors.New("server did not send welcome")

// ClientOptions настройки клиентского подключения
type ClientOptions struct {
	WriteTimeout time.Duration
	InboxSize    int
	Logger       *zap.Logger
}

// Client участник сессии, подключенный к серверу-ретранслятору
type Client struct {
	conn   *websocket.Conn
	writer *SafeWriter
	logger *zap.Logger

	id   replication.ParticipantID
	host replication.ParticipantID

	seqMu sync.Mutex
	seq   uint64

	inbox chan replication.Message
	done  chan struct{}
	once  sync.Once
	err   error
}

// Dial подключается к серверу и ждет приветствия с идентификатором участника
func Dial(ctx context.Context, url string, opts ClientOptions) (*Client, error) {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	msg, err := replication.ParseMessage(data)
	if err != nil || msg.Type != replication.MessageTypeWelcome {
		conn.Close()
		return nil, ErrNoWelcome
	}
	var welcome replication.WelcomePayload
	if err := msg.Decode(&welcome); err != nil {
		conn.Close()
		return nil, fmt.Errorf("decode welcome: %w", err)
	}

	c := &Client{
		conn:   conn,
		writer: NewSafeWriter(conn, opts.WriteTimeout),
		logger: opts.Logger.Named("WSClient").With(zap.String("participant", string(welcome.Participant))),
		id:     welcome.Participant,
		host:   welcome.Host,
		inbox:  make(chan replication.Message, opts.InboxSize),
		done:   make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

// LocalID идентификатор, выданный сервером
func (c *Client) LocalID() replication.ParticipantID { return c.id }

// HostID участник-хост сессии
func (c *Client) HostID() replication.ParticipantID { return c.host }

func (c *Client) IsHost() bool { return false }

func (c *Client) Inbox() <-chan replication.Message { return c.inbox }

// Done закрывается при потере соединения
func (c *Client) Done() <-chan struct{} { return c.done }

// Err причина разрыва соединения
func (c *Client) Err() error {
	<-c.done
	return c.err
}

// Broadcast отправляет сообщение серверу; сервер вернет его всем, включая нас
func (c *Client) Broadcast(msg replication.Message) error {
	c.seqMu.Lock()
	defer c.seqMu.Unlock()

	c.seq++
	msg.Sender = c.id
	msg.Seq = c.seq
	return c.writer.WriteJSON(msg)
}

func (c *Client) readLoop() {
	defer close(c.inbox)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown(err)
			return
		}

		msg, err := replication.ParseMessage(data)
		if err != nil {
			c.logger.Debug("некорректное сообщение", zap.Error(err))
			continue
		}

		select {
		case c.inbox <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Client) shutdown(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
		_ = c.writer.Close()
	})
}

// Close закрывает соединение
func (c *Client) Close() error {
	_ = c.writer.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.shutdown(nil)
	return nil
}

var _ replication.Network = (*Client)(nil)
