package replication

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ParticipantID идентификатор участника сессии
type ParticipantID string

// Типы сообщений
const (
	MessageTypeSync     = "sync"     // Синхронизируемые поля, пишет только владелец
	MessageTypeCall     = "call"     // Вызов процедуры на всех участниках
	MessageTypeSnapshot = "snapshot" // Состояние тел от хоста
	MessageTypeSpawn    = "spawn"    // Появление игрока
	MessageTypeDespawn  = "despawn"  // Уход игрока
	MessageTypeWelcome  = "welcome"  // Сервер сообщает клиенту его ID
	MessageTypeInfo     = "info"     // Информационное сообщение
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrUnknownMessage = errors.New("unknown message type")
	ErrNotOwner       = errors.New("participant does not own this state")
	ErrInboxFull      = errors.New("participant inbox is full")
)

// Message конверт всех сообщений репликации
type Message struct {
	Type    string          `json:"type"`
	Sender  ParticipantID   `json:"sender,omitempty"`
	Seq     uint64          `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage упаковывает полезную нагрузку в конверт
func NewMessage(messageType string, payload interface{}) (Message, error) {
	msg := Message{Type: messageType}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", messageType, err)
	}
	msg.Payload = data
	return msg, nil
}

// Decode распаковывает полезную нагрузку
func (m Message) Decode(v interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: empty payload: %w", m.Type, ErrInvalidMessage)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%s: %v: %w", m.Type, err, ErrInvalidMessage)
	}
	return nil
}

// ParseMessage разбирает сообщение, пришедшее по сети
func ParseMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("parse message: %v: %w", err, ErrInvalidMessage)
	}

	switch msg.Type {
	case MessageTypeSync, MessageTypeCall, MessageTypeSnapshot, MessageTypeSpawn,
		MessageTypeDespawn, MessageTypeWelcome, MessageTypeInfo:
		return msg, nil
	case "":
		return Message{}, fmt.Errorf("parse message: missing type: %w", ErrInvalidMessage)
	default:
		return Message{}, fmt.Errorf("parse message: %q: %w", msg.Type, ErrUnknownMessage)
	}
}

// InfoPayload текст информационного сообщения
type InfoPayload struct {
	Message string `json:"message"`
}

// WelcomePayload первое сообщение сервера клиенту
type WelcomePayload struct {
	Participant ParticipantID `json:"participant"`
	Host        ParticipantID `json:"host"`
}

// SpawnPayload появление или уход игрока
type SpawnPayload struct {
	Participant ParticipantID `json:"participant"`
	Object      string        `json:"object"`
	Position    [3]float64    `json:"position"`
}
