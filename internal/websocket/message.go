package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/todo-api/internal/domain"
)

type MessageType string

const (
	MessageTypeConnected   MessageType = "CONNECTED"
	MessageTypeTaskCreated             = MessageType(domain.TaskEventCreated)
	MessageTypeTaskUpdated             = MessageType(domain.TaskEventUpdated)
	MessageTypeTaskDeleted             = MessageType(domain.TaskEventDeleted)
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// ParsePayload decodes the message payload into v.
func (m *Message) ParsePayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

func mustMessage(msgType MessageType, payload interface{}) *Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

type ConnectedPayload struct {
	UserID string `json:"user_id"`
}

type TaskEventPayload struct {
	TaskID string       `json:"task_id"`
	Task   *domain.Task `json:"task,omitempty"`
}
