package transport

import (
	"encoding/json"
	"time"
)

// Room-scoped events carried over the socket. Inbound and outbound
// typing share one event name; direction decides the payload shape.
const (
	EventMessage    = "message"
	EventUserJoined = "user_joined"
	EventUserLeft   = "user_left"
	EventTyping     = "typing"
	EventError      = "error"

	EventSendMessage = "send_message"
)

// Error codes the server attaches to EventError payloads.
const (
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
)

// Envelope is the wire frame: every socket message is one JSON object
// tagging an event name and room with an opaque payload.
type Envelope struct {
	Event  string          `json:"event"`
	RoomID string          `json:"roomId"`
	Data   json.RawMessage `json:"data"`
}

type MessagePayload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type PresencePayload struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt,omitzero"`
}

type TypingPayload struct {
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	IsTyping bool   `json:"isTyping"`
}

type SendMessagePayload struct {
	Content string `json:"content"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
