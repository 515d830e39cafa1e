// Package protocol defines the wire envelope exchanged over a chat room
// websocket and the codec for it. Frames are tagged JSON objects: every
// inbound frame carries a "type" and a "message" field, every outbound frame
// wraps its payload in a "message" list so clients render single messages and
// history batches with the same code path.
package protocol

import "time"

// Inbound frame types.
const (
	TypeFetchMessages = "fetch_messages"
	TypeSingleMessage = "single_message"
)

// Outbound frame types.
const (
	TypeChatMessage = "chat_message"
	TypeAllMessage  = "all_message"
	TypeError       = "error"
)

// Inbound is a decoded client frame.
type Inbound struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MessagePayload is the wire form of one stored chat message.
type MessagePayload struct {
	MessageID uint      `json:"message_id"`
	Creator   string    `json:"creator"`
	Content   string    `json:"content"`
	GroupName uint      `json:"group_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Envelope is an outbound frame carrying one or more messages.
type Envelope struct {
	Type    string           `json:"type"`
	Message []MessagePayload `json:"message"`
}

// ErrorFrame is an outbound frame reporting a per-request failure to the
// sender. It never tears down the connection.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// KnownInbound reports whether t is a recognized inbound frame type.
func KnownInbound(t string) bool {
	return t == TypeFetchMessages || t == TypeSingleMessage
}
