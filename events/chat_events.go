package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageStoredEvent is emitted after a chat message has been durably
// appended to its room's log. It is observational; broadcast delivery does
// not ride on the event bus.
type MessageStoredEvent struct {
	MessageID uint      `json:"message_id"`
	GroupID   uint      `json:"group_id"`
	RoomKey   string    `json:"room_key"`
	CreatorID string    `json:"creator_id"`
	Creator   string    `json:"creator"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberJoinedEvent is emitted when a session attaches to a room.
type MemberJoinedEvent struct {
	RoomKey   string    `json:"room_key"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Handle    string    `json:"handle"`
	Timestamp time.Time `json:"timestamp"`
}

// MemberLeftEvent is emitted when a session detaches from a room.
type MemberLeftEvent struct {
	RoomKey   string    `json:"room_key"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Handle    string    `json:"handle"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the chat domain.
var (
	MessageStoredV1 = helper.EventDefinition[MessageStoredEvent](
		"chat",
		"MessageStored",
		"v1",
	)

	MemberJoinedV1 = helper.EventDefinition[MemberJoinedEvent](
		"gateway",
		"MemberJoined",
		"v1",
	)

	MemberLeftV1 = helper.EventDefinition[MemberLeftEvent](
		"gateway",
		"MemberLeft",
		"v1",
	)
)
