package chat

import "time"

// Service names registered in the service container.
const (
	ServiceEnsureGroup    = "ensure-group"
	ServiceAppendMessage  = "append-message"
	ServiceRecentMessages = "recent-messages"
)

// DefaultHistoryLimit is the number of messages replayed when a client asks
// for history without an explicit limit.
const DefaultHistoryLimit = 20

// StoredMessage is the transport form of a persisted message.
type StoredMessage struct {
	MessageID uint      `json:"message_id"`
	Creator   string    `json:"creator"`
	Content   string    `json:"content"`
	GroupID   uint      `json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}

// EnsureGroupRequest asks for the chat group behind a room key, creating it
// if absent.
type EnsureGroupRequest struct {
	RoomKey string `json:"room_key"`
}

// EnsureGroupResponse carries the group identity.
type EnsureGroupResponse struct {
	GroupID uint   `json:"group_id"`
	RoomKey string `json:"room_key"`
}

// AppendMessageRequest persists one message.
type AppendMessageRequest struct {
	GroupID   uint   `json:"group_id"`
	RoomKey   string `json:"room_key"`
	CreatorID string `json:"creator_id"`
	Creator   string `json:"creator"`
	Content   string `json:"content"`
}

// AppendMessageResponse carries the stored message.
type AppendMessageResponse struct {
	Message StoredMessage `json:"message"`
}

// RecentMessagesRequest reads the history tail of a room.
type RecentMessagesRequest struct {
	RoomKey string `json:"room_key"`
	Limit   int    `json:"limit"`
}

// RecentMessagesResponse carries messages in display order, oldest first.
type RecentMessagesResponse struct {
	Messages []StoredMessage `json:"messages"`
}
