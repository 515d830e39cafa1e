package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ChatPort is the interface other modules use to reach the message log.
type ChatPort interface {
	EnsureGroup(ctx context.Context, roomKey string) (uint, error)
	Append(ctx context.Context, groupID uint, roomKey, creatorID, creator, content string) (StoredMessage, error)
	Recent(ctx context.Context, roomKey string, limit int) ([]StoredMessage, error)
}

// ChatAdapter implements ChatPort using the service container.
type ChatAdapter struct {
	container mono.ServiceContainer
}

// NewChatAdapter creates a new ChatAdapter.
func NewChatAdapter(container mono.ServiceContainer) ChatPort {
	if container == nil {
		panic("chat: ServiceContainer is nil")
	}
	return &ChatAdapter{container: container}
}

// EnsureGroup resolves a room key to its chat group id, creating the group
// on first use.
func (a *ChatAdapter) EnsureGroup(ctx context.Context, roomKey string) (uint, error) {
	req := EnsureGroupRequest{RoomKey: roomKey}
	var resp EnsureGroupResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceEnsureGroup,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return 0, fmt.Errorf("failed to ensure group: %w", err)
	}
	return resp.GroupID, nil
}

// Append persists one message and returns the stored form.
func (a *ChatAdapter) Append(ctx context.Context, groupID uint, roomKey, creatorID, creator, content string) (StoredMessage, error) {
	req := AppendMessageRequest{
		GroupID:   groupID,
		RoomKey:   roomKey,
		CreatorID: creatorID,
		Creator:   creator,
		Content:   content,
	}
	var resp AppendMessageResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceAppendMessage,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return StoredMessage{}, fmt.Errorf("failed to append message: %w", err)
	}
	return resp.Message, nil
}

// Recent returns the newest messages of a room in display order, oldest
// first. An unknown room yields an empty slice.
func (a *ChatAdapter) Recent(ctx context.Context, roomKey string, limit int) ([]StoredMessage, error) {
	req := RecentMessagesRequest{RoomKey: roomKey, Limit: limit}
	var resp RecentMessagesResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRecentMessages,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return resp.Messages, nil
}
