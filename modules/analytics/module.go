package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-monolith/mono"

	"github.com/example/course-chat/events"
)

// Module consumes chat events and tracks room activity statistics.
type Module struct {
	store  *StatsStore
	logger *slog.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
)

// NewModule creates a new analytics module.
func NewModule() *Module {
	return &Module{
		store:  NewStatsStore(),
		logger: slog.Default(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "analytics"
}

// RegisterEventConsumers registers event handlers for chat events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	storedDef, ok := registry.GetEventByName("MessageStored", "v1", "chat")
	if !ok {
		return fmt.Errorf("event MessageStored.v1 not found")
	}
	if err := registry.RegisterEventConsumer(storedDef, m.handleMessageStored, m); err != nil {
		return fmt.Errorf("failed to register MessageStored consumer: %w", err)
	}

	joinedDef, ok := registry.GetEventByName("MemberJoined", "v1", "gateway")
	if !ok {
		return fmt.Errorf("event MemberJoined.v1 not found")
	}
	if err := registry.RegisterEventConsumer(joinedDef, m.handleMemberJoined, m); err != nil {
		return fmt.Errorf("failed to register MemberJoined consumer: %w", err)
	}

	leftDef, ok := registry.GetEventByName("MemberLeft", "v1", "gateway")
	if !ok {
		return fmt.Errorf("event MemberLeft.v1 not found")
	}
	if err := registry.RegisterEventConsumer(leftDef, m.handleMemberLeft, m); err != nil {
		return fmt.Errorf("failed to register MemberLeft consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", []string{"MessageStored.v1", "MemberJoined.v1", "MemberLeft.v1"})
	return nil
}

// handleMessageStored processes MessageStored events.
func (m *Module) handleMessageStored(_ context.Context, msg *mono.Msg) error {
	var event events.MessageStoredEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		m.logger.Error("Failed to unmarshal MessageStored event", "error", err)
		return nil // Don't retry on unmarshal errors
	}

	m.store.RecordMessage(event.RoomKey, event.CreatorID, event.Creator, event.CreatedAt)
	return nil
}

// handleMemberJoined processes MemberJoined events.
func (m *Module) handleMemberJoined(_ context.Context, msg *mono.Msg) error {
	var event events.MemberJoinedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		m.logger.Error("Failed to unmarshal MemberJoined event", "error", err)
		return nil
	}

	m.store.RecordJoin(event.RoomKey, event.UserID, event.Handle, event.Timestamp)
	return nil
}

// handleMemberLeft processes MemberLeft events.
func (m *Module) handleMemberLeft(_ context.Context, msg *mono.Msg) error {
	var event events.MemberLeftEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		m.logger.Error("Failed to unmarshal MemberLeft event", "error", err)
		return nil
	}

	m.store.RecordLeave(event.RoomKey, event.UserID, event.Handle, event.Timestamp)
	return nil
}

// Start initializes the analytics module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Analytics module started")
	return nil
}

// Stop gracefully shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Analytics module stopped")
	return nil
}

// Store returns the stats store.
func (m *Module) Store() *StatsStore {
	return m.store
}

// RegisterServices registers this module's services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := container.RegisterRequestReplyService("get-chat-summary", m.handleGetSummary); err != nil {
		return fmt.Errorf("failed to register get-chat-summary service: %w", err)
	}

	if err := container.RegisterRequestReplyService("get-room-stats", m.handleGetRoomStats); err != nil {
		return fmt.Errorf("failed to register get-room-stats service: %w", err)
	}

	if err := container.RegisterRequestReplyService("get-recent-activity", m.handleGetActivity); err != nil {
		return fmt.Errorf("failed to register get-recent-activity service: %w", err)
	}

	m.logger.Info("Registered analytics services",
		"services", []string{"get-chat-summary", "get-room-stats", "get-recent-activity"})
	return nil
}

// handleGetSummary handles get-chat-summary service requests.
func (m *Module) handleGetSummary(_ context.Context, _ *mono.Msg) ([]byte, error) {
	return json.Marshal(m.store.GetSummary())
}

// handleGetRoomStats handles get-room-stats service requests.
func (m *Module) handleGetRoomStats(_ context.Context, msg *mono.Msg) ([]byte, error) {
	var req struct {
		RoomKey string `json:"room_key"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	if req.RoomKey == "" {
		return json.Marshal(m.store.GetAllRoomStats())
	}

	stats, ok := m.store.GetRoomStats(req.RoomKey)
	if !ok {
		return json.Marshal(RoomStats{RoomKey: req.RoomKey})
	}
	return json.Marshal(stats)
}

// handleGetActivity handles get-recent-activity service requests.
func (m *Module) handleGetActivity(_ context.Context, msg *mono.Msg) ([]byte, error) {
	var req struct {
		Limit int `json:"limit"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	if req.Limit <= 0 {
		req.Limit = 100
	}
	if req.Limit > 1000 {
		req.Limit = 1000
	}

	return json.Marshal(m.store.GetRecentActivity(req.Limit))
}
