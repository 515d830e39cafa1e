package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	domain "github.com/example/course-chat/domain/chat"
	"github.com/example/course-chat/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module owns the durable message log and exposes it as request-reply
// services. It emits a MessageStored event for every successful append.
type Module struct {
	db       *gorm.DB
	store    *Store
	eventBus mono.EventBus
	dbPath   string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new chat store module.
func NewModule() *Module {
	dbPath := os.Getenv("CHAT_DB_PATH")
	if dbPath == "" {
		dbPath = "course_chat.db"
	}
	return &Module{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageStoredV1.ToBase(),
	}
}

// Start opens the database and migrates the chat schema.
func (m *Module) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.ChatGroup{}, &domain.Message{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.store = NewStore(db)
	log.Printf("[chat] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop closes the database.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[chat] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}
	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceEnsureGroup,
		json.Unmarshal,
		json.Marshal,
		m.handleEnsureGroup,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceEnsureGroup, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceAppendMessage,
		json.Unmarshal,
		json.Marshal,
		m.handleAppendMessage,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceAppendMessage, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceRecentMessages,
		json.Unmarshal,
		json.Marshal,
		m.handleRecentMessages,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRecentMessages, err)
	}

	log.Printf("[chat] Registered services: %s, %s, %s",
		ServiceEnsureGroup, ServiceAppendMessage, ServiceRecentMessages)
	return nil
}

// handleEnsureGroup resolves a room key to its durable chat group.
func (m *Module) handleEnsureGroup(_ context.Context, req EnsureGroupRequest, _ *mono.Msg) (EnsureGroupResponse, error) {
	if req.RoomKey == "" {
		return EnsureGroupResponse{}, fmt.Errorf("room key is required")
	}
	group, err := m.store.EnsureGroup(req.RoomKey)
	if err != nil {
		return EnsureGroupResponse{}, err
	}
	return EnsureGroupResponse{
		GroupID: group.ID,
		RoomKey: group.GroupName,
	}, nil
}

// handleAppendMessage persists one message and emits MessageStored.
func (m *Module) handleAppendMessage(_ context.Context, req AppendMessageRequest, _ *mono.Msg) (AppendMessageResponse, error) {
	msg, err := m.store.Append(req.GroupID, req.CreatorID, req.Creator, req.Content)
	if err != nil {
		return AppendMessageResponse{}, err
	}

	event := events.MessageStoredEvent{
		MessageID: msg.ID,
		GroupID:   msg.ChatGroupID,
		RoomKey:   req.RoomKey,
		CreatorID: msg.CreatorID,
		Creator:   msg.Creator,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	if err := events.MessageStoredV1.Publish(m.eventBus, event, nil); err != nil {
		slog.Warn("Failed to publish MessageStored event", "error", err)
	}

	return AppendMessageResponse{
		Message: StoredMessage{
			MessageID: msg.ID,
			Creator:   msg.Creator,
			Content:   msg.Content,
			GroupID:   msg.ChatGroupID,
			CreatedAt: msg.CreatedAt,
		},
	}, nil
}

// handleRecentMessages reads the newest messages of a room and returns them
// in display order, oldest first.
func (m *Module) handleRecentMessages(_ context.Context, req RecentMessagesRequest, _ *mono.Msg) (RecentMessagesResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	newestFirst, err := m.store.Recent(req.RoomKey, limit)
	if err != nil {
		return RecentMessagesResponse{}, err
	}

	// The store scans id DESC; flip to chronological order for display.
	msgs := make([]StoredMessage, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		msg := newestFirst[i]
		msgs = append(msgs, StoredMessage{
			MessageID: msg.ID,
			Creator:   msg.Creator,
			Content:   msg.Content,
			GroupID:   msg.ChatGroupID,
			CreatedAt: msg.CreatedAt,
		})
	}
	return RecentMessagesResponse{Messages: msgs}, nil
}
