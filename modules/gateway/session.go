package gateway

import (
	"context"
	"fmt"
	"log/slog"

	userdomain "github.com/example/course-chat/domain/user"
	"github.com/example/course-chat/modules/broadcast"
	"github.com/example/course-chat/modules/chat"
	"github.com/example/course-chat/protocol"
)

// sessionState tracks the connection lifecycle. Transitions happen only on
// the connection's read goroutine, so no locking is needed here; frames from
// one connection are always handled sequentially.
type sessionState int

const (
	stateConnecting sessionState = iota
	stateJoined
	stateClosed
)

// roomKey derives the stable room key for a course, matching the key the
// message store groups history under.
func roomKey(courseID uint) string {
	return fmt.Sprintf("chat_%d", courseID)
}

// ChatSession is one participant's protocol state machine:
// Connecting -> Joined -> Closed. It owns the transition side effects -
// attaching to and detaching from the room registry - and dispatches inbound
// frames while Joined.
type ChatSession struct {
	identity userdomain.Claims
	courseID uint
	roomKey  string
	groupID  uint

	state     sessionState
	transport *broadcast.Session
	registry  *broadcast.Registry
	router    *broadcast.Router
	chatPort  chat.ChatPort

	historyLimit int
	// permissive restores the legacy behavior of treating any unknown
	// frame type as chat content. Off by default; unknown types are
	// rejected.
	permissive bool

	logger *slog.Logger
}

// newChatSession creates a session in the Connecting state.
func newChatSession(
	identity userdomain.Claims,
	courseID uint,
	transport *broadcast.Session,
	registry *broadcast.Registry,
	router *broadcast.Router,
	chatPort chat.ChatPort,
	historyLimit int,
	permissive bool,
) *ChatSession {
	return &ChatSession{
		identity:     identity,
		courseID:     courseID,
		roomKey:      roomKey(courseID),
		state:        stateConnecting,
		transport:    transport,
		registry:     registry,
		router:       router,
		chatPort:     chatPort,
		historyLimit: historyLimit,
		permissive:   permissive,
		logger:       slog.Default(),
	}
}

// Join completes the accept: it resolves the durable chat group for the room
// and attaches the transport to the registry. On failure the session stays
// out of the registry and there is nothing to undo.
func (s *ChatSession) Join(ctx context.Context) error {
	if s.state != stateConnecting {
		return fmt.Errorf("join from invalid state %d", s.state)
	}

	groupID, err := s.chatPort.EnsureGroup(ctx, s.roomKey)
	if err != nil {
		return fmt.Errorf("failed to resolve chat group for %s: %w", s.roomKey, err)
	}
	s.groupID = groupID

	s.registry.Join(s.roomKey, s.transport)
	s.state = stateJoined
	return nil
}

// HandleFrame processes one inbound frame while Joined. Malformed frames and
// unknown types are logged and ignored; they never tear the connection down.
func (s *ChatSession) HandleFrame(ctx context.Context, data []byte) {
	if s.state != stateJoined {
		return
	}

	frame, err := protocol.DecodeInbound(data)
	if err != nil {
		s.logger.Warn("Ignoring malformed frame",
			"roomKey", s.roomKey, "user", s.identity.Email, "error", err)
		return
	}

	switch frame.Type {
	case protocol.TypeFetchMessages:
		s.handleFetch(ctx)
	case protocol.TypeSingleMessage:
		s.handleSend(ctx, frame.Message)
	default:
		if s.permissive {
			// Legacy clients rely on unrecognized types falling through
			// to "send this as chat".
			s.handleSend(ctx, frame.Message)
			return
		}
		s.logger.Warn("Ignoring unknown frame type",
			"type", frame.Type, "roomKey", s.roomKey, "user", s.identity.Email)
	}
}

// handleFetch replays the most recent history to this session only.
func (s *ChatSession) handleFetch(ctx context.Context) {
	stored, err := s.chatPort.Recent(ctx, s.roomKey, s.historyLimit)
	if err != nil {
		s.logger.Error("History read failed",
			"roomKey", s.roomKey, "error", err)
		s.replyError("failed to load message history")
		return
	}

	payloads := make([]protocol.MessagePayload, 0, len(stored))
	for _, msg := range stored {
		payloads = append(payloads, toPayload(msg))
	}

	frame, err := protocol.EncodeHistory(payloads)
	if err != nil {
		s.logger.Error("Failed to encode history reply", "error", err)
		return
	}
	if err := s.transport.Push(frame); err != nil {
		s.logger.Warn("Dropping history reply",
			"roomKey", s.roomKey, "error", err)
	}
}

// handleSend validates, persists, then fans the message out to the room.
// Broadcast happens only after a successful append; a store failure is
// reported to the sender and reaches nobody else.
func (s *ChatSession) handleSend(ctx context.Context, content string) {
	if content == "" {
		s.replyError("message content cannot be empty")
		return
	}

	stored, err := s.chatPort.Append(
		ctx, s.groupID, s.roomKey, s.identity.UserID, s.identity.Email, content)
	if err != nil {
		s.logger.Error("Message append failed",
			"roomKey", s.roomKey, "user", s.identity.Email, "error", err)
		s.replyError("message could not be saved")
		return
	}

	frame, err := protocol.EncodeChatMessage(toPayload(stored))
	if err != nil {
		s.logger.Error("Failed to encode broadcast frame", "error", err)
		return
	}
	s.router.Broadcast(s.roomKey, frame)
}

// Close detaches the session from the registry and closes the transport.
// Idempotent, and safe even if Join never completed.
func (s *ChatSession) Close() {
	if s.state == stateClosed {
		return
	}
	if s.state == stateJoined {
		s.registry.Leave(s.roomKey, s.transport)
	}
	s.transport.Close()
	s.state = stateClosed
}

// replyError surfaces a per-request failure to the sender only.
func (s *ChatSession) replyError(text string) {
	frame, err := protocol.EncodeError(text)
	if err != nil {
		return
	}
	_ = s.transport.Push(frame)
}

func toPayload(msg chat.StoredMessage) protocol.MessagePayload {
	return protocol.MessagePayload{
		MessageID: msg.MessageID,
		Creator:   msg.Creator,
		Content:   msg.Content,
		GroupName: msg.GroupID,
		CreatedAt: msg.CreatedAt,
	}
}
