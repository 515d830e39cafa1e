package broadcast

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	// sendBuffer bounds the per-session outbound queue. A recipient that
	// falls this far behind starts losing broadcast frames instead of
	// stalling the room.
	sendBuffer = 64
	// writeWait bounds a single transport write.
	writeWait = 10 * time.Second
)

var (
	// ErrSessionClosed is returned when pushing to a closed session.
	ErrSessionClosed = errors.New("session closed")
	// ErrSlowConsumer is returned when a session's outbound queue is full.
	ErrSlowConsumer = errors.New("session outbound queue full")
)

// Conn is the transport handle a session writes frames to. The Fiber
// websocket connection satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is one live connection's delivery endpoint: the authenticated
// identity plus a buffered outbound queue drained by a dedicated writer
// goroutine. All frames for a connection go through its queue, so the
// registry lock is never held across a transport write.
type Session struct {
	ID      string
	UserID  string
	Handle  string
	RoomKey string

	conn Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
	logger    *slog.Logger
}

// NewSession creates a session for one accepted connection.
func NewSession(id, userID, handle, roomKey string, conn Conn) *Session {
	return &Session{
		ID:      id,
		UserID:  userID,
		Handle:  handle,
		RoomKey: roomKey,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		logger:  slog.Default(),
	}
}

// Push queues a frame for delivery. It never blocks: a closed session
// returns ErrSessionClosed, a full queue returns ErrSlowConsumer and the
// frame is dropped for this recipient only.
func (s *Session) Push(data []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.send <- data:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// WritePump drains the outbound queue onto the transport. It runs until the
// session is closed or a write fails, and owns closing the transport handle.
func (s *Session) WritePump() {
	defer s.conn.Close()

	for {
		select {
		case <-s.done:
			return
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("Session write failed, closing",
					"sessionID", s.ID, "error", err)
				s.Close()
				return
			}
		}
	}
}

// Close marks the session closed. Safe to call more than once and from any
// goroutine; queued frames are discarded.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
