package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userdomain "github.com/example/course-chat/domain/user"
	"github.com/example/course-chat/modules/broadcast"
	"github.com/example/course-chat/modules/chat"
	"github.com/example/course-chat/protocol"
)

// recordingConn captures frames written by a session's pump.
type recordingConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (c *recordingConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *recordingConn) SetWriteDeadline(time.Time) error { return nil }
func (c *recordingConn) Close() error                     { return nil }

func (c *recordingConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *recordingConn) frame(i int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[i]
}

// waitFrames waits until conn has received at least n frames.
func waitFrames(t *testing.T, conn *recordingConn, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for conn.count() < n {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d frames, got %d", n, conn.count())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// fakeChatPort is an in-memory ChatPort double.
type fakeChatPort struct {
	mu        sync.Mutex
	groupID   uint
	nextID    uint
	ensureErr error
	appendErr error
	recentErr error
	history   []chat.StoredMessage
	appended  []string
}

func (f *fakeChatPort) EnsureGroup(_ context.Context, _ string) (uint, error) {
	if f.ensureErr != nil {
		return 0, f.ensureErr
	}
	return f.groupID, nil
}

func (f *fakeChatPort) Append(_ context.Context, groupID uint, _, _, creator, content string) (chat.StoredMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return chat.StoredMessage{}, f.appendErr
	}
	f.nextID++
	f.appended = append(f.appended, content)
	return chat.StoredMessage{
		MessageID: f.nextID,
		Creator:   creator,
		Content:   content,
		GroupID:   groupID,
		CreatedAt: time.Now(),
	}, nil
}

func (f *fakeChatPort) Recent(_ context.Context, _ string, _ int) ([]chat.StoredMessage, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.history, nil
}

func (f *fakeChatPort) appendedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appended)
}

type sessionFixture struct {
	registry *broadcast.Registry
	router   *broadcast.Router
	port     *fakeChatPort
	conn     *recordingConn
	session  *ChatSession
}

func newSessionFixture(t *testing.T, permissive bool) *sessionFixture {
	t.Helper()
	registry := broadcast.NewRegistry()
	router := broadcast.NewRouter(registry)
	port := &fakeChatPort{groupID: 7}
	conn := &recordingConn{}

	transport := broadcast.NewSession("sess-1", "user-1", "alice@example.com", "chat_7", conn)
	session := newChatSession(
		userdomain.Claims{UserID: "user-1", Email: "alice@example.com"},
		7, transport, registry, router, port, chat.DefaultHistoryLimit, permissive)

	return &sessionFixture{
		registry: registry,
		router:   router,
		port:     port,
		conn:     conn,
		session:  session,
	}
}

// join completes the accept and starts the writer pump.
func (fx *sessionFixture) join(t *testing.T) {
	t.Helper()
	require.NoError(t, fx.session.Join(context.Background()))
	go fx.session.transport.WritePump()
	t.Cleanup(fx.session.Close)
}

// attachPeer adds a second member to the same room.
func (fx *sessionFixture) attachPeer(id string) (*broadcast.Session, *recordingConn) {
	conn := &recordingConn{}
	peer := broadcast.NewSession(id, "user-"+id, id+"@example.com", "chat_7", conn)
	fx.registry.Join("chat_7", peer)
	go peer.WritePump()
	return peer, conn
}

func TestChatSession_JoinAttachesToRoom(t *testing.T) {
	fx := newSessionFixture(t, false)

	assert.Equal(t, 0, fx.registry.RoomCount())
	fx.join(t)

	assert.Equal(t, 1, fx.registry.RoomCount())
	assert.Equal(t, 1, fx.registry.MemberCount("chat_7"))
	assert.Equal(t, uint(7), fx.session.groupID)
}

func TestChatSession_JoinFailsWhenGroupUnresolvable(t *testing.T) {
	fx := newSessionFixture(t, false)
	fx.port.ensureErr = errors.New("database down")

	err := fx.session.Join(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, fx.registry.RoomCount())
}

func TestChatSession_JoinTwiceFails(t *testing.T) {
	fx := newSessionFixture(t, false)
	fx.join(t)

	assert.Error(t, fx.session.Join(context.Background()))
}

func TestChatSession_FetchRepliesOnlyToRequester(t *testing.T) {
	fx := newSessionFixture(t, false)
	fx.port.history = []chat.StoredMessage{
		{MessageID: 1, Creator: "bob@example.com", Content: "older", GroupID: 7},
		{MessageID: 2, Creator: "alice@example.com", Content: "newer", GroupID: 7},
	}
	fx.join(t)
	_, peerConn := fx.attachPeer("sess-2")

	fx.session.HandleFrame(context.Background(), []byte(`{"type":"fetch_messages","message":""}`))
	waitFrames(t, fx.conn, 1)

	var env protocol.Envelope
	require.NoError(t, json.Unmarshal(fx.conn.frame(0), &env))
	assert.Equal(t, protocol.TypeAllMessage, env.Type)
	require.Len(t, env.Message, 2)
	assert.Equal(t, uint(1), env.Message[0].MessageID)
	assert.Equal(t, uint(2), env.Message[1].MessageID)
	assert.Equal(t, uint(7), env.Message[0].GroupName)

	// History is a direct reply, not a broadcast
	assert.Equal(t, 0, peerConn.count())
}

func TestChatSession_FetchEmptyHistory(t *testing.T) {
	fx := newSessionFixture(t, false)
	fx.join(t)

	fx.session.HandleFrame(context.Background(), []byte(`{"type":"fetch_messages","message":""}`))
	waitFrames(t, fx.conn, 1)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(fx.conn.frame(0), &raw))
	assert.JSONEq(t, `[]`, string(raw["message"]))
}

func TestChatSession_SendBroadcastsToRoom(t *testing.T) {
	fx := newSessionFixture(t, false)
	fx.join(t)
	_, peerConn := fx.attachPeer("sess-2")

	fx.session.HandleFrame(context.Background(), []byte(`{"type":"single_message","message":"hello room"}`))
	waitFrames(t, fx.conn, 1)
	waitFrames(t, peerConn, 1)

	// Sender and peer both receive the same chat_message frame
	for _, conn := range []*recordingConn{fx.conn, peerConn} {
		var env protocol.Envelope
		require.NoError(t, json.Unmarshal(conn.frame(0), &env))
		assert.Equal(t, protocol.TypeChatMessage, env.Type)
		require.Len(t, env.Message, 1)
		assert.Equal(t, "hello room", env.Message[0].Content)
		assert.Equal(t, "alice@example.com", env.Message[0].Creator)
		assert.Equal(t, uint(7), env.Message[0].GroupName)
	}
}

func TestChatSession_EmptyContentErrorsToSenderOnly(t *testing.T) {
	fx := newSessionFixture(t, false)
	fx.join(t)
	_, peerConn := fx.attachPeer("sess-2")

	fx.session.HandleFrame(context.Background(), []byte(`{"type":"single_message","message":""}`))
	waitFrames(t, fx.conn, 1)

	var ef protocol.ErrorFrame
	require.NoError(t, json.Unmarshal(fx.conn.frame(0), &ef))
	assert.Equal(t, protocol.TypeError, ef.Type)

	assert.Equal(t, 0, fx.port.appendedCount())
	assert.Equal(t, 0, peerConn.count())
}

func TestChatSession_AppendFailureReachesNobodyElse(t *testing.T) {
	fx := newSessionFixture(t, false)
	fx.join(t)
	_, peerConn := fx.attachPeer("sess-2")
	fx.port.appendErr = errors.New("disk full")

	fx.session.HandleFrame(context.Background(), []byte(`{"type":"single_message","message":"lost"}`))
	waitFrames(t, fx.conn, 1)

	var ef protocol.ErrorFrame
	require.NoError(t, json.Unmarshal(fx.conn.frame(0), &ef))
	assert.Equal(t, protocol.TypeError, ef.Type)
	assert.Equal(t, 0, peerConn.count())
}

func TestChatSession_MalformedFrameIsIgnored(t *testing.T) {
	fx := newSessionFixture(t, false)
	fx.join(t)

	fx.session.HandleFrame(context.Background(), []byte(`{"type":`))
	fx.session.HandleFrame(context.Background(), []byte(`{"message":"no type"}`))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, fx.conn.count())
	assert.Equal(t, 0, fx.port.appendedCount())
}

func TestChatSession_UnknownTypeStrictMode(t *testing.T) {
	fx := newSessionFixture(t, false)
	fx.join(t)

	fx.session.HandleFrame(context.Background(), []byte(`{"type":"typing","message":"hi"}`))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, fx.conn.count())
	assert.Equal(t, 0, fx.port.appendedCount())
}

func TestChatSession_UnknownTypePermissiveMode(t *testing.T) {
	fx := newSessionFixture(t, true)
	fx.join(t)

	fx.session.HandleFrame(context.Background(), []byte(`{"type":"typing","message":"hi"}`))
	waitFrames(t, fx.conn, 1)

	var env protocol.Envelope
	require.NoError(t, json.Unmarshal(fx.conn.frame(0), &env))
	assert.Equal(t, protocol.TypeChatMessage, env.Type)
	assert.Equal(t, 1, fx.port.appendedCount())
}

func TestChatSession_CloseLeavesRoom(t *testing.T) {
	fx := newSessionFixture(t, false)
	fx.join(t)
	require.Equal(t, 1, fx.registry.RoomCount())

	fx.session.Close()
	assert.Equal(t, 0, fx.registry.RoomCount())

	// Frames after close are dropped
	fx.session.HandleFrame(context.Background(), []byte(`{"type":"single_message","message":"late"}`))
	assert.Equal(t, 0, fx.port.appendedCount())

	// Closing twice is safe
	fx.session.Close()
}

func TestChatSession_CloseBeforeJoin(t *testing.T) {
	fx := newSessionFixture(t, false)

	fx.session.Close()
	assert.Equal(t, 0, fx.registry.RoomCount())
}

func TestRoomKey(t *testing.T) {
	assert.Equal(t, "chat_1", roomKey(1))
	assert.Equal(t, "chat_42", roomKey(42))
}
