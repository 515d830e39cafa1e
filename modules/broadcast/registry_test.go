package broadcast

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeConn is a test transport that records written frames.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	failAt int // fail writes once this many frames were written, 0 = never
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAt > 0 && len(c.frames) >= c.failAt {
		return fmt.Errorf("write failed")
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) written() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func newTestSession(id, roomKey string) *Session {
	return NewSession(id, "user-"+id, id+"@example.com", roomKey, &fakeConn{})
}

func TestRegistry_JoinCreatesRoom(t *testing.T) {
	registry := NewRegistry()

	if registry.RoomCount() != 0 {
		t.Fatalf("RoomCount() = %d, want 0", registry.RoomCount())
	}

	s := newTestSession("s1", "chat_1")
	room := registry.Join("chat_1", s)

	if room == nil {
		t.Fatal("Join() returned nil room")
	}
	if room.Key != "chat_1" {
		t.Errorf("room.Key = %q, want %q", room.Key, "chat_1")
	}
	if registry.RoomCount() != 1 {
		t.Errorf("RoomCount() = %d, want 1", registry.RoomCount())
	}
	if registry.MemberCount("chat_1") != 1 {
		t.Errorf("MemberCount() = %d, want 1", registry.MemberCount("chat_1"))
	}
}

func TestRegistry_JoinIsIdempotentPerSession(t *testing.T) {
	registry := NewRegistry()
	s := newTestSession("s1", "chat_1")

	registry.Join("chat_1", s)
	registry.Join("chat_1", s)

	if registry.MemberCount("chat_1") != 1 {
		t.Errorf("MemberCount() = %d, want 1 after double join", registry.MemberCount("chat_1"))
	}
}

func TestRegistry_SecondJoinReusesRoom(t *testing.T) {
	registry := NewRegistry()

	room1 := registry.Join("chat_1", newTestSession("s1", "chat_1"))
	room2 := registry.Join("chat_1", newTestSession("s2", "chat_1"))

	if room1 != room2 {
		t.Error("expected both joins to land in the same room")
	}
	if registry.RoomCount() != 1 {
		t.Errorf("RoomCount() = %d, want 1", registry.RoomCount())
	}
	if registry.MemberCount("chat_1") != 2 {
		t.Errorf("MemberCount() = %d, want 2", registry.MemberCount("chat_1"))
	}
}

func TestRegistry_LastLeaveEvictsRoom(t *testing.T) {
	registry := NewRegistry()
	s1 := newTestSession("s1", "chat_1")
	s2 := newTestSession("s2", "chat_1")

	registry.Join("chat_1", s1)
	registry.Join("chat_1", s2)

	registry.Leave("chat_1", s1)
	if registry.RoomCount() != 1 {
		t.Errorf("RoomCount() = %d, want 1 while a member remains", registry.RoomCount())
	}

	registry.Leave("chat_1", s2)
	if registry.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d, want 0 after last leave", registry.RoomCount())
	}

	// A later join starts a fresh room
	registry.Join("chat_1", newTestSession("s3", "chat_1"))
	if registry.MemberCount("chat_1") != 1 {
		t.Errorf("MemberCount() = %d, want 1 in recreated room", registry.MemberCount("chat_1"))
	}
}

func TestRegistry_LeaveIsIdempotent(t *testing.T) {
	registry := NewRegistry()
	s := newTestSession("s1", "chat_1")

	registry.Leave("chat_1", s) // room never existed
	registry.Join("chat_1", s)
	registry.Leave("chat_1", s)
	registry.Leave("chat_1", s) // already gone

	if registry.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d, want 0", registry.RoomCount())
	}
}

func TestRegistry_RoomsAreIsolated(t *testing.T) {
	registry := NewRegistry()

	registry.Join("chat_1", newTestSession("s1", "chat_1"))
	registry.Join("chat_2", newTestSession("s2", "chat_2"))
	registry.Join("chat_2", newTestSession("s3", "chat_2"))

	if registry.RoomCount() != 2 {
		t.Errorf("RoomCount() = %d, want 2", registry.RoomCount())
	}
	if registry.MemberCount("chat_1") != 1 {
		t.Errorf("MemberCount(chat_1) = %d, want 1", registry.MemberCount("chat_1"))
	}
	if registry.MemberCount("chat_2") != 2 {
		t.Errorf("MemberCount(chat_2) = %d, want 2", registry.MemberCount("chat_2"))
	}
	if registry.SessionCount() != 3 {
		t.Errorf("SessionCount() = %d, want 3", registry.SessionCount())
	}
}

func TestRegistry_MembersSnapshot(t *testing.T) {
	registry := NewRegistry()
	s1 := newTestSession("s1", "chat_1")
	s2 := newTestSession("s2", "chat_1")
	registry.Join("chat_1", s1)
	registry.Join("chat_1", s2)

	members := registry.Members("chat_1")
	if len(members) != 2 {
		t.Fatalf("len(Members()) = %d, want 2", len(members))
	}

	// Mutating membership after the snapshot does not affect it
	registry.Leave("chat_1", s1)
	if len(members) != 2 {
		t.Errorf("snapshot changed after Leave, len = %d", len(members))
	}

	if registry.Members("no-such-room") != nil {
		t.Error("Members() for unknown room should be nil")
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	registry := NewRegistry()
	s1 := newTestSession("s1", "chat_1")
	s2 := newTestSession("s2", "chat_2")
	registry.Join("chat_1", s1)
	registry.Join("chat_2", s2)

	registry.CloseAll()

	if registry.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d, want 0", registry.RoomCount())
	}
	if !s1.Closed() || !s2.Closed() {
		t.Error("expected all sessions closed")
	}
}

func TestRegistry_ConcurrentJoinLeave(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s := newTestSession(fmt.Sprintf("s%d", n), "chat_1")
			registry.Join("chat_1", s)
			registry.Leave("chat_1", s)
		}(i)
	}
	wg.Wait()

	if registry.SessionCount() != 0 {
		t.Errorf("SessionCount() = %d, want 0 after all leaves", registry.SessionCount())
	}
}
