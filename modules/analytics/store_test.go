package analytics

import (
	"fmt"
	"testing"
	"time"
)

func TestStatsStore_RecordMessage(t *testing.T) {
	store := NewStatsStore()
	now := time.Now()

	store.RecordMessage("chat_1", "user-1", "alice@example.com", now)

	stats, exists := store.GetRoomStats("chat_1")
	if !exists {
		t.Fatal("expected stats to exist after recording a message")
	}
	if stats.TotalMessages != 1 {
		t.Errorf("TotalMessages = %d, want 1", stats.TotalMessages)
	}
	if !stats.LastActivity.Equal(now) {
		t.Errorf("LastActivity = %v, want %v", stats.LastActivity, now)
	}
}

func TestStatsStore_JoinsAndLeaves(t *testing.T) {
	store := NewStatsStore()
	now := time.Now()

	store.RecordJoin("chat_1", "user-1", "alice@example.com", now)
	store.RecordJoin("chat_1", "user-2", "bob@example.com", now)
	store.RecordLeave("chat_1", "user-1", "alice@example.com", now)

	stats, exists := store.GetRoomStats("chat_1")
	if !exists {
		t.Fatal("expected stats to exist")
	}
	if stats.TotalJoins != 2 {
		t.Errorf("TotalJoins = %d, want 2", stats.TotalJoins)
	}
	if stats.TotalLeaves != 1 {
		t.Errorf("TotalLeaves = %d, want 1", stats.TotalLeaves)
	}
}

func TestStatsStore_RoomsAreIsolated(t *testing.T) {
	store := NewStatsStore()
	now := time.Now()

	store.RecordMessage("chat_1", "user-1", "alice@example.com", now)
	store.RecordMessage("chat_1", "user-1", "alice@example.com", now)
	store.RecordMessage("chat_2", "user-2", "bob@example.com", now)

	stats1, _ := store.GetRoomStats("chat_1")
	stats2, _ := store.GetRoomStats("chat_2")
	if stats1.TotalMessages != 2 {
		t.Errorf("chat_1 TotalMessages = %d, want 2", stats1.TotalMessages)
	}
	if stats2.TotalMessages != 1 {
		t.Errorf("chat_2 TotalMessages = %d, want 1", stats2.TotalMessages)
	}

	all := store.GetAllRoomStats()
	if len(all) != 2 {
		t.Errorf("len(GetAllRoomStats()) = %d, want 2", len(all))
	}
}

func TestStatsStore_UnknownRoom(t *testing.T) {
	store := NewStatsStore()

	if _, exists := store.GetRoomStats("chat_999"); exists {
		t.Error("expected no stats for an unknown room")
	}
}

func TestStatsStore_RecentActivityOrderAndLimit(t *testing.T) {
	store := NewStatsStore()
	base := time.Now()

	for i := 0; i < 5; i++ {
		store.RecordMessage("chat_1", fmt.Sprintf("user-%d", i), "x@example.com", base.Add(time.Duration(i)*time.Second))
	}

	logs := store.GetRecentActivity(3)
	if len(logs) != 3 {
		t.Fatalf("len(logs) = %d, want 3", len(logs))
	}
	// Most recent entries, oldest of them first
	if logs[0].UserID != "user-2" || logs[2].UserID != "user-4" {
		t.Errorf("unexpected window: %+v", logs)
	}

	if logs := NewStatsStore().GetRecentActivity(10); logs != nil {
		t.Errorf("GetRecentActivity() on empty store = %v, want nil", logs)
	}
}

func TestStatsStore_ActivityLogLimit(t *testing.T) {
	store := NewStatsStoreWithLimit(10)
	now := time.Now()

	for i := 0; i < 25; i++ {
		store.RecordMessage("chat_1", fmt.Sprintf("user-%d", i), "x@example.com", now)
	}

	logs := store.GetRecentActivity(100)
	if len(logs) != 10 {
		t.Fatalf("len(logs) = %d, want 10", len(logs))
	}
	if logs[0].UserID != "user-15" {
		t.Errorf("oldest retained = %q, want user-15", logs[0].UserID)
	}

	stats, _ := store.GetRoomStats("chat_1")
	if stats.TotalMessages != 25 {
		t.Errorf("TotalMessages = %d, want 25 (counters are not windowed)", stats.TotalMessages)
	}
}

func TestStatsStore_Summary(t *testing.T) {
	store := NewStatsStore()
	now := time.Now()

	store.RecordMessage("chat_1", "user-1", "alice@example.com", now)
	store.RecordMessage("chat_2", "user-2", "bob@example.com", now)
	store.RecordJoin("chat_1", "user-1", "alice@example.com", now)

	summary := store.GetSummary()
	if summary["rooms_tracked"] != 2 {
		t.Errorf("rooms_tracked = %v, want 2", summary["rooms_tracked"])
	}
	if summary["total_messages"] != int64(2) {
		t.Errorf("total_messages = %v, want 2", summary["total_messages"])
	}
	if summary["activity_logs"] != 3 {
		t.Errorf("activity_logs = %v, want 3", summary["activity_logs"])
	}
}
