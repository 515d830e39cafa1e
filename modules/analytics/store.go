package analytics

import (
	"sync"
	"time"
)

// ActivityLog is a single recorded chat event.
type ActivityLog struct {
	RoomKey   string    `json:"room_key"`
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id,omitempty"`
	Handle    string    `json:"handle,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomStats tracks activity for a single chat room.
type RoomStats struct {
	RoomKey       string    `json:"room_key"`
	TotalMessages int64     `json:"total_messages"`
	TotalJoins    int64     `json:"total_joins"`
	TotalLeaves   int64     `json:"total_leaves"`
	LastActivity  time.Time `json:"last_activity,omitempty"`
}

// DefaultMaxActivityLogs is the default maximum number of activity logs to retain.
const DefaultMaxActivityLogs = 10000

// Log kinds recorded by the store.
const (
	KindMessage = "message"
	KindJoin    = "join"
	KindLeave   = "leave"
)

// StatsStore provides thread-safe storage for chat activity data.
type StatsStore struct {
	mu            sync.RWMutex
	activityLogs  []ActivityLog
	roomStats     map[string]*RoomStats
	totalMessages int64
	maxLogs       int
}

// NewStatsStore creates a new stats store with default limits.
func NewStatsStore() *StatsStore {
	return NewStatsStoreWithLimit(DefaultMaxActivityLogs)
}

// NewStatsStoreWithLimit creates a new stats store with a custom log limit.
func NewStatsStoreWithLimit(maxLogs int) *StatsStore {
	if maxLogs <= 0 {
		maxLogs = DefaultMaxActivityLogs
	}
	return &StatsStore{
		activityLogs: make([]ActivityLog, 0),
		roomStats:    make(map[string]*RoomStats),
		maxLogs:      maxLogs,
	}
}

// RecordMessage records a stored chat message.
func (s *StatsStore) RecordMessage(roomKey, userID, handle string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalMessages++
	stats := s.statsFor(roomKey)
	stats.TotalMessages++
	stats.LastActivity = at

	s.appendLog(ActivityLog{
		RoomKey: roomKey, Kind: KindMessage,
		UserID: userID, Handle: handle, Timestamp: at,
	})
}

// RecordJoin records a member attaching to a room.
func (s *StatsStore) RecordJoin(roomKey, userID, handle string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.statsFor(roomKey)
	stats.TotalJoins++
	stats.LastActivity = at

	s.appendLog(ActivityLog{
		RoomKey: roomKey, Kind: KindJoin,
		UserID: userID, Handle: handle, Timestamp: at,
	})
}

// RecordLeave records a member detaching from a room.
func (s *StatsStore) RecordLeave(roomKey, userID, handle string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.statsFor(roomKey)
	stats.TotalLeaves++
	stats.LastActivity = at

	s.appendLog(ActivityLog{
		RoomKey: roomKey, Kind: KindLeave,
		UserID: userID, Handle: handle, Timestamp: at,
	})
}

// GetRoomStats returns statistics for a specific room.
func (s *StatsStore) GetRoomStats(roomKey string) (*RoomStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, exists := s.roomStats[roomKey]
	if !exists {
		return nil, false
	}

	// Return a copy to avoid race conditions
	copy := *stats
	return &copy, true
}

// GetAllRoomStats returns statistics for all rooms.
func (s *StatsStore) GetAllRoomStats() []RoomStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]RoomStats, 0, len(s.roomStats))
	for _, stats := range s.roomStats {
		result = append(result, *stats)
	}
	return result
}

// GetRecentActivity returns the most recent activity logs.
func (s *StatsStore) GetRecentActivity(limit int) []ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.activityLogs) == 0 {
		return nil
	}

	start := 0
	if len(s.activityLogs) > limit {
		start = len(s.activityLogs) - limit
	}

	result := make([]ActivityLog, len(s.activityLogs)-start)
	copy(result, s.activityLogs[start:])
	return result
}

// GetSummary returns an overall activity summary.
func (s *StatsStore) GetSummary() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"rooms_tracked":  len(s.roomStats),
		"total_messages": s.totalMessages,
		"activity_logs":  len(s.activityLogs),
	}
}

// statsFor returns the stats entry for a room, creating it if absent.
// Caller must hold the write lock.
func (s *StatsStore) statsFor(roomKey string) *RoomStats {
	stats, exists := s.roomStats[roomKey]
	if !exists {
		stats = &RoomStats{RoomKey: roomKey}
		s.roomStats[roomKey] = stats
	}
	return stats
}

// appendLog appends with size limit. Caller must hold the write lock.
func (s *StatsStore) appendLog(log ActivityLog) {
	s.activityLogs = append(s.activityLogs, log)
	if len(s.activityLogs) > s.maxLogs {
		excess := len(s.activityLogs) - s.maxLogs
		s.activityLogs = s.activityLogs[excess:]
	}
}
