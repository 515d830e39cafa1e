package chat

import (
	"errors"
	"fmt"

	domain "github.com/example/course-chat/domain/chat"
	"gorm.io/gorm"
)

var (
	// ErrEmptyContent is returned when a message with no content is appended.
	ErrEmptyContent = errors.New("message content cannot be empty")
	// ErrEmptyCreator is returned when a message has no creator identity.
	ErrEmptyCreator = errors.New("message creator cannot be empty")
	// ErrStorage wraps durable-write failures.
	ErrStorage = errors.New("message store failure")
)

// Store is the durable append-only message log, one logical log per chat
// group. Identifiers are assigned by the database on insert and are strictly
// increasing, so "most recent N" is a reverse scan by id.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// EnsureGroup returns the chat group for roomKey, creating it on first use.
// Creation is atomic per key; concurrent callers observe the same row.
func (s *Store) EnsureGroup(roomKey string) (*domain.ChatGroup, error) {
	var group domain.ChatGroup
	result := s.db.Where(domain.ChatGroup{GroupName: roomKey}).FirstOrCreate(&group)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: ensure group %q: %v", ErrStorage, roomKey, result.Error)
	}
	return &group, nil
}

// Append persists one message, assigning its identifier and timestamp.
// Content and creator must be non-empty; the stored message is returned.
func (s *Store) Append(groupID uint, creatorID, creator, content string) (*domain.Message, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if creatorID == "" || creator == "" {
		return nil, ErrEmptyCreator
	}

	msg := &domain.Message{
		CreatorID:   creatorID,
		Creator:     creator,
		Content:     content,
		ChatGroupID: groupID,
	}
	if result := s.db.Create(msg); result.Error != nil {
		return nil, fmt.Errorf("%w: append to group %d: %v", ErrStorage, groupID, result.Error)
	}
	return msg, nil
}

// Recent returns at most limit messages for roomKey, newest first. A room
// with no history (or no group row yet) yields an empty slice, not an error.
func (s *Store) Recent(roomKey string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return []domain.Message{}, nil
	}

	var group domain.ChatGroup
	result := s.db.Where("group_name = ?", roomKey).First(&group)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return []domain.Message{}, nil
		}
		return nil, fmt.Errorf("%w: lookup group %q: %v", ErrStorage, roomKey, result.Error)
	}

	var messages []domain.Message
	result = s.db.
		Where("chat_group_id = ?", group.ID).
		Order("id DESC").
		Limit(limit).
		Find(&messages)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: read group %q: %v", ErrStorage, roomKey, result.Error)
	}
	return messages, nil
}
