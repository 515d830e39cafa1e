package chat

import "time"

// ChatGroup is the durable identity of a chat room. One group exists per
// course; the group name is derived from the course id and is stable across
// restarts, while live membership is tracked in memory only.
type ChatGroup struct {
	ID        uint   `gorm:"primaryKey"`
	GroupName string `gorm:"uniqueIndex;not null;type:text"`
	CreatedAt time.Time
}

// TableName returns the table name for the ChatGroup entity.
func (ChatGroup) TableName() string {
	return "chat_groups"
}

// Message is one persisted chat message. The primary key is assigned by the
// store on insert and is strictly increasing, which makes it usable for
// ordering and "most recent N" pagination within a group.
type Message struct {
	ID          uint   `gorm:"primaryKey"`
	CreatorID   string `gorm:"not null;type:text"`
	Creator     string `gorm:"not null;type:text"` // display handle (email)
	Content     string `gorm:"not null;type:text"`
	ChatGroupID uint   `gorm:"index;not null"`
	CreatedAt   time.Time
}

// TableName returns the table name for the Message entity.
func (Message) TableName() string {
	return "messages"
}
