package dbmysql

import (
	"time"
)

// Message is immutable once written; the only mutation is a hard delete by
// its sender.
type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64    `gorm:"column:conversation_id;index;not null" json:"conversation_id"`
	SenderID       uint64    `gorm:"column:sender_id;index;not null" json:"sender_id"`
	Content        string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID;references:UserID" json:"sender,omitempty"`
}
