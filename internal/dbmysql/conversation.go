package dbmysql

import (
	"time"
)

// Conversation is a 1:1 thread. UserLowID/UserHighID hold the participant
// pair in ascending order; the unique index on them is what guarantees at
// most one conversation per unordered pair even under concurrent creation.
type Conversation struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserLowID  uint64    `gorm:"column:user_low_id;not null;index:idx_conv_pair,unique" json:"-"`
	UserHighID uint64    `gorm:"column:user_high_id;not null;index:idx_conv_pair,unique" json:"-"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`

	Participants []Participant `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`
}

// Participant is one user's membership in a conversation, carrying their
// read-state. LastReadAt never moves backwards.
type Participant struct {
	ConversationID uint64    `gorm:"primaryKey;column:conversation_id" json:"conversation_id"`
	UserID         uint64    `gorm:"primaryKey;column:user_id" json:"user_id"`
	LastReadAt     time.Time `gorm:"column:last_read_at;not null" json:"last_read_at"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// NormalizePair orders a user pair for the conversation uniqueness key.
func NormalizePair(a, b uint64) (low, high uint64) {
	if a < b {
		return a, b
	}
	return b, a
}
