package dbmysql

import (
	"time"
)

type NotificationType string

const (
	NotifLike          NotificationType = "LIKE"
	NotifComment       NotificationType = "COMMENT"
	NotifFriendRequest NotificationType = "FRIEND_REQUEST"
	NotifFriendAccept  NotificationType = "FRIEND_ACCEPT"
	NotifMessage       NotificationType = "MESSAGE"
)

// Notification is one entry in a user's notification feed. PostID and
// ConversationID use zero (not NULL) when absent so the unique index over
// (recipient, sender, type, post, conversation) holds for every type; that
// index is what makes Set/Unset idempotent under concurrent toggles.
type Notification struct {
	ID             string           `gorm:"primaryKey;size:36" json:"id"`
	RecipientID    uint64           `gorm:"column:recipient_id;not null;index;index:idx_notif_key,unique" json:"recipient_id"`
	SenderID       uint64           `gorm:"column:sender_id;not null;index:idx_notif_key,unique" json:"sender_id"`
	Type           NotificationType `gorm:"column:type;size:20;not null;index:idx_notif_key,unique" json:"type"`
	PostID         uint64           `gorm:"column:post_id;not null;default:0;index:idx_notif_key,unique" json:"post_id,omitempty"`
	ConversationID uint64           `gorm:"column:conversation_id;not null;default:0;index:idx_notif_key,unique" json:"conversation_id,omitempty"`
	IsRead         bool             `gorm:"column:is_read;default:false" json:"is_read"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID;references:UserID" json:"sender,omitempty"`
}

// EntityRef points a notification at the post or conversation that caused
// it. Zero values mean "no reference" (friend events carry neither).
type EntityRef struct {
	PostID         uint64
	ConversationID uint64
}
