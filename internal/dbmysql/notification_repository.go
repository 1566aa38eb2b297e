package dbmysql

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"linkup/internal/common"
)

type NotificationRepository interface {
	// Set creates the notification for its (recipient, sender, type, entity)
	// key, or refreshes the existing row. Safe under concurrent toggles.
	Set(ctx context.Context, n *Notification) error
	// Unset removes all rows matching the key. Removing a notification that
	// was never created is not an error.
	Unset(ctx context.Context, recipientID, senderID uint64, t NotificationType, ref EntityRef) error
	Recent(ctx context.Context, recipientID uint64, limit int) ([]*Notification, error)
	MarkAllRead(ctx context.Context, recipientID uint64) error
	MarkRead(ctx context.Context, id string, recipientID uint64) error
	Delete(ctx context.Context, id string, recipientID uint64) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Set(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	// The unique key covers (recipient, sender, type, post, conversation);
	// a repeat toggle refreshes the row instead of duplicating it.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_read":    false,
				"created_at": n.CreatedAt,
			}),
		}).
		Create(n).Error
	if err != nil {
		return common.PersistenceError(err)
	}
	return nil
}

func (r *notificationRepository) Unset(ctx context.Context, recipientID, senderID uint64, t NotificationType, ref EntityRef) error {
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND sender_id = ? AND type = ? AND post_id = ? AND conversation_id = ?",
			recipientID, senderID, t, ref.PostID, ref.ConversationID).
		Delete(&Notification{}).Error
	if err != nil {
		return common.PersistenceError(err)
	}
	return nil
}

func (r *notificationRepository) Recent(ctx context.Context, recipientID uint64, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = 15
	}

	var notifications []*Notification
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, common.PersistenceError(err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uint64) error {
	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
	if err != nil {
		return common.PersistenceError(err)
	}
	return nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string, recipientID uint64) error {
	res := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return common.PersistenceError(res.Error)
	}
	if res.RowsAffected == 0 {
		return common.NotFoundError("notification not found")
	}
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string, recipientID uint64) error {
	err := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Delete(&Notification{}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return common.PersistenceError(err)
	}
	return nil
}
