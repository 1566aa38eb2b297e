package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"linkup/internal/common"
	"linkup/internal/dbmysql"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *dbmysql.Message) error
	ByID(ctx context.Context, id uint64) (*dbmysql.Message, error)
	// Page fetches one page newest-first along with the total count.
	Page(ctx context.Context, conversationID uint64, page, limit int) ([]*dbmysql.Message, int64, error)
	Last(ctx context.Context, conversationID uint64) (*dbmysql.Message, error)
	Delete(ctx context.Context, id uint64) error
	// UnreadCount counts messages from other senders newer than the
	// participant's read marker. Always computed live, never cached.
	UnreadCount(ctx context.Context, conversationID, userID uint64, lastReadAt time.Time) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *dbmysql.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return common.PersistenceError(err)
	}
	return nil
}

func (r *messageRepository) ByID(ctx context.Context, id uint64) (*dbmysql.Message, error) {
	var msg dbmysql.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundError("message not found")
		}
		return nil, common.PersistenceError(err)
	}
	return &msg, nil
}

func (r *messageRepository) Page(ctx context.Context, conversationID uint64, page, limit int) ([]*dbmysql.Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	offset := (page - 1) * limit

	var messages []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, 0, common.PersistenceError(err)
	}

	var total int64
	err = r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error
	if err != nil {
		return nil, 0, common.PersistenceError(err)
	}

	return messages, total, nil
}

func (r *messageRepository) Last(ctx context.Context, conversationID uint64) (*dbmysql.Message, error) {
	var msg dbmysql.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, common.PersistenceError(err)
	}
	return &msg, nil
}

func (r *messageRepository) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&dbmysql.Message{}, id).Error; err != nil {
		return common.PersistenceError(err)
	}
	return nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, conversationID, userID uint64, lastReadAt time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND created_at > ?", conversationID, userID, lastReadAt).
		Count(&count).Error
	if err != nil {
		return 0, common.PersistenceError(err)
	}
	return count, nil
}
