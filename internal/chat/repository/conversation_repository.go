package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"linkup/internal/common"
	"linkup/internal/dbmysql"
)

type ConversationRepository interface {
	// GetOrCreate returns the conversation for the unordered pair, creating
	// it atomically when absent. The second return reports whether this call
	// created it.
	GetOrCreate(ctx context.Context, userA, userB uint64) (*dbmysql.Conversation, bool, error)
	ByID(ctx context.Context, id uint64) (*dbmysql.Conversation, error)
	ForUser(ctx context.Context, userID uint64) ([]*dbmysql.Conversation, error)
	Participant(ctx context.Context, conversationID, userID uint64) (*dbmysql.Participant, error)
	// IsMember answers the membership question without an authorization
	// error; the realtime gateway gates room joins on it.
	IsMember(ctx context.Context, conversationID, userID uint64) (bool, error)
	OtherParticipant(ctx context.Context, conversationID, userID uint64) (*dbmysql.Participant, error)
	Touch(ctx context.Context, conversationID uint64, at time.Time) error
	MarkRead(ctx context.Context, conversationID, userID uint64, at time.Time) error
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) GetOrCreate(ctx context.Context, userA, userB uint64) (*dbmysql.Conversation, bool, error) {
	low, high := dbmysql.NormalizePair(userA, userB)

	conv, err := r.byPair(ctx, low, high)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, common.PersistenceError(err)
	}

	now := time.Now().UTC()
	fresh := &dbmysql.Conversation{
		UserLowID:  low,
		UserHighID: high,
		UpdatedAt:  now,
		Participants: []dbmysql.Participant{
			{UserID: low, LastReadAt: time.Unix(0, 0)},
			{UserID: high, LastReadAt: time.Unix(0, 0)},
		},
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(fresh).Error
	})
	if err == nil {
		// Re-read so the participants carry their user profiles.
		conv, rerr := r.byPair(ctx, low, high)
		if rerr != nil {
			return nil, false, common.PersistenceError(rerr)
		}
		return conv, true, nil
	}

	// Lost the race: the unique pair index rejected our insert, so the
	// winner's row must exist now. Re-read instead of erroring.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		conv, rerr := r.byPair(ctx, low, high)
		if rerr != nil {
			return nil, false, common.PersistenceError(rerr)
		}
		return conv, false, nil
	}

	return nil, false, common.PersistenceError(err)
}

func (r *conversationRepository) byPair(ctx context.Context, low, high uint64) (*dbmysql.Conversation, error) {
	var conv dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants.User").
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) ByID(ctx context.Context, id uint64) (*dbmysql.Conversation, error) {
	var conv dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants.User").
		Where("id = ?", id).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundError("conversation not found")
		}
		return nil, common.PersistenceError(err)
	}
	return &conv, nil
}

func (r *conversationRepository) ForUser(ctx context.Context, userID uint64) ([]*dbmysql.Conversation, error) {
	var convs []*dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants.User").
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, common.PersistenceError(err)
	}
	return convs, nil
}

func (r *conversationRepository) Participant(ctx context.Context, conversationID, userID uint64) (*dbmysql.Participant, error) {
	var p dbmysql.Participant
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.AuthorizationError("you are not a participant in this conversation")
		}
		return nil, common.PersistenceError(err)
	}
	return &p, nil
}

func (r *conversationRepository) IsMember(ctx context.Context, conversationID, userID uint64) (bool, error) {
	_, err := r.Participant(ctx, conversationID, userID)
	if err == nil {
		return true, nil
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Code == common.CodeAuthorization {
		return false, nil
	}
	return false, err
}

func (r *conversationRepository) OtherParticipant(ctx context.Context, conversationID, userID uint64) (*dbmysql.Participant, error) {
	var p dbmysql.Participant
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id <> ?", conversationID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundError("participant not found")
		}
		return nil, common.PersistenceError(err)
	}
	return &p, nil
}

func (r *conversationRepository) Touch(ctx context.Context, conversationID uint64, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", at).Error
	if err != nil {
		return common.PersistenceError(err)
	}
	return nil
}

// MarkRead advances the participant's read marker. The guard keeps
// last_read_at monotonic when calls race.
func (r *conversationRepository) MarkRead(ctx context.Context, conversationID, userID uint64, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Participant{}).
		Where("conversation_id = ? AND user_id = ? AND last_read_at < ?", conversationID, userID, at).
		Update("last_read_at", at).Error
	if err != nil {
		return common.PersistenceError(err)
	}
	return nil
}
