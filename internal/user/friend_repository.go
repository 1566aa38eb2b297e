package user

import (
	"context"

	"gorm.io/gorm"

	"linkup/internal/common"
	"linkup/internal/dbmysql"
)

// FriendRepository answers the one question chat needs from the friendship
// workflow: are these two users mutually accepted friends?
type FriendRepository interface {
	AreFriends(ctx context.Context, userID, otherUserID uint64) (bool, error)
}

type friendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) AreFriends(ctx context.Context, userID, otherUserID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Friend{}).
		Where("((user_id = ? AND friend_user_id = ?) OR (user_id = ? AND friend_user_id = ?)) AND status = ?",
			userID, otherUserID, otherUserID, userID, dbmysql.FriendStatusAccepted).
		Count(&count).Error
	if err != nil {
		return false, common.PersistenceError(err)
	}
	return count > 0, nil
}
