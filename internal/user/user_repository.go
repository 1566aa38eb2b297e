package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"linkup/internal/common"
	"linkup/internal/dbmysql"
)

// UserRepository exposes the public profile fields other subsystems embed in
// their payloads. Account management itself lives elsewhere.
type UserRepository interface {
	ByID(ctx context.Context, userID uint64) (*dbmysql.User, error)
	ByIDs(ctx context.Context, userIDs []uint64) (map[uint64]*dbmysql.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) ByID(ctx context.Context, userID uint64) (*dbmysql.User, error) {
	var u dbmysql.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundError("user not found")
		}
		return nil, common.PersistenceError(err)
	}
	return &u, nil
}

func (r *userRepository) ByIDs(ctx context.Context, userIDs []uint64) (map[uint64]*dbmysql.User, error) {
	if len(userIDs) == 0 {
		return map[uint64]*dbmysql.User{}, nil
	}

	var users []*dbmysql.User
	err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&users).Error
	if err != nil {
		return nil, common.PersistenceError(err)
	}

	byID := make(map[uint64]*dbmysql.User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}
	return byID, nil
}
