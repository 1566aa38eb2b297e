package dbmysql

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	UserID    uint64         `gorm:"primaryKey;column:user_id;autoIncrement" json:"id"`
	Name      string         `gorm:"column:name;size:100;not null" json:"name"`
	Email     string         `gorm:"column:email;uniqueIndex;size:255;not null" json:"email"`
	Avatar    *string        `gorm:"column:avatar;size:512" json:"avatar"`
	Status    string         `gorm:"column:status;type:enum('active','banned','deleted');default:'active'" json:"status"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PublicProfile is the minimal slice of a user embedded in chat payloads.
type PublicProfile struct {
	ID     uint64  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
	Email  string  `json:"email,omitempty"`
}

func (u *User) Public() *PublicProfile {
	return &PublicProfile{
		ID:     u.UserID,
		Name:   u.Name,
		Avatar: u.Avatar,
		Email:  u.Email,
	}
}
