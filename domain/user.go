package domain

import (
	"context"
	"time"
)

type User struct {
	UserID    int        `gorm:"primaryKey;autoIncrement" json:"user_id"`
	Username  string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"username" valid:"required~Username is required"`
	Name      string     `gorm:"type:varchar(150);not null" json:"name" valid:"required~Name is required"`
	Password  string     `gorm:"type:varchar(255);not null" json:"-"`
	Role      string     `gorm:"type:role_enum;not null" json:"role" valid:"required~Role is required,in(admin|staff)~Invalid role"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`
}

type UserRepo interface {
	FindUserByUsername(ctx context.Context, username string) (*User, error)
}
