package repository

import (
	"context"
	"strings"

	"schoolfee/domain"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) domain.UserRepo {
	return &userRepository{
		db: database,
	}
}

func (ur *userRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := ur.db.WithContext(ctx).
		Where("LOWER(username) = ? AND deleted_at IS NULL", strings.ToLower(username)).
		First(&user).Error
	if err != nil {
		return nil, translate("find user", err)
	}
	return &user, nil
}
