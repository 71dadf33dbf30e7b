package repository

import (
	"context"

	"schoolfee/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(database *gorm.DB) domain.SessionRepo {
	return &sessionRepository{
		db: database,
	}
}

func (sr *sessionRepository) GetSession(ctx context.Context, userID int) (*domain.UserSession, error) {
	var row domain.UserSession
	if err := sr.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, translate("get session", err)
	}
	return &row, nil
}

func (sr *sessionRepository) SaveSession(ctx context.Context, payload *domain.UserSession) error {
	err := sr.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"preferences", "settings", "data", "updated_at"}),
	}).Create(payload).Error
	if err != nil {
		return translate("save session", err)
	}
	return nil
}
