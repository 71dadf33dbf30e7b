package repository

import (
	"context"

	"schoolfee/domain"

	"gorm.io/gorm"
)

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(database *gorm.DB) domain.AnalyticsRepo {
	return &analyticsRepository{
		db: database,
	}
}

// GetSnapshot reads all three collections inside one read-only transaction
// so the aggregates see a consistent view.
func (ar *analyticsRepository) GetSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := ar.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SET TRANSACTION ISOLATION LEVEL REPEATABLE READ READ ONLY").Error; err != nil {
			return err
		}
		if err := tx.Order("created_at").Find(&snap.Students).Error; err != nil {
			return err
		}
		if err := tx.Preload("Student").Order("payment_date").Find(&snap.Receipts).Error; err != nil {
			return err
		}
		return tx.Order("class_name").Find(&snap.Classes).Error
	})
	if err != nil {
		return nil, translate("get snapshot", err)
	}
	return &snap, nil
}
