package repository

import (
	"context"

	"schoolfee/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type classRepository struct {
	db *gorm.DB
}

func NewClassRepository(database *gorm.DB) domain.ClassRepo {
	return &classRepository{
		db: database,
	}
}

func (cr *classRepository) GetAllClasses(ctx context.Context) (*[]domain.Class, error) {
	var classes []domain.Class
	if err := cr.db.WithContext(ctx).Order("class_name").Find(&classes).Error; err != nil {
		return nil, translate("get classes", err)
	}
	return &classes, nil
}

func (cr *classRepository) GetClassByID(ctx context.Context, id uuid.UUID) (*domain.Class, error) {
	var class domain.Class
	if err := cr.db.WithContext(ctx).Where("id = ?", id).First(&class).Error; err != nil {
		return nil, translate("get class", err)
	}
	return &class, nil
}

func (cr *classRepository) GetClassByName(ctx context.Context, name string) (*domain.Class, error) {
	var class domain.Class
	if err := cr.db.WithContext(ctx).Where("class_name = ?", name).First(&class).Error; err != nil {
		return nil, translate("get class by name", err)
	}
	return &class, nil
}

func (cr *classRepository) CreateClass(ctx context.Context, payload *domain.Class) error {
	if err := cr.db.WithContext(ctx).Create(payload).Error; err != nil {
		return translate("create class", err)
	}
	return nil
}

func (cr *classRepository) UpdateClass(ctx context.Context, oldName string, payload *domain.Class) error {
	err := cr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(payload).Select("class_name", "course", "fee_amount", "updated_at").Updates(payload).Error; err != nil {
			return err
		}
		if oldName != payload.ClassName {
			if err := tx.Model(&domain.Student{}).Where("class = ?", oldName).Update("class", payload.ClassName).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translate("update class", err)
	}
	return nil
}

func (cr *classRepository) DeleteClass(ctx context.Context, id uuid.UUID) error {
	res := cr.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Class{})
	if res.Error != nil {
		return translate("delete class", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete class", gorm.ErrRecordNotFound)
	}
	return nil
}

func (cr *classRepository) CountStudentsInClass(ctx context.Context, name string) (int64, error) {
	var n int64
	if err := cr.db.WithContext(ctx).Model(&domain.Student{}).Where("class = ?", name).Count(&n).Error; err != nil {
		return 0, translate("count class students", err)
	}
	return n, nil
}
