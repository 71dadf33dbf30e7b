package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Class is static pricing reference data. Students point at it by label.
type Class struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClassName string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"class_name" valid:"required~Class name is required"`
	Course    string    `gorm:"type:varchar(150);not null" json:"course" valid:"required~Course is required"`
	FeeAmount float64   `gorm:"not null;default:0" json:"fee_amount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Class) TableName() string { return "classes" }

type ClassRepo interface {
	GetAllClasses(ctx context.Context) (*[]Class, error)
	GetClassByID(ctx context.Context, id uuid.UUID) (*Class, error)
	GetClassByName(ctx context.Context, name string) (*Class, error)
	CreateClass(ctx context.Context, payload *Class) error
	// UpdateClass relabels students of the old class name in the same transaction.
	UpdateClass(ctx context.Context, oldName string, payload *Class) error
	DeleteClass(ctx context.Context, id uuid.UUID) error
	CountStudentsInClass(ctx context.Context, name string) (int64, error)
}

type ClassUseCase interface {
	GetAllClasses(ctx context.Context) (*[]Class, error)
	CreateClass(ctx context.Context, payload *Class) (*Class, error)
	UpdateClass(ctx context.Context, id uuid.UUID, payload *Class) (*Class, error)
	DeleteClass(ctx context.Context, id uuid.UUID) error
}
