package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Student struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StudentName string         `gorm:"type:varchar(150);not null" json:"student_name" valid:"required~Student name is required"`
	RollNumber  string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"roll_number" valid:"required~Roll number is required"`
	Class       string         `gorm:"column:class;type:varchar(100);not null;index" json:"class" valid:"required~Class is required"`
	Course      string         `gorm:"type:varchar(150);not null" json:"course" valid:"required~Course is required"`
	JoiningDate datatypes.Date `gorm:"not null" json:"joining_date" valid:"-"`
	ParentPhone *string        `gorm:"type:varchar(20)" json:"parent_phone"`
	ParentEmail *string        `gorm:"type:varchar(255)" json:"parent_email" valid:"email~Invalid email format,optional"`
	Address     *string        `gorm:"type:text" json:"address"`
	Notes       *string        `gorm:"type:text" json:"notes"`

	// Negotiated fee. When FinalFeeAmount is set it overrides the class fee.
	FinalFeeAmount     *float64 `json:"final_fee_amount" valid:"-"`
	StandardFeeAmount  *float64 `json:"standard_fee_amount" valid:"-"`
	DiscountAmount     *float64 `json:"discount_amount" valid:"-"`
	DiscountPercentage *float64 `json:"discount_percentage" valid:"-"`

	Receipts  []Receipt `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-" valid:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Student) TableName() string { return "students" }

// HasNegotiatedFee reports whether the student is billed off the class fee.
func (s *Student) HasNegotiatedFee() bool {
	return s.FinalFeeAmount != nil
}

// EffectiveFee is the amount the student is billed.
func (s *Student) EffectiveFee(classFee float64) float64 {
	if s.FinalFeeAmount != nil {
		return *s.FinalFeeAmount
	}
	return classFee
}

type StudentFilter struct {
	Search string
	Class  string
	Course string
}

type StudentRepo interface {
	GetAllStudents(ctx context.Context, filter StudentFilter) (*[]Student, error)
	GetStudentByID(ctx context.Context, id uuid.UUID) (*Student, error)
	GetStudentByRollNumber(ctx context.Context, roll string) (*Student, error)
	CreateStudent(ctx context.Context, payload *Student) error
	UpdateStudent(ctx context.Context, payload *Student) error
	DeleteStudent(ctx context.Context, id uuid.UUID) error
}

type StudentUseCase interface {
	GetAllStudents(ctx context.Context, filter StudentFilter) (*[]Student, error)
	GetStudentByID(ctx context.Context, id uuid.UUID) (*Student, error)
	CreateStudent(ctx context.Context, payload *Student) (*Student, error)
	UpdateStudent(ctx context.Context, id uuid.UUID, payload *Student) (*Student, error)
	DeleteStudent(ctx context.Context, id uuid.UUID) error
}
