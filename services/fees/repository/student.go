package repository

import (
	"context"
	"strings"

	"schoolfee/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(database *gorm.DB) domain.StudentRepo {
	return &studentRepository{
		db: database,
	}
}

func (sr *studentRepository) GetAllStudents(ctx context.Context, filter domain.StudentFilter) (*[]domain.Student, error) {
	var students []domain.Student

	q := sr.db.WithContext(ctx).Model(&domain.Student{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(student_name) LIKE ? OR LOWER(roll_number) LIKE ?", like, like)
	}
	if filter.Class != "" {
		q = q.Where("class = ?", filter.Class)
	}
	if filter.Course != "" {
		q = q.Where("course = ?", filter.Course)
	}

	if err := q.Order("created_at DESC").Find(&students).Error; err != nil {
		return nil, translate("get students", err)
	}
	return &students, nil
}

func (sr *studentRepository) GetStudentByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	var student domain.Student
	if err := sr.db.WithContext(ctx).Where("id = ?", id).First(&student).Error; err != nil {
		return nil, translate("get student", err)
	}
	return &student, nil
}

func (sr *studentRepository) GetStudentByRollNumber(ctx context.Context, roll string) (*domain.Student, error) {
	var student domain.Student
	if err := sr.db.WithContext(ctx).Where("roll_number = ?", roll).First(&student).Error; err != nil {
		return nil, translate("get student by roll number", err)
	}
	return &student, nil
}

func (sr *studentRepository) CreateStudent(ctx context.Context, payload *domain.Student) error {
	if err := sr.db.WithContext(ctx).Omit("Receipts").Create(payload).Error; err != nil {
		return translate("create student", err)
	}
	return nil
}

func (sr *studentRepository) UpdateStudent(ctx context.Context, payload *domain.Student) error {
	// Select("*") so cleared negotiated fee columns are written as NULL.
	err := sr.db.WithContext(ctx).
		Model(payload).
		Select("*").
		Omit("id", "created_at", "Receipts").
		Updates(payload).Error
	if err != nil {
		return translate("update student", err)
	}
	return nil
}

func (sr *studentRepository) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	res := sr.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Student{})
	if res.Error != nil {
		return translate("delete student", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete student", gorm.ErrRecordNotFound)
	}
	return nil
}
