package usecase

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"schoolfee/domain"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// validAmount reports whether v is a finite, non-negative money amount.
func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// validateModel runs the govalidator tags of a model and reports every
// failing field.
func validateModel(v interface{}) error {
	if _, err := govalidator.ValidateStruct(v); err != nil {
		byField := govalidator.ErrorsByField(err)
		fields := make([]domain.FieldError, 0, len(byField))
		for f, msg := range byField {
			fields = append(fields, domain.FieldError{Field: f, Error: msg})
		}
		sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
		return domain.NewValidationError(fields...)
	}
	return nil
}

// NormalizeNegotiatedFee derives the standard, discount and percentage
// fields from the final fee. Without a final fee all four are cleared.
func NormalizeNegotiatedFee(s *domain.Student, classFee float64) error {
	if s.FinalFeeAmount == nil {
		s.StandardFeeAmount = nil
		s.DiscountAmount = nil
		s.DiscountPercentage = nil
		return nil
	}

	standard := classFee
	if s.StandardFeeAmount != nil {
		standard = *s.StandardFeeAmount
	}
	if !validAmount(standard) {
		return domain.NewValidationError(domain.FieldError{
			Field: "standard_fee_amount",
			Error: "must be a non-negative amount",
		})
	}
	final := *s.FinalFeeAmount
	if !validAmount(final) {
		return domain.NewValidationError(domain.FieldError{
			Field: "final_fee_amount",
			Error: "must be a non-negative amount",
		})
	}

	discount := standard - final
	pct := percent(discount, standard)
	s.StandardFeeAmount = &standard
	s.DiscountAmount = &discount
	s.DiscountPercentage = &pct
	return nil
}

type studentUC struct {
	students domain.StudentRepo
	classes  domain.ClassRepo
	TimeOut  time.Duration
}

func NewStudentUseCase(students domain.StudentRepo, classes domain.ClassRepo, timeOut time.Duration) domain.StudentUseCase {
	return &studentUC{
		students: students,
		classes:  classes,
		TimeOut:  timeOut,
	}
}

func (suc *studentUC) GetAllStudents(ctx context.Context, filter domain.StudentFilter) (*[]domain.Student, error) {
	ctx, cancel := context.WithTimeout(ctx, suc.TimeOut)
	defer cancel()

	return suc.students.GetAllStudents(ctx, filter)
}

func (suc *studentUC) GetStudentByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	ctx, cancel := context.WithTimeout(ctx, suc.TimeOut)
	defer cancel()

	return suc.students.GetStudentByID(ctx, id)
}

// prepare validates the student and resolves its class.
func (suc *studentUC) prepare(ctx context.Context, s *domain.Student) error {
	s.StudentName = strings.TrimSpace(s.StudentName)
	s.RollNumber = strings.TrimSpace(s.RollNumber)
	s.Class = strings.TrimSpace(s.Class)
	s.Course = strings.TrimSpace(s.Course)
	if err := validateModel(s); err != nil {
		return err
	}
	if time.Time(s.JoiningDate).IsZero() {
		return domain.NewValidationError(domain.FieldError{Field: "joining_date", Error: "Joining date is required"})
	}

	class, err := suc.classes.GetClassByName(ctx, s.Class)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errors.Wrapf(domain.ErrUnknownClass, "%q", s.Class)
		}
		return err
	}
	return NormalizeNegotiatedFee(s, class.FeeAmount)
}

func (suc *studentUC) CreateStudent(ctx context.Context, payload *domain.Student) (*domain.Student, error) {
	ctx, cancel := context.WithTimeout(ctx, suc.TimeOut)
	defer cancel()

	if err := suc.prepare(ctx, payload); err != nil {
		return nil, err
	}
	if _, err := suc.students.GetStudentByRollNumber(ctx, payload.RollNumber); err == nil {
		return nil, domain.NewValidationError(domain.FieldError{Field: "roll_number", Error: "Roll number already exists"})
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	payload.ID = uuid.Nil
	if err := suc.students.CreateStudent(ctx, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (suc *studentUC) UpdateStudent(ctx context.Context, id uuid.UUID, payload *domain.Student) (*domain.Student, error) {
	ctx, cancel := context.WithTimeout(ctx, suc.TimeOut)
	defer cancel()

	current, err := suc.students.GetStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := suc.prepare(ctx, payload); err != nil {
		return nil, err
	}
	if payload.RollNumber != current.RollNumber {
		if _, err := suc.students.GetStudentByRollNumber(ctx, payload.RollNumber); err == nil {
			return nil, domain.NewValidationError(domain.FieldError{Field: "roll_number", Error: "Roll number already exists"})
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	payload.ID = current.ID
	payload.CreatedAt = current.CreatedAt
	if err := suc.students.UpdateStudent(ctx, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (suc *studentUC) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, suc.TimeOut)
	defer cancel()

	return suc.students.DeleteStudent(ctx, id)
}
