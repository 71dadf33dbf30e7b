package usecase

import (
	"context"
	"strings"
	"time"

	"schoolfee/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type classUC struct {
	repo    domain.ClassRepo
	TimeOut time.Duration
}

func NewClassUseCase(repo domain.ClassRepo, timeOut time.Duration) domain.ClassUseCase {
	return &classUC{
		repo:    repo,
		TimeOut: timeOut,
	}
}

func (cuc *classUC) GetAllClasses(ctx context.Context) (*[]domain.Class, error) {
	ctx, cancel := context.WithTimeout(ctx, cuc.TimeOut)
	defer cancel()

	return cuc.repo.GetAllClasses(ctx)
}

func validateClass(c *domain.Class) error {
	c.ClassName = strings.TrimSpace(c.ClassName)
	c.Course = strings.TrimSpace(c.Course)
	if err := validateModel(c); err != nil {
		return err
	}
	if !validAmount(c.FeeAmount) {
		return domain.NewValidationError(domain.FieldError{Field: "fee_amount", Error: "Fee amount must be a non-negative amount"})
	}
	return nil
}

func (cuc *classUC) CreateClass(ctx context.Context, payload *domain.Class) (*domain.Class, error) {
	ctx, cancel := context.WithTimeout(ctx, cuc.TimeOut)
	defer cancel()

	if err := validateClass(payload); err != nil {
		return nil, err
	}
	if _, err := cuc.repo.GetClassByName(ctx, payload.ClassName); err == nil {
		return nil, domain.NewValidationError(domain.FieldError{Field: "class_name", Error: "Class already exists"})
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	payload.ID = uuid.Nil
	if err := cuc.repo.CreateClass(ctx, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// UpdateClass renames students along with the class so no label is orphaned.
func (cuc *classUC) UpdateClass(ctx context.Context, id uuid.UUID, payload *domain.Class) (*domain.Class, error) {
	ctx, cancel := context.WithTimeout(ctx, cuc.TimeOut)
	defer cancel()

	current, err := cuc.repo.GetClassByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateClass(payload); err != nil {
		return nil, err
	}
	if payload.ClassName != current.ClassName {
		if _, err := cuc.repo.GetClassByName(ctx, payload.ClassName); err == nil {
			return nil, domain.NewValidationError(domain.FieldError{Field: "class_name", Error: "Class already exists"})
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	payload.ID = current.ID
	payload.CreatedAt = current.CreatedAt
	if err := cuc.repo.UpdateClass(ctx, current.ClassName, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (cuc *classUC) DeleteClass(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, cuc.TimeOut)
	defer cancel()

	current, err := cuc.repo.GetClassByID(ctx, id)
	if err != nil {
		return err
	}
	n, err := cuc.repo.CountStudentsInClass(ctx, current.ClassName)
	if err != nil {
		return err
	}
	if n > 0 {
		return errors.Wrapf(domain.ErrClassInUse, "%q has %d students", current.ClassName, n)
	}
	return cuc.repo.DeleteClass(ctx, id)
}
