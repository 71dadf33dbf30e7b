package usecase

import (
	"context"
	"time"

	"schoolfee/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type receiptUC struct {
	receipts domain.ReceiptRepo
	students domain.StudentRepo
	classes  domain.ClassRepo
	TimeOut  time.Duration
}

func NewReceiptUseCase(receipts domain.ReceiptRepo, students domain.StudentRepo, classes domain.ClassRepo, timeOut time.Duration) domain.ReceiptUseCase {
	return &receiptUC{
		receipts: receipts,
		students: students,
		classes:  classes,
		TimeOut:  timeOut,
	}
}

func (ruc *receiptUC) GetAllReceipts(ctx context.Context, filter domain.ReceiptFilter) (*[]domain.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	return ruc.receipts.GetAllReceipts(ctx, filter)
}

func (ruc *receiptUC) GetReceiptByID(ctx context.Context, id uuid.UUID) (*domain.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	return ruc.receipts.GetReceiptByID(ctx, id)
}

// prepare checks the receipt and fills total_fee from the student's
// effective fee when it was left at zero.
func (ruc *receiptUC) prepare(ctx context.Context, r *domain.Receipt) error {
	var fields []domain.FieldError
	if r.StudentID == uuid.Nil {
		fields = append(fields, domain.FieldError{Field: "student_id", Error: "Student is required"})
	}
	if r.PaidOn().IsZero() {
		fields = append(fields, domain.FieldError{Field: "payment_date", Error: "Payment date is required"})
	}
	if !r.PaymentMethod.Valid() {
		fields = append(fields, domain.FieldError{Field: "payment_method", Error: "Payment method must be Cash, Bank Transfer, Online or Cheque"})
	}
	if !validAmount(r.TotalFee) {
		fields = append(fields, domain.FieldError{Field: "total_fee", Error: "Total fee must be a non-negative amount"})
	}
	if !validAmount(r.PaidAmount) {
		fields = append(fields, domain.FieldError{Field: "paid_amount", Error: "Paid amount must be a non-negative amount"})
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}

	student, err := ruc.students.GetStudentByID(ctx, r.StudentID)
	if err != nil {
		return errors.Wrap(err, "failed to get student data")
	}
	if r.TotalFee == 0 {
		classFee := 0.0
		class, err := ruc.classes.GetClassByName(ctx, student.Class)
		switch {
		case err == nil:
			classFee = class.FeeAmount
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		r.TotalFee = student.EffectiveFee(classFee)
	}
	r.RemainingDue = domain.RemainingDue(r.TotalFee, r.PaidAmount)
	r.Student = nil
	return nil
}

func (ruc *receiptUC) CreateReceipt(ctx context.Context, payload *domain.Receipt) (*domain.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	if err := ruc.prepare(ctx, payload); err != nil {
		return nil, err
	}
	payload.ID = uuid.Nil
	payload.ReceiptNumber = ""
	if err := ruc.receipts.CreateReceipt(ctx, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (ruc *receiptUC) UpdateReceipt(ctx context.Context, id uuid.UUID, payload *domain.Receipt) (*domain.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	current, err := ruc.receipts.GetReceiptByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ruc.prepare(ctx, payload); err != nil {
		return nil, err
	}

	payload.ID = current.ID
	payload.ReceiptNumber = current.ReceiptNumber
	payload.CreatedAt = current.CreatedAt
	if err := ruc.receipts.UpdateReceipt(ctx, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (ruc *receiptUC) DeleteReceipt(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	return ruc.receipts.DeleteReceipt(ctx, id)
}
