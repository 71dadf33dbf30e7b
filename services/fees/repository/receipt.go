package repository

import (
	"context"

	"schoolfee/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type receiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(database *gorm.DB) domain.ReceiptRepo {
	return &receiptRepository{
		db: database,
	}
}

func (rr *receiptRepository) GetAllReceipts(ctx context.Context, filter domain.ReceiptFilter) (*[]domain.Receipt, error) {
	var receipts []domain.Receipt

	q := rr.db.WithContext(ctx).Preload("Student")
	if filter.StudentID != nil {
		q = q.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Method != "" {
		q = q.Where("payment_method = ?", filter.Method)
	}
	if filter.From != nil {
		q = q.Where("payment_date >= ?", filter.From.Format("2006-01-02"))
	}
	if filter.To != nil {
		q = q.Where("payment_date <= ?", filter.To.Format("2006-01-02"))
	}

	if err := q.Order("payment_date DESC, created_at DESC").Find(&receipts).Error; err != nil {
		return nil, translate("get receipts", err)
	}
	return &receipts, nil
}

func (rr *receiptRepository) GetReceiptByID(ctx context.Context, id uuid.UUID) (*domain.Receipt, error) {
	var receipt domain.Receipt
	if err := rr.db.WithContext(ctx).Preload("Student").Where("id = ?", id).First(&receipt).Error; err != nil {
		return nil, translate("get receipt", err)
	}
	return &receipt, nil
}

func (rr *receiptRepository) GetStudentReceipt(ctx context.Context, receiptID, studentID uuid.UUID) (*domain.Receipt, error) {
	var receipt domain.Receipt
	err := rr.db.WithContext(ctx).
		Preload("Student").
		Where("id = ? AND student_id = ?", receiptID, studentID).
		First(&receipt).Error
	if err != nil {
		return nil, translate("get student receipt", err)
	}
	return &receipt, nil
}

func (rr *receiptRepository) GetOpenBalances(ctx context.Context) (*[]domain.Receipt, error) {
	var receipts []domain.Receipt
	err := rr.db.WithContext(ctx).
		Preload("Student").
		Where("remaining_due > 0").
		Order("payment_date").
		Find(&receipts).Error
	if err != nil {
		return nil, translate("get open balances", err)
	}
	return &receipts, nil
}

func (rr *receiptRepository) CreateReceipt(ctx context.Context, payload *domain.Receipt) error {
	if err := rr.db.WithContext(ctx).Omit("Student").Create(payload).Error; err != nil {
		return translate("create receipt", err)
	}
	return nil
}

func (rr *receiptRepository) UpdateReceipt(ctx context.Context, payload *domain.Receipt) error {
	err := rr.db.WithContext(ctx).
		Model(payload).
		Select("*").
		Omit("id", "receipt_number", "created_at", "Student").
		Updates(payload).Error
	if err != nil {
		return translate("update receipt", err)
	}
	return nil
}

func (rr *receiptRepository) DeleteReceipt(ctx context.Context, id uuid.UUID) error {
	res := rr.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Receipt{})
	if res.Error != nil {
		return translate("delete receipt", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete receipt", gorm.ErrRecordNotFound)
	}
	return nil
}
