package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "Cash"
	PaymentBankTransfer PaymentMethod = "Bank Transfer"
	PaymentOnline       PaymentMethod = "Online"
	PaymentCheque       PaymentMethod = "Cheque"
)

var PaymentMethods = []PaymentMethod{PaymentCash, PaymentBankTransfer, PaymentOnline, PaymentCheque}

func (m PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

// ParsePaymentMethod matches case-insensitively and tolerates "bank_transfer".
func ParsePaymentMethod(v string) (PaymentMethod, bool) {
	norm := strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(v)))
	for _, m := range PaymentMethods {
		if strings.ToLower(string(m)) == norm {
			return m, true
		}
	}
	return "", false
}

type Receipt struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ReceiptNumber string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"receipt_number"`
	StudentID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"student_id"`
	Student       *Student       `gorm:"foreignKey:StudentID;references:ID" json:"students,omitempty" valid:"-"`
	PaymentDate   datatypes.Date `gorm:"not null;index" json:"payment_date" valid:"-"`
	PaymentMethod PaymentMethod  `gorm:"type:varchar(20);not null" json:"payment_method"`
	TotalFee      float64        `gorm:"not null" json:"total_fee"`
	PaidAmount    float64        `gorm:"not null" json:"paid_amount"`
	RemainingDue  float64        `gorm:"not null;index" json:"remaining_due"`
	Description   *string        `gorm:"type:text" json:"description"`
	Notes         *string        `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Receipt) TableName() string { return "fee_receipts" }

// RemainingDue is total minus paid, never negative.
func RemainingDue(totalFee, paidAmount float64) float64 {
	if d := totalFee - paidAmount; d > 0 {
		return d
	}
	return 0
}

func (r *Receipt) PaidOn() time.Time {
	return time.Time(r.PaymentDate)
}

func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ReceiptNumber == "" {
		r.ReceiptNumber = NewReceiptNumber(time.Now())
	}
	return nil
}

func (r *Receipt) BeforeSave(tx *gorm.DB) error {
	r.RemainingDue = RemainingDue(r.TotalFee, r.PaidAmount)
	return nil
}

func NewReceiptNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("RCP-%s-%s", at.Format("20060102"), suffix)
}

type ReceiptFilter struct {
	StudentID *uuid.UUID
	Method    PaymentMethod
	From      *time.Time
	To        *time.Time
}

type ReceiptRepo interface {
	GetAllReceipts(ctx context.Context, filter ReceiptFilter) (*[]Receipt, error)
	GetReceiptByID(ctx context.Context, id uuid.UUID) (*Receipt, error)
	// GetStudentReceipt loads a receipt only if it belongs to the student.
	GetStudentReceipt(ctx context.Context, receiptID, studentID uuid.UUID) (*Receipt, error)
	// GetOpenBalances returns receipts with remaining_due > 0 and their students.
	GetOpenBalances(ctx context.Context) (*[]Receipt, error)
	CreateReceipt(ctx context.Context, payload *Receipt) error
	UpdateReceipt(ctx context.Context, payload *Receipt) error
	DeleteReceipt(ctx context.Context, id uuid.UUID) error
}

type ReceiptUseCase interface {
	GetAllReceipts(ctx context.Context, filter ReceiptFilter) (*[]Receipt, error)
	GetReceiptByID(ctx context.Context, id uuid.UUID) (*Receipt, error)
	CreateReceipt(ctx context.Context, payload *Receipt) (*Receipt, error)
	UpdateReceipt(ctx context.Context, id uuid.UUID, payload *Receipt) (*Receipt, error)
	DeleteReceipt(ctx context.Context, id uuid.UUID) error
}
