package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderSent    ReminderStatus = "sent"
	ReminderFailed  ReminderStatus = "failed"
)

type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
)

func (c Channel) Valid() bool {
	return c == ChannelWhatsApp || c == ChannelEmail || c == ChannelSMS
}

type UrgencyLevel string

const (
	UrgencyGentle   UrgencyLevel = "gentle"
	UrgencyModerate UrgencyLevel = "moderate"
	UrgencyUrgent   UrgencyLevel = "urgent"
)

const ReminderTypeOverdue = "overdue_payment"

type Reminder struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StudentID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_reminder_pair" json:"student_id"`
	Student         *Student       `gorm:"foreignKey:StudentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ReceiptID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_reminder_pair" json:"receipt_id"`
	Receipt         *Receipt       `gorm:"foreignKey:ReceiptID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ReminderType    string         `gorm:"type:varchar(50);not null;default:overdue_payment" json:"reminder_type"`
	ReminderDate    datatypes.Date `gorm:"not null" json:"reminder_date"`
	DueAmount       float64        `gorm:"not null" json:"due_amount"`
	DaysOverdue     int            `gorm:"not null" json:"days_overdue"`
	MessageTemplate string         `gorm:"type:text;not null" json:"message_template"`
	Status          ReminderStatus `gorm:"type:varchar(10);not null;default:pending;index" json:"status"`
	SentAt          *time.Time     `gorm:"index" json:"sent_at"`
	SentVia         *Channel       `gorm:"type:varchar(10)" json:"sent_via"`
	Notes           *string        `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Reminder) TableName() string { return "fee_reminders" }

// PairKey identifies the outstanding balance a reminder is about.
type PairKey struct {
	StudentID uuid.UUID
	ReceiptID uuid.UUID
}

// OverduePayment is one receipt past its grace period, joined to its student.
type OverduePayment struct {
	StudentID        uuid.UUID  `json:"student_id"`
	StudentName      string     `json:"student_name"`
	RollNumber       string     `json:"roll_number"`
	Class            string     `json:"class"`
	Course           string     `json:"course"`
	ParentPhone      string     `json:"parent_phone"`
	ParentEmail      string     `json:"parent_email"`
	ReceiptID        uuid.UUID  `json:"receipt_id"`
	ReceiptNumber    string     `json:"receipt_number"`
	PaymentDate      time.Time  `json:"payment_date"`
	TotalFee         float64    `json:"total_fee"`
	PaidAmount       float64    `json:"paid_amount"`
	RemainingDue     float64    `json:"remaining_due"`
	DaysOverdue      int        `json:"days_overdue"`
	LastReminderDate *time.Time `json:"last_reminder_date"`
}

func (o OverduePayment) Pair() PairKey {
	return PairKey{StudentID: o.StudentID, ReceiptID: o.ReceiptID}
}

type StudentWithOverdue struct {
	OverduePayment
	NextReminderDate time.Time    `json:"next_reminder_date"`
	ReminderCount    int          `json:"reminder_count"`
	UrgencyLevel     UrgencyLevel `json:"urgency_level"`
}

type ReminderStats struct {
	TotalOverdue       int     `json:"total_overdue"`
	TotalOverdueAmount float64 `json:"total_overdue_amount"`
	PendingReminders   int     `json:"pending_reminders"`
	SentToday          int     `json:"sent_today"`
}

type DispatchResult struct {
	Reminder      *Reminder `json:"reminder"`
	Delivered     bool      `json:"delivered"`
	DeliveryError string    `json:"delivery_error,omitempty"`
}

type SweepResult struct {
	Eligible   int `json:"eligible"`
	Scheduled  int `json:"scheduled"`
	Dispatched int `json:"dispatched"`
	Failed     int `json:"failed"`
}

type ReminderRepo interface {
	CreateReminder(ctx context.Context, payload *Reminder) error
	GetReminderByID(ctx context.Context, id uuid.UUID) (*Reminder, error)
	GetLatestPending(ctx context.Context, pair PairKey) (*Reminder, error)
	MarkSent(ctx context.Context, id uuid.UUID, via Channel, notes *string, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, notes *string) error
	GetReminderHistory(ctx context.Context, studentID, receiptID *uuid.UUID) (*[]Reminder, error)
	// GetLastSentDates maps each pair to the newest sent_at among its sent reminders.
	GetLastSentDates(ctx context.Context) (map[PairKey]time.Time, error)
	CountByPair(ctx context.Context) (map[PairKey]int, error)
	// GetActiveReminders returns pending reminders and those sent at or after since.
	GetActiveReminders(ctx context.Context, since time.Time) (*[]Reminder, error)
}

// RemoteAggregateRepo is the optional precomputed path. Every method returns
// ErrFeatureUnavailable when the deployment lacks the function.
type RemoteAggregateRepo interface {
	GetOverduePayments(ctx context.Context, graceDays int) (*[]OverduePayment, error)
	GenerateReminderMessage(ctx context.Context, studentName string, remainingDue float64, daysOverdue int, course *string) (string, error)
	ScheduleNextReminder(ctx context.Context, pair PairKey, intervalDays int) (uuid.UUID, error)
	GetFeeStructureAnalytics(ctx context.Context) (*FeeStructureAnalytics, error)
}

type ReminderUseCase interface {
	GetOverduePayments(ctx context.Context, graceDays int) (*[]OverduePayment, error)
	GetStudentsWithOverdueInfo(ctx context.Context, graceDays int) (*[]StudentWithOverdue, error)
	GetReminderHistory(ctx context.Context, studentID, receiptID *uuid.UUID) (*[]Reminder, error)
	GenerateMessage(ctx context.Context, studentName string, remainingDue float64, daysOverdue int, course *string) string
	PreviewMessage(ctx context.Context, pair PairKey) (string, error)
	ScheduleReminder(ctx context.Context, pair PairKey, intervalDays int) (*Reminder, error)
	SendReminder(ctx context.Context, pair PairKey, via Channel, notes *string) (*DispatchResult, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, via Channel, notes *string) (*Reminder, error)
	MarkReminderFailed(ctx context.Context, id uuid.UUID, notes *string) (*Reminder, error)
	GetReminderStats(ctx context.Context) (*ReminderStats, error)
	RunReminderSweep(ctx context.Context) (*SweepResult, error)
}
