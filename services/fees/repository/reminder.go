package repository

import (
	"context"
	"time"

	"schoolfee/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type reminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(database *gorm.DB) domain.ReminderRepo {
	return &reminderRepository{
		db: database,
	}
}

func (rr *reminderRepository) CreateReminder(ctx context.Context, payload *domain.Reminder) error {
	if err := rr.db.WithContext(ctx).Omit("Student", "Receipt").Create(payload).Error; err != nil {
		return translate("create reminder", err)
	}
	return nil
}

func (rr *reminderRepository) GetReminderByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	var rem domain.Reminder
	if err := rr.db.WithContext(ctx).Where("id = ?", id).First(&rem).Error; err != nil {
		return nil, translate("get reminder", err)
	}
	return &rem, nil
}

func (rr *reminderRepository) GetLatestPending(ctx context.Context, pair domain.PairKey) (*domain.Reminder, error) {
	var rem domain.Reminder
	err := rr.db.WithContext(ctx).
		Where("student_id = ? AND receipt_id = ? AND status = ?", pair.StudentID, pair.ReceiptID, domain.ReminderPending).
		Order("created_at DESC").
		First(&rem).Error
	if err != nil {
		return nil, translate("get pending reminder", err)
	}
	return &rem, nil
}

func (rr *reminderRepository) MarkSent(ctx context.Context, id uuid.UUID, via domain.Channel, notes *string, at time.Time) error {
	updates := map[string]interface{}{
		"status":   domain.ReminderSent,
		"sent_at":  at,
		"sent_via": via,
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	return rr.update(ctx, "mark reminder sent", id, updates)
}

func (rr *reminderRepository) MarkFailed(ctx context.Context, id uuid.UUID, notes *string) error {
	updates := map[string]interface{}{
		"status": domain.ReminderFailed,
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	return rr.update(ctx, "mark reminder failed", id, updates)
}

// update only moves pending reminders; sent and failed rows are final.
func (rr *reminderRepository) update(ctx context.Context, op string, id uuid.UUID, updates map[string]interface{}) error {
	res := rr.db.WithContext(ctx).Model(&domain.Reminder{}).
		Where("id = ? AND status = ?", id, domain.ReminderPending).
		Updates(updates)
	if res.Error != nil {
		return translate(op, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := rr.db.WithContext(ctx).Model(&domain.Reminder{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate(op, err)
	}
	if count == 0 {
		return translate(op, gorm.ErrRecordNotFound)
	}
	return errors.Wrap(domain.ErrReminderClosed, op)
}

func (rr *reminderRepository) GetReminderHistory(ctx context.Context, studentID, receiptID *uuid.UUID) (*[]domain.Reminder, error) {
	var reminders []domain.Reminder

	q := rr.db.WithContext(ctx).Model(&domain.Reminder{})
	if studentID != nil {
		q = q.Where("student_id = ?", *studentID)
	}
	if receiptID != nil {
		q = q.Where("receipt_id = ?", *receiptID)
	}
	if err := q.Order("created_at DESC").Find(&reminders).Error; err != nil {
		return nil, translate("get reminder history", err)
	}
	return &reminders, nil
}

type pairRow struct {
	StudentID uuid.UUID
	ReceiptID uuid.UUID
	LastSent  *time.Time
	Total     int
}

func (rr *reminderRepository) GetLastSentDates(ctx context.Context) (map[domain.PairKey]time.Time, error) {
	var rows []pairRow
	err := rr.db.WithContext(ctx).
		Model(&domain.Reminder{}).
		Select("student_id, receipt_id, MAX(sent_at) AS last_sent").
		Where("status = ? AND sent_at IS NOT NULL", domain.ReminderSent).
		Group("student_id, receipt_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate("get last sent dates", err)
	}

	out := make(map[domain.PairKey]time.Time, len(rows))
	for _, r := range rows {
		if r.LastSent != nil {
			out[domain.PairKey{StudentID: r.StudentID, ReceiptID: r.ReceiptID}] = *r.LastSent
		}
	}
	return out, nil
}

func (rr *reminderRepository) CountByPair(ctx context.Context) (map[domain.PairKey]int, error) {
	var rows []pairRow
	err := rr.db.WithContext(ctx).
		Model(&domain.Reminder{}).
		Select("student_id, receipt_id, COUNT(*) AS total").
		Group("student_id, receipt_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate("count reminders", err)
	}

	out := make(map[domain.PairKey]int, len(rows))
	for _, r := range rows {
		out[domain.PairKey{StudentID: r.StudentID, ReceiptID: r.ReceiptID}] = r.Total
	}
	return out, nil
}

func (rr *reminderRepository) GetActiveReminders(ctx context.Context, since time.Time) (*[]domain.Reminder, error) {
	var reminders []domain.Reminder
	err := rr.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND sent_at >= ?)", domain.ReminderPending, domain.ReminderSent, since).
		Find(&reminders).Error
	if err != nil {
		return nil, translate("get active reminders", err)
	}
	return &reminders, nil
}
