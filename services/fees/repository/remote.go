package repository

import (
	"context"

	"schoolfee/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type remoteRepository struct {
	pool *pgxpool.Pool
}

// NewRemoteAggregateRepository calls the database-side aggregate functions.
// A nil pool makes every call report ErrFeatureUnavailable.
func NewRemoteAggregateRepository(pool *pgxpool.Pool) domain.RemoteAggregateRepo {
	return &remoteRepository{
		pool: pool,
	}
}

func (rr *remoteRepository) ready(op string) error {
	if rr.pool == nil {
		return errors.Wrapf(domain.ErrFeatureUnavailable, "%s: no pool", op)
	}
	return nil
}

func (rr *remoteRepository) GetOverduePayments(ctx context.Context, graceDays int) (*[]domain.OverduePayment, error) {
	const op = "get_overdue_payments"
	if err := rr.ready(op); err != nil {
		return nil, err
	}

	rows, err := rr.pool.Query(ctx, `
		SELECT student_id::text, student_name, roll_number, class, course,
		       parent_phone, parent_email, receipt_id::text, receipt_number,
		       payment_date, total_fee, paid_amount, remaining_due,
		       days_overdue, last_reminder_date
		  FROM get_overdue_payments($1)`, graceDays)
	if err != nil {
		return nil, translate(op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OverduePayment, error) {
		var (
			p                    domain.OverduePayment
			studentID, receiptID string
		)
		err := row.Scan(&studentID, &p.StudentName, &p.RollNumber, &p.Class, &p.Course,
			&p.ParentPhone, &p.ParentEmail, &receiptID, &p.ReceiptNumber,
			&p.PaymentDate, &p.TotalFee, &p.PaidAmount, &p.RemainingDue,
			&p.DaysOverdue, &p.LastReminderDate)
		if err != nil {
			return p, err
		}
		if p.StudentID, err = uuid.Parse(studentID); err != nil {
			return p, err
		}
		p.ReceiptID, err = uuid.Parse(receiptID)
		return p, err
	})
	if err != nil {
		return nil, translate(op, err)
	}
	return &out, nil
}

func (rr *remoteRepository) GenerateReminderMessage(ctx context.Context, studentName string, remainingDue float64, daysOverdue int, course *string) (string, error) {
	const op = "generate_reminder_message"
	if err := rr.ready(op); err != nil {
		return "", err
	}

	var msg *string
	err := rr.pool.QueryRow(ctx, `SELECT generate_reminder_message($1, $2, $3, $4)`,
		studentName, remainingDue, daysOverdue, course).Scan(&msg)
	if err != nil {
		return "", translate(op, err)
	}
	if msg == nil {
		return "", nil
	}
	return *msg, nil
}

func (rr *remoteRepository) ScheduleNextReminder(ctx context.Context, pair domain.PairKey, intervalDays int) (uuid.UUID, error) {
	const op = "schedule_next_reminder"
	if err := rr.ready(op); err != nil {
		return uuid.Nil, err
	}

	var id string
	err := rr.pool.QueryRow(ctx, `SELECT schedule_next_reminder($1::uuid, $2::uuid, $3)::text`,
		pair.StudentID.String(), pair.ReceiptID.String(), intervalDays).Scan(&id)
	if err != nil {
		return uuid.Nil, translate(op, err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, op)
	}
	return parsed, nil
}

func (rr *remoteRepository) GetFeeStructureAnalytics(ctx context.Context) (*domain.FeeStructureAnalytics, error) {
	const op = "get_fee_structure_analytics"
	if err := rr.ready(op); err != nil {
		return nil, err
	}

	var fs domain.FeeStructureAnalytics
	err := rr.pool.QueryRow(ctx, `
		SELECT total_students, students_with_discounts, average_discount_percentage,
		       total_standard_revenue, total_actual_revenue, total_discount_amount
		  FROM get_fee_structure_analytics()`).Scan(
		&fs.TotalStudents, &fs.StudentsWithDiscounts, &fs.AverageDiscountPercentage,
		&fs.TotalStandardRevenue, &fs.TotalActualRevenue, &fs.TotalDiscountAmount)
	if err != nil {
		return nil, translate(op, err)
	}
	return &fs, nil
}
