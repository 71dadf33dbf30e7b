package usecase

import (
	"sort"
	"time"

	"schoolfee/domain"
)

// DateOnly drops the clock part, keeping t's location.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from one date to another. Each side is
// read in its own location, so a UTC payment date and a local "today"
// compare as the dates printed on them.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

func DueDate(paymentDate time.Time, graceDays int) time.Time {
	return DateOnly(paymentDate).AddDate(0, 0, graceDays)
}

func DaysOverdue(paymentDate time.Time, graceDays int, today time.Time) int {
	if d := DaysBetween(DueDate(paymentDate, graceDays), today); d > 0 {
		return d
	}
	return 0
}

func ClassifyUrgency(daysOverdue int) domain.UrgencyLevel {
	switch {
	case daysOverdue <= 7:
		return domain.UrgencyGentle
	case daysOverdue <= 30:
		return domain.UrgencyModerate
	default:
		return domain.UrgencyUrgent
	}
}

// NextReminderDate is last+interval when that is still ahead of today,
// otherwise today. A pair never reminded is due today.
func NextReminderDate(last *time.Time, intervalDays int, today time.Time) time.Time {
	day := DateOnly(today)
	if last == nil || last.IsZero() {
		return day
	}
	next := DateOnly(last.In(today.Location())).AddDate(0, 0, intervalDays)
	if !next.After(day) {
		return day
	}
	return next
}

// ComputeOverdue folds open receipts into the overdue set. Receipts without
// a joined student are skipped, as are those still inside the grace period.
func ComputeOverdue(receipts []domain.Receipt, graceDays int, today time.Time, lastSent map[domain.PairKey]time.Time) []domain.OverduePayment {
	out := make([]domain.OverduePayment, 0, len(receipts))
	for i := range receipts {
		r := &receipts[i]
		if r.Student == nil || r.RemainingDue <= 0 {
			continue
		}
		days := DaysOverdue(r.PaidOn(), graceDays, today)
		if days <= 0 {
			continue
		}

		op := domain.OverduePayment{
			StudentID:     r.Student.ID,
			StudentName:   r.Student.StudentName,
			RollNumber:    r.Student.RollNumber,
			Class:         r.Student.Class,
			Course:        r.Student.Course,
			ReceiptID:     r.ID,
			ReceiptNumber: r.ReceiptNumber,
			PaymentDate:   r.PaidOn(),
			TotalFee:      r.TotalFee,
			PaidAmount:    r.PaidAmount,
			RemainingDue:  r.RemainingDue,
			DaysOverdue:   days,
		}
		if r.Student.ParentPhone != nil {
			op.ParentPhone = *r.Student.ParentPhone
		}
		if r.Student.ParentEmail != nil {
			op.ParentEmail = *r.Student.ParentEmail
		}
		if last, ok := lastSent[op.Pair()]; ok {
			op.LastReminderDate = &last
		}
		out = append(out, op)
	}
	sortOverdue(out, func(i int) domain.OverduePayment { return out[i] })
	return out
}

// EnrichOverdue attaches urgency, cadence and reminder counts.
func EnrichOverdue(overdue []domain.OverduePayment, counts map[domain.PairKey]int, intervalDays int, today time.Time) []domain.StudentWithOverdue {
	out := make([]domain.StudentWithOverdue, 0, len(overdue))
	for _, op := range overdue {
		out = append(out, domain.StudentWithOverdue{
			OverduePayment:   op,
			NextReminderDate: NextReminderDate(op.LastReminderDate, intervalDays, today),
			ReminderCount:    counts[op.Pair()],
			UrgencyLevel:     ClassifyUrgency(op.DaysOverdue),
		})
	}
	sortOverdue(out, func(i int) domain.OverduePayment { return out[i].OverduePayment })
	return out
}

// sortOverdue orders by days overdue descending, then student name, then receipt number.
func sortOverdue[T any](items []T, at func(int) domain.OverduePayment) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := at(i), at(j)
		if a.DaysOverdue != b.DaysOverdue {
			return a.DaysOverdue > b.DaysOverdue
		}
		if a.StudentName != b.StudentName {
			return a.StudentName < b.StudentName
		}
		return a.ReceiptNumber < b.ReceiptNumber
	})
}

// BuildReminderStats folds the overdue set and the active reminders into the
// four headline counters. sent_today uses now's local day.
func BuildReminderStats(overdue []domain.OverduePayment, reminders []domain.Reminder, now time.Time) domain.ReminderStats {
	var stats domain.ReminderStats

	students := make(map[string]struct{}, len(overdue))
	for _, op := range overdue {
		students[op.StudentID.String()] = struct{}{}
		stats.TotalOverdueAmount += op.RemainingDue
	}
	stats.TotalOverdue = len(students)

	dayStart := DateOnly(now)
	dayEnd := dayStart.AddDate(0, 0, 1)
	for _, rem := range reminders {
		switch rem.Status {
		case domain.ReminderPending:
			stats.PendingReminders++
		case domain.ReminderSent:
			if rem.SentAt != nil && !rem.SentAt.Before(dayStart) && rem.SentAt.Before(dayEnd) {
				stats.SentToday++
			}
		}
	}
	return stats
}
