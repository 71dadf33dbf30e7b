package usecase

import (
	"testing"
	"time"

	"schoolfee/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysOverdue(t *testing.T) {
	paid := date(2025, time.January, 1)

	tests := []struct {
		name  string
		grace int
		today time.Time
		want  int
	}{
		{"past grace", 30, date(2025, time.February, 15), 15},
		{"on due date", 30, date(2025, time.January, 31), 0},
		{"inside grace", 30, date(2025, time.January, 10), 0},
		{"zero grace", 0, date(2025, time.January, 2), 1},
		{"clock ignored", 30, time.Date(2025, time.February, 15, 23, 59, 0, 0, time.UTC), 15},
		{"across february", 30, date(2025, time.March, 1), 29},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DaysOverdue(paid, tc.grace, tc.today))
		})
	}
}

func TestDaysBetweenUsesPrintedDates(t *testing.T) {
	karachi := time.FixedZone("PKT", 5*3600)
	paid := date(2025, time.March, 1)
	// 02:00 local on the 2nd is still the 1st in UTC.
	today := time.Date(2025, time.March, 2, 2, 0, 0, 0, karachi)

	assert.Equal(t, 1, DaysBetween(paid, today))
}

func TestClassifyUrgency(t *testing.T) {
	tests := []struct {
		days int
		want domain.UrgencyLevel
	}{
		{1, domain.UrgencyGentle},
		{7, domain.UrgencyGentle},
		{8, domain.UrgencyModerate},
		{30, domain.UrgencyModerate},
		{31, domain.UrgencyUrgent},
		{365, domain.UrgencyUrgent},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ClassifyUrgency(tc.days), "days=%d", tc.days)
	}
}

func TestNextReminderDate(t *testing.T) {
	today := date(2025, time.May, 20)

	t.Run("never reminded", func(t *testing.T) {
		assert.Equal(t, today, NextReminderDate(nil, 7, today))
	})

	t.Run("interval still ahead", func(t *testing.T) {
		last := time.Date(2025, time.May, 15, 16, 30, 0, 0, time.UTC)
		assert.Equal(t, date(2025, time.May, 22), NextReminderDate(&last, 7, today))
	})

	t.Run("interval elapsed", func(t *testing.T) {
		last := date(2025, time.May, 1)
		assert.Equal(t, today, NextReminderDate(&last, 7, today))
	})

	t.Run("interval lands today", func(t *testing.T) {
		last := date(2025, time.May, 13)
		assert.Equal(t, today, NextReminderDate(&last, 7, today))
	})
}

func TestComputeOverdue(t *testing.T) {
	today := date(2025, time.February, 15)
	phone := "03001234567"

	ali := newStudent("Ali", "R-1", "Class A", "Web", date(2024, time.December, 1))
	ali.ParentPhone = &phone
	sara := newStudent("Sara", "R-2", "Class A", "Web", date(2024, time.December, 1))

	old := newReceipt(&ali, "RCP-1", date(2024, time.December, 1), 10000, 2000)
	recent := newReceipt(&sara, "RCP-2", date(2025, time.February, 1), 10000, 0)
	paidUp := newReceipt(&sara, "RCP-3", date(2024, time.November, 1), 5000, 5000)
	saraOld := newReceipt(&sara, "RCP-4", date(2024, time.December, 1), 8000, 3000)
	orphan := newReceipt(&sara, "RCP-5", date(2024, time.October, 1), 9000, 0)
	orphan.Student = nil

	sent := date(2025, time.February, 10)
	lastSent := map[domain.PairKey]time.Time{
		{StudentID: ali.ID, ReceiptID: old.ID}: sent,
	}

	got := ComputeOverdue([]domain.Receipt{recent, saraOld, paidUp, orphan, old}, 30, today, lastSent)
	require.Len(t, got, 2)

	// Same days overdue, so ordering falls back to student name.
	assert.Equal(t, "Ali", got[0].StudentName)
	assert.Equal(t, "Sara", got[1].StudentName)
	assert.Equal(t, 46, got[0].DaysOverdue)
	assert.Equal(t, 8000.0, got[0].RemainingDue)
	assert.Equal(t, phone, got[0].ParentPhone)
	require.NotNil(t, got[0].LastReminderDate)
	assert.Equal(t, sent, *got[0].LastReminderDate)
	assert.Nil(t, got[1].LastReminderDate)
	assert.Empty(t, got[1].ParentPhone)
}

func TestComputeOverdueEmpty(t *testing.T) {
	got := ComputeOverdue(nil, 30, date(2025, time.January, 1), nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEnrichOverdue(t *testing.T) {
	today := date(2025, time.March, 1)
	s := newStudent("Bilal", "R-9", "Class B", "Design", date(2024, time.January, 1))
	r := newReceipt(&s, "RCP-9", date(2025, time.January, 1), 12000, 2000)

	last := date(2025, time.February, 27)
	overdue := ComputeOverdue([]domain.Receipt{r}, 30, today, map[domain.PairKey]time.Time{
		{StudentID: s.ID, ReceiptID: r.ID}: last,
	})
	counts := map[domain.PairKey]int{{StudentID: s.ID, ReceiptID: r.ID}: 3}

	got := EnrichOverdue(overdue, counts, 7, today)
	require.Len(t, got, 1)
	assert.Equal(t, 29, got[0].DaysOverdue)
	assert.Equal(t, domain.UrgencyModerate, got[0].UrgencyLevel)
	assert.Equal(t, 3, got[0].ReminderCount)
	assert.Equal(t, date(2025, time.March, 6), got[0].NextReminderDate)
}

func TestBuildReminderStats(t *testing.T) {
	now := time.Date(2025, time.April, 10, 15, 0, 0, 0, time.UTC)
	s1 := newStudent("A", "1", "C", "X", now)
	s2 := newStudent("B", "2", "C", "X", now)

	overdue := []domain.OverduePayment{
		{StudentID: s1.ID, RemainingDue: 1000},
		{StudentID: s1.ID, RemainingDue: 500},
		{StudentID: s2.ID, RemainingDue: 250},
	}

	morning := time.Date(2025, time.April, 10, 8, 0, 0, 0, time.UTC)
	yesterday := time.Date(2025, time.April, 9, 23, 0, 0, 0, time.UTC)
	reminders := []domain.Reminder{
		{Status: domain.ReminderPending},
		{Status: domain.ReminderPending},
		{Status: domain.ReminderSent, SentAt: &morning},
		{Status: domain.ReminderSent, SentAt: &yesterday},
		{Status: domain.ReminderFailed},
	}

	stats := BuildReminderStats(overdue, reminders, now)
	assert.Equal(t, 2, stats.TotalOverdue)
	assert.Equal(t, 1750.0, stats.TotalOverdueAmount)
	assert.Equal(t, 2, stats.PendingReminders)
	assert.Equal(t, 1, stats.SentToday)
}
