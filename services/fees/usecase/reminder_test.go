package usecase

import (
	"context"
	"testing"
	"time"

	"schoolfee/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ReminderSuite struct {
	suite.Suite
	restore   func()
	now       time.Time
	remote    *fakeRemote
	receipts  *fakeReceipts
	reminders *fakeReminders
	sender    *fakeSender
	uc        domain.ReminderUseCase

	ali, sara, omar          domain.Student
	aliDue, saraDue, omarDue domain.Receipt
}

func TestReminderSuite(t *testing.T) {
	suite.Run(t, new(ReminderSuite))
}

func (s *ReminderSuite) SetupTest() {
	s.now = time.Date(2025, time.February, 15, 12, 0, 0, 0, time.UTC)
	s.restore = fixClock(s.now)

	phone := "03001234567"
	s.ali = newStudent("Ali", "R-1", "Morning", "Web", date(2024, time.November, 1))
	s.ali.ParentPhone = &phone
	s.sara = newStudent("Sara", "R-2", "Morning", "Web", date(2024, time.November, 1))
	s.sara.ParentPhone = &phone
	s.omar = newStudent("Omar", "R-3", "Evening", "Design", date(2024, time.November, 1))

	s.aliDue = newReceipt(&s.ali, "RCP-A", date(2024, time.December, 1), 10000, 4000)
	s.saraDue = newReceipt(&s.sara, "RCP-S", date(2025, time.January, 1), 10000, 0)
	s.omarDue = newReceipt(&s.omar, "RCP-O", date(2024, time.December, 10), 5000, 1000)

	s.remote = unavailable()
	s.receipts = &fakeReceipts{rows: []domain.Receipt{s.aliDue, s.saraDue, s.omarDue}}
	s.reminders = &fakeReminders{}
	s.sender = &fakeSender{channels: map[domain.Channel]bool{domain.ChannelWhatsApp: true}}
	s.uc = NewReminderUseCase(s.remote, s.receipts, s.reminders, s.sender, ReminderConfig{
		GraceDays:    30,
		IntervalDays: 7,
		AutoSend:     true,
		Workers:      2,
		Template:     DefaultMessageTemplate(),
	}, time.Second)
}

func (s *ReminderSuite) TearDownTest() {
	s.restore()
}

func (s *ReminderSuite) pair(r domain.Receipt) domain.PairKey {
	return domain.PairKey{StudentID: r.StudentID, ReceiptID: r.ID}
}

func (s *ReminderSuite) TestOverdueFallsBackToLocal() {
	got, err := s.uc.GetOverduePayments(context.Background(), 30)
	s.Require().NoError(err)
	s.Require().Len(*got, 3)

	s.Equal("Ali", (*got)[0].StudentName)
	s.Equal(46, (*got)[0].DaysOverdue)
	s.Equal("Omar", (*got)[1].StudentName)
	s.Equal(37, (*got)[1].DaysOverdue)
	s.Equal("Sara", (*got)[2].StudentName)
	s.Equal(15, (*got)[2].DaysOverdue)
}

func (s *ReminderSuite) TestOverdueUsesRemoteWhenAvailable() {
	rows := []domain.OverduePayment{
		{StudentName: "B", DaysOverdue: 3},
		{StudentName: "A", DaysOverdue: 0},
		{StudentName: "C", DaysOverdue: 9},
	}
	s.remote.overdue = &rows
	s.remote.overdueErr = nil

	got, err := s.uc.GetOverduePayments(context.Background(), 30)
	s.Require().NoError(err)
	s.Require().Len(*got, 2)
	s.Equal("C", (*got)[0].StudentName)
	s.Equal("B", (*got)[1].StudentName)
}

func (s *ReminderSuite) TestOverdueLocalFailureReturnsEmpty() {
	s.remote.overdueErr = errors.New("connection reset")
	s.receipts.err = &domain.StoreError{Op: "get open balances", Err: errors.New("dial tcp: refused")}

	got, err := s.uc.GetOverduePayments(context.Background(), 30)
	s.Require().Error(err)
	s.True(errors.Is(err, domain.ErrStoreUnavailable))
	s.Require().NotNil(got)
	s.Empty(*got)
}

func (s *ReminderSuite) TestStudentsWithOverdueInfo() {
	last := time.Date(2025, time.February, 12, 9, 0, 0, 0, time.UTC)
	via := domain.ChannelWhatsApp
	s.reminders.rows = []domain.Reminder{
		{ID: uuid.New(), StudentID: s.ali.ID, ReceiptID: s.aliDue.ID, Status: domain.ReminderSent, SentAt: &last, SentVia: &via},
		{ID: uuid.New(), StudentID: s.ali.ID, ReceiptID: s.aliDue.ID, Status: domain.ReminderFailed},
	}

	got, err := s.uc.GetStudentsWithOverdueInfo(context.Background(), 30)
	s.Require().NoError(err)
	s.Require().Len(*got, 3)

	ali := (*got)[0]
	s.Equal(domain.UrgencyUrgent, ali.UrgencyLevel)
	s.Equal(2, ali.ReminderCount)
	s.Equal(date(2025, time.February, 19), ali.NextReminderDate)

	sara := (*got)[2]
	s.Equal(domain.UrgencyModerate, sara.UrgencyLevel)
	s.Zero(sara.ReminderCount)
	s.Equal(date(2025, time.February, 15), sara.NextReminderDate)
}

func (s *ReminderSuite) TestOverdueInfoWithoutReminderTable() {
	s.reminders.unavailable = true

	got, err := s.uc.GetStudentsWithOverdueInfo(context.Background(), 30)
	s.Require().NoError(err)
	s.Len(*got, 3)
	for _, row := range *got {
		s.Zero(row.ReminderCount)
		s.Nil(row.LastReminderDate)
	}

	history, err := s.uc.GetReminderHistory(context.Background(), nil, nil)
	s.Require().NoError(err)
	s.Empty(*history)
}

func (s *ReminderSuite) TestGenerateMessage() {
	course := "Web"

	s.remote.messageErr = nil
	s.remote.message = "  "
	local := s.uc.GenerateMessage(context.Background(), "Ali", 6000, 46, &course)
	s.Equal(DefaultMessageTemplate().Render("Ali", 6000, 46, "Web"), local)

	s.remote.message = "custom text"
	s.Equal("custom text", s.uc.GenerateMessage(context.Background(), "Ali", 6000, 46, &course))

	s.remote.messageErr = errors.New("timeout")
	s.Contains(s.uc.GenerateMessage(context.Background(), "Ali", 6000, 46, nil), "URGENT")
}

func (s *ReminderSuite) TestPreviewMessage() {
	msg, err := s.uc.PreviewMessage(context.Background(), s.pair(s.saraDue))
	s.Require().NoError(err)
	s.Contains(msg, "Dear Sara,")
	s.Contains(msg, "PKR 10,000")
	s.Contains(msg, "15 days")

	_, err = s.uc.PreviewMessage(context.Background(), domain.PairKey{StudentID: s.ali.ID, ReceiptID: s.saraDue.ID})
	s.True(errors.Is(err, domain.ErrNotFound))
}

func (s *ReminderSuite) TestScheduleLocal() {
	rem, err := s.uc.ScheduleReminder(context.Background(), s.pair(s.omarDue), 7)
	s.Require().NoError(err)

	s.NotEqual(uuid.Nil, rem.ID)
	s.Equal(domain.ReminderPending, rem.Status)
	s.Equal(domain.ReminderTypeOverdue, rem.ReminderType)
	s.Equal(4000.0, rem.DueAmount)
	s.Equal(37, rem.DaysOverdue)
	s.Equal(date(2025, time.February, 22), time.Time(rem.ReminderDate))
	s.Contains(rem.MessageTemplate, "Dear Omar,")
}

func (s *ReminderSuite) TestScheduleRemote() {
	existing := domain.Reminder{ID: uuid.New(), StudentID: s.ali.ID, ReceiptID: s.aliDue.ID, Status: domain.ReminderPending}
	s.reminders.rows = append(s.reminders.rows, existing)
	s.remote.scheduleFn = func(pair domain.PairKey, interval int) (uuid.UUID, error) {
		return existing.ID, nil
	}

	rem, err := s.uc.ScheduleReminder(context.Background(), s.pair(s.aliDue), 7)
	s.Require().NoError(err)
	s.Equal(existing.ID, rem.ID)
	s.Len(s.reminders.rows, 1)
}

func (s *ReminderSuite) TestScheduleUnknownPair() {
	_, err := s.uc.ScheduleReminder(context.Background(), domain.PairKey{StudentID: uuid.New(), ReceiptID: uuid.New()}, 7)
	s.Require().Error(err)
	s.True(errors.Is(err, domain.ErrNotFound))
	s.Empty(s.reminders.rows)
}

func (s *ReminderSuite) TestSendReminderMarksSentAndDelivers() {
	ctx := context.Background()
	before, err := s.uc.GetReminderStats(ctx)
	s.Require().NoError(err)
	s.Zero(before.SentToday)

	result, err := s.uc.SendReminder(ctx, s.pair(s.aliDue), domain.ChannelWhatsApp, nil)
	s.Require().NoError(err)
	s.True(result.Delivered)
	s.Empty(result.DeliveryError)
	s.Equal(domain.ReminderSent, result.Reminder.Status)
	s.Require().NotNil(result.Reminder.Notes)
	s.Equal("Sent via whatsapp", *result.Reminder.Notes)

	s.Require().Len(s.sender.delivered, 1)
	s.Equal("03001234567", s.sender.delivered[0].to.Phone)
	s.Contains(s.sender.delivered[0].body, "Dear Ali,")

	after, err := s.uc.GetReminderStats(ctx)
	s.Require().NoError(err)
	s.Equal(1, after.SentToday)
	s.Equal(0, after.PendingReminders)
	s.Equal(3, after.TotalOverdue)
	s.Equal(6000.0+10000.0+4000.0, after.TotalOverdueAmount)
}

func (s *ReminderSuite) TestSendReminderUsesPendingReminder() {
	rem, err := s.uc.ScheduleReminder(context.Background(), s.pair(s.saraDue), 3)
	s.Require().NoError(err)

	result, err := s.uc.SendReminder(context.Background(), s.pair(s.saraDue), domain.ChannelWhatsApp, nil)
	s.Require().NoError(err)
	s.Equal(rem.ID, result.Reminder.ID)
	s.Len(s.reminders.rows, 1)
}

func (s *ReminderSuite) TestSendReminderKeepsSentWhenDeliveryFails() {
	result, err := s.uc.SendReminder(context.Background(), s.pair(s.omarDue), domain.ChannelEmail, nil)
	s.Require().NoError(err)
	s.False(result.Delivered)
	s.Contains(result.DeliveryError, domain.ErrChannelUnavailable.Error())
	s.Equal(1, s.reminders.byStatus(domain.ReminderSent))
}

func (s *ReminderSuite) TestSendReminderRejectsUnknownChannel() {
	_, err := s.uc.SendReminder(context.Background(), s.pair(s.omarDue), domain.Channel("pigeon"), nil)
	s.True(errors.Is(err, domain.ErrValidation))
	s.Empty(s.reminders.rows)
}

func (s *ReminderSuite) TestMarkReminder() {
	ctx := context.Background()
	rem, err := s.uc.ScheduleReminder(ctx, s.pair(s.omarDue), 7)
	s.Require().NoError(err)

	failed, err := s.uc.MarkReminderFailed(ctx, rem.ID, strPtr("number unreachable"))
	s.Require().NoError(err)
	s.Equal(domain.ReminderFailed, failed.Status)
	s.Equal("number unreachable", *failed.Notes)

	_, err = s.uc.MarkReminderSent(ctx, rem.ID, domain.ChannelSMS, nil)
	s.True(errors.Is(err, domain.ErrReminderClosed))

	other, err := s.uc.ScheduleReminder(ctx, s.pair(s.aliDue), 7)
	s.Require().NoError(err)
	sent, err := s.uc.MarkReminderSent(ctx, other.ID, domain.ChannelSMS, nil)
	s.Require().NoError(err)
	s.Equal(domain.ReminderSent, sent.Status)
	s.Equal(domain.ChannelSMS, *sent.SentVia)

	_, err = s.uc.MarkReminderSent(ctx, uuid.New(), domain.ChannelSMS, nil)
	s.True(errors.Is(err, domain.ErrNotFound))
}

func (s *ReminderSuite) TestSentReminderIsFinal() {
	ctx := context.Background()
	result, err := s.uc.SendReminder(ctx, s.pair(s.aliDue), domain.ChannelWhatsApp, nil)
	s.Require().NoError(err)
	sentAt := *result.Reminder.SentAt

	_, err = s.uc.MarkReminderFailed(ctx, result.Reminder.ID, strPtr("late bounce"))
	s.True(errors.Is(err, domain.ErrReminderClosed))

	fixClock(s.now.Add(time.Hour))
	_, err = s.uc.MarkReminderSent(ctx, result.Reminder.ID, domain.ChannelEmail, nil)
	s.True(errors.Is(err, domain.ErrReminderClosed))

	stored, err := s.reminders.GetReminderByID(ctx, result.Reminder.ID)
	s.Require().NoError(err)
	s.Equal(domain.ReminderSent, stored.Status)
	s.Equal(domain.ChannelWhatsApp, *stored.SentVia)
	s.Equal(sentAt, *stored.SentAt)

	stats, err := s.uc.GetReminderStats(ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.SentToday)
}

func (s *ReminderSuite) TestRunReminderSweep() {
	recent := s.now.AddDate(0, 0, -2)
	via := domain.ChannelWhatsApp
	s.reminders.rows = []domain.Reminder{
		{ID: uuid.New(), StudentID: s.sara.ID, ReceiptID: s.saraDue.ID, Status: domain.ReminderPending, CreatedAt: recent},
		{ID: uuid.New(), StudentID: s.omar.ID, ReceiptID: s.omarDue.ID, Status: domain.ReminderSent, SentAt: &recent, SentVia: &via},
	}

	result, err := s.uc.RunReminderSweep(context.Background())
	s.Require().NoError(err)
	s.Equal(2, result.Eligible)
	s.Equal(1, result.Scheduled)
	s.Equal(1, result.Dispatched)
	s.Zero(result.Failed)

	s.Require().Len(s.sender.delivered, 1)
	s.Equal("Ali", s.sender.delivered[0].to.StudentName)
	s.Equal(2, s.reminders.byStatus(domain.ReminderSent))
	s.Equal(1, s.reminders.byStatus(domain.ReminderPending))
}

func (s *ReminderSuite) TestRunReminderSweepMarksFailedDeliveries() {
	s.sender.channels = nil

	result, err := s.uc.RunReminderSweep(context.Background())
	s.Require().NoError(err)
	s.Equal(3, result.Eligible)
	s.Equal(3, result.Scheduled)
	// Omar has no phone on file, so only two are pushed.
	s.Zero(result.Dispatched)
	s.Equal(2, result.Failed)
	s.Equal(2, s.reminders.byStatus(domain.ReminderFailed))
	s.Equal(1, s.reminders.byStatus(domain.ReminderPending))
}

func TestDispatchAll(t *testing.T) {
	restore := fixClock(date(2025, time.February, 1))
	defer restore()

	reminders := &fakeReminders{}
	sender := &fakeSender{channels: map[domain.Channel]bool{domain.ChannelWhatsApp: true}}
	uc := &reminderUC{reminders: reminders, sender: sender, cfg: ReminderConfig{Workers: 3, Template: DefaultMessageTemplate()}}

	var jobs []dispatchJob
	for i := 0; i < 20; i++ {
		rem := &domain.Reminder{Status: domain.ReminderPending, MessageTemplate: "hello"}
		require.NoError(t, reminders.CreateReminder(context.Background(), rem))
		jobs = append(jobs, dispatchJob{reminder: rem, guardian: domain.Guardian{Phone: "0300"}})
	}

	sent, failed := uc.dispatchAll(context.Background(), jobs)
	assert.Equal(t, 20, sent)
	assert.Zero(t, failed)
	assert.Equal(t, 20, reminders.byStatus(domain.ReminderSent))
	assert.Len(t, sender.delivered, 20)
}
