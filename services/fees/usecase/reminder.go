package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"schoolfee/config"
	"schoolfee/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

var nowFunc = time.Now

type ReminderConfig struct {
	GraceDays    int
	IntervalDays int
	AutoSend     bool
	Workers      int
	Template     MessageTemplate
}

type reminderUC struct {
	remote    domain.RemoteAggregateRepo
	receipts  domain.ReceiptRepo
	reminders domain.ReminderRepo
	sender    domain.SenderRepo
	cfg       ReminderConfig
	TimeOut   time.Duration
}

func NewReminderUseCase(remote domain.RemoteAggregateRepo, receipts domain.ReceiptRepo, reminders domain.ReminderRepo, sender domain.SenderRepo, cfg ReminderConfig, timeOut time.Duration) domain.ReminderUseCase {
	if cfg.Workers <= 0 {
		cfg.Workers = 10
	}
	return &reminderUC{
		remote:    remote,
		receipts:  receipts,
		reminders: reminders,
		sender:    sender,
		cfg:       cfg,
		TimeOut:   timeOut,
	}
}

func (ruc *reminderUC) GetOverduePayments(ctx context.Context, graceDays int) (*[]domain.OverduePayment, error) {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	return ruc.overdue(ctx, graceDays)
}

func (ruc *reminderUC) overdue(ctx context.Context, graceDays int) (*[]domain.OverduePayment, error) {
	v, err := withFallback(ctx, "get_overdue_payments",
		func(ctx context.Context) (*[]domain.OverduePayment, error) {
			return ruc.remoteOverdue(ctx, graceDays)
		},
		func(ctx context.Context) (*[]domain.OverduePayment, error) {
			return ruc.localOverdue(ctx, graceDays)
		})
	if err != nil {
		return &[]domain.OverduePayment{}, err
	}
	return v, nil
}

func (ruc *reminderUC) remoteOverdue(ctx context.Context, graceDays int) (*[]domain.OverduePayment, error) {
	rows, err := ruc.remote.GetOverduePayments(ctx, graceDays)
	if err != nil {
		return nil, err
	}
	out := make([]domain.OverduePayment, 0, len(*rows))
	for _, op := range *rows {
		if op.DaysOverdue > 0 {
			out = append(out, op)
		}
	}
	sortOverdue(out, func(i int) domain.OverduePayment { return out[i] })
	return &out, nil
}

func (ruc *reminderUC) localOverdue(ctx context.Context, graceDays int) (*[]domain.OverduePayment, error) {
	rows, err := ruc.receipts.GetOpenBalances(ctx)
	if err != nil {
		return nil, err
	}

	lastSent, err := ruc.reminders.GetLastSentDates(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrFeatureUnavailable) {
			return nil, err
		}
		lastSent = nil
	}

	out := ComputeOverdue(*rows, graceDays, nowFunc(), lastSent)
	return &out, nil
}

func (ruc *reminderUC) GetStudentsWithOverdueInfo(ctx context.Context, graceDays int) (*[]domain.StudentWithOverdue, error) {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	return ruc.studentsWithOverdueInfo(ctx, graceDays)
}

func (ruc *reminderUC) studentsWithOverdueInfo(ctx context.Context, graceDays int) (*[]domain.StudentWithOverdue, error) {
	overdue, err := ruc.overdue(ctx, graceDays)
	if err != nil {
		return &[]domain.StudentWithOverdue{}, err
	}

	counts, err := ruc.reminders.CountByPair(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrFeatureUnavailable) {
			return &[]domain.StudentWithOverdue{}, err
		}
		counts = nil
	}

	out := EnrichOverdue(*overdue, counts, ruc.cfg.IntervalDays, nowFunc())
	return &out, nil
}

func (ruc *reminderUC) GetReminderHistory(ctx context.Context, studentID, receiptID *uuid.UUID) (*[]domain.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	v, err := ruc.reminders.GetReminderHistory(ctx, studentID, receiptID)
	if err != nil {
		if errors.Is(err, domain.ErrFeatureUnavailable) {
			return &[]domain.Reminder{}, nil
		}
		return nil, err
	}
	return v, nil
}

// GenerateMessage always returns text: the remote generator when it answers,
// the local template otherwise.
func (ruc *reminderUC) GenerateMessage(ctx context.Context, studentName string, remainingDue float64, daysOverdue int, course *string) string {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	msg, _ := withFallback(ctx, "generate_reminder_message",
		func(ctx context.Context) (string, error) {
			v, err := ruc.remote.GenerateReminderMessage(ctx, studentName, remainingDue, daysOverdue, course)
			if err == nil && strings.TrimSpace(v) == "" {
				return "", errors.Wrap(domain.ErrFeatureUnavailable, "empty remote message")
			}
			return v, err
		},
		func(context.Context) (string, error) {
			return ruc.localMessage(studentName, remainingDue, daysOverdue, course), nil
		})
	return msg
}

func (ruc *reminderUC) localMessage(studentName string, remainingDue float64, daysOverdue int, course *string) string {
	c := ""
	if course != nil {
		c = *course
	}
	return ruc.cfg.Template.Render(studentName, remainingDue, daysOverdue, c)
}

func (ruc *reminderUC) PreviewMessage(ctx context.Context, pair domain.PairKey) (string, error) {
	receipt, err := ruc.receipts.GetStudentReceipt(ctx, pair.ReceiptID, pair.StudentID)
	if err != nil {
		return "", err
	}
	if receipt.Student == nil {
		return "", errors.Wrap(domain.ErrNotFound, "student")
	}
	days := DaysOverdue(receipt.PaidOn(), ruc.cfg.GraceDays, nowFunc())
	course := receipt.Student.Course
	return ruc.GenerateMessage(ctx, receipt.Student.StudentName, receipt.RemainingDue, days, &course), nil
}

func (ruc *reminderUC) ScheduleReminder(ctx context.Context, pair domain.PairKey, intervalDays int) (*domain.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	return ruc.schedule(ctx, pair, intervalDays)
}

func (ruc *reminderUC) schedule(ctx context.Context, pair domain.PairKey, intervalDays int) (*domain.Reminder, error) {
	return withFallback(ctx, "schedule_next_reminder",
		func(ctx context.Context) (*domain.Reminder, error) {
			id, err := ruc.remote.ScheduleNextReminder(ctx, pair, intervalDays)
			if err != nil {
				return nil, err
			}
			return ruc.reminders.GetReminderByID(ctx, id)
		},
		func(ctx context.Context) (*domain.Reminder, error) {
			return ruc.scheduleLocal(ctx, pair, intervalDays)
		})
}

// scheduleLocal inserts a pending reminder dated today+interval. It fails
// rather than inventing an id.
func (ruc *reminderUC) scheduleLocal(ctx context.Context, pair domain.PairKey, intervalDays int) (*domain.Reminder, error) {
	receipt, err := ruc.receipts.GetStudentReceipt(ctx, pair.ReceiptID, pair.StudentID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get receipt data")
	}
	if receipt.Student == nil {
		return nil, errors.Wrap(domain.ErrNotFound, "failed to get student data")
	}

	now := nowFunc()
	days := DaysOverdue(receipt.PaidOn(), ruc.cfg.GraceDays, now)
	rem := &domain.Reminder{
		StudentID:       pair.StudentID,
		ReceiptID:       pair.ReceiptID,
		ReminderType:    domain.ReminderTypeOverdue,
		ReminderDate:    datatypes.Date(DateOnly(now).AddDate(0, 0, intervalDays)),
		DueAmount:       receipt.RemainingDue,
		DaysOverdue:     days,
		MessageTemplate: ruc.cfg.Template.Render(receipt.Student.StudentName, receipt.RemainingDue, days, receipt.Student.Course),
		Status:          domain.ReminderPending,
	}
	if err := ruc.reminders.CreateReminder(ctx, rem); err != nil {
		return nil, err
	}
	return rem, nil
}

// SendReminder marks the pair's reminder sent first and only then tries the
// channel. A failed delivery is reported in the result, never rolled back.
func (ruc *reminderUC) SendReminder(ctx context.Context, pair domain.PairKey, via domain.Channel, notes *string) (*domain.DispatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	if !via.Valid() {
		return nil, domain.NewValidationError(domain.FieldError{Field: "sent_via", Error: "must be whatsapp, email or sms"})
	}

	rem, err := ruc.reminders.GetLatestPending(ctx, pair)
	if errors.Is(err, domain.ErrNotFound) {
		rem, err = ruc.schedule(ctx, pair, 0)
	}
	if err != nil {
		return nil, err
	}

	if notes == nil || *notes == "" {
		n := "Sent via " + string(via)
		notes = &n
	}
	now := nowFunc()
	if err := ruc.reminders.MarkSent(ctx, rem.ID, via, notes, now); err != nil {
		return nil, err
	}
	rem.Status = domain.ReminderSent
	rem.SentAt = &now
	rem.SentVia = &via
	rem.Notes = notes

	result := &domain.DispatchResult{Reminder: rem}
	if err := ruc.deliverFor(ctx, pair, via, rem); err != nil {
		config.GetLogrusInstance().WithError(err).WithField("reminder_id", rem.ID).Warn("reminder marked sent but not delivered")
		result.DeliveryError = err.Error()
	} else {
		result.Delivered = true
	}
	return result, nil
}

func (ruc *reminderUC) deliverFor(ctx context.Context, pair domain.PairKey, via domain.Channel, rem *domain.Reminder) error {
	if ruc.sender == nil || !ruc.sender.Available(via) {
		return errors.Wrapf(domain.ErrChannelUnavailable, "%s", via)
	}
	receipt, err := ruc.receipts.GetStudentReceipt(ctx, pair.ReceiptID, pair.StudentID)
	if err != nil {
		return err
	}
	if receipt.Student == nil {
		return errors.Wrap(domain.ErrNotFound, "student")
	}
	return ruc.sender.Deliver(ctx, via, domain.GuardianOf(receipt.Student), ruc.cfg.Template.Subject(rem.DaysOverdue), rem.MessageTemplate)
}

func (ruc *reminderUC) MarkReminderSent(ctx context.Context, id uuid.UUID, via domain.Channel, notes *string) (*domain.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	if !via.Valid() {
		return nil, domain.NewValidationError(domain.FieldError{Field: "sent_via", Error: "must be whatsapp, email or sms"})
	}
	if err := ruc.reminders.MarkSent(ctx, id, via, notes, nowFunc()); err != nil {
		return nil, err
	}
	return ruc.reminders.GetReminderByID(ctx, id)
}

func (ruc *reminderUC) MarkReminderFailed(ctx context.Context, id uuid.UUID, notes *string) (*domain.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	if err := ruc.reminders.MarkFailed(ctx, id, notes); err != nil {
		return nil, err
	}
	return ruc.reminders.GetReminderByID(ctx, id)
}

func (ruc *reminderUC) GetReminderStats(ctx context.Context) (*domain.ReminderStats, error) {
	ctx, cancel := context.WithTimeout(ctx, ruc.TimeOut)
	defer cancel()

	overdue, err := ruc.overdue(ctx, ruc.cfg.GraceDays)
	if err != nil {
		return &domain.ReminderStats{}, err
	}

	now := nowFunc()
	active, err := ruc.reminders.GetActiveReminders(ctx, DateOnly(now))
	if err != nil {
		if !errors.Is(err, domain.ErrFeatureUnavailable) {
			return &domain.ReminderStats{}, err
		}
		active = &[]domain.Reminder{}
	}

	stats := BuildReminderStats(*overdue, *active, now)
	return &stats, nil
}

type dispatchJob struct {
	reminder *domain.Reminder
	guardian domain.Guardian
}

// RunReminderSweep queues a reminder for every pair whose cadence says
// today and, with auto-send on, pushes them over WhatsApp.
func (ruc *reminderUC) RunReminderSweep(ctx context.Context) (*domain.SweepResult, error) {
	info, err := ruc.studentsWithOverdueInfo(ctx, ruc.cfg.GraceDays)
	if err != nil {
		return nil, err
	}

	log := config.GetLogrusInstance()
	today := DateOnly(nowFunc())
	result := &domain.SweepResult{}
	var jobs []dispatchJob

	for _, s := range *info {
		if s.NextReminderDate.After(today) {
			continue
		}
		result.Eligible++

		_, err := ruc.reminders.GetLatestPending(ctx, s.Pair())
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return result, err
		}

		rem, err := ruc.schedule(ctx, s.Pair(), 0)
		if err != nil {
			log.WithError(err).WithField("receipt_id", s.ReceiptID).Warn("sweep could not schedule reminder")
			continue
		}
		result.Scheduled++

		if ruc.cfg.AutoSend && s.ParentPhone != "" {
			jobs = append(jobs, dispatchJob{reminder: rem, guardian: domain.GuardianOfOverdue(s.OverduePayment)})
		}
	}

	if len(jobs) > 0 {
		result.Dispatched, result.Failed = ruc.dispatchAll(ctx, jobs)
	}
	log.WithField("result", result).Info("reminder sweep finished")
	return result, nil
}

// dispatchAll sends over WhatsApp with at most cfg.Workers in flight.
func (ruc *reminderUC) dispatchAll(ctx context.Context, jobs []dispatchJob) (sent, failed int) {
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		workerPool = make(chan struct{}, ruc.cfg.Workers)
		log        = config.GetLogrusInstance()
	)

	for _, job := range jobs {
		wg.Add(1)
		workerPool <- struct{}{}

		go func(job dispatchJob) {
			defer wg.Done()
			defer func() { <-workerPool }()

			via := domain.ChannelWhatsApp
			ok := true
			var err error
			if ruc.sender == nil || !ruc.sender.Available(via) {
				err = errors.Wrapf(domain.ErrChannelUnavailable, "%s", via)
			} else {
				err = ruc.sender.Deliver(ctx, via, job.guardian, ruc.cfg.Template.Subject(job.reminder.DaysOverdue), job.reminder.MessageTemplate)
			}

			if err != nil {
				ok = false
				note := "Automatic delivery failed: " + err.Error()
				if mErr := ruc.reminders.MarkFailed(ctx, job.reminder.ID, &note); mErr != nil {
					log.WithError(mErr).Error("failed to mark reminder failed")
				}
			} else {
				note := "Sent automatically via " + string(via)
				if mErr := ruc.reminders.MarkSent(ctx, job.reminder.ID, via, &note, nowFunc()); mErr != nil {
					log.WithError(mErr).Error("failed to mark reminder sent")
				}
			}

			mu.Lock()
			if ok {
				sent++
			} else {
				failed++
			}
			mu.Unlock()
		}(job)
	}

	wg.Wait()
	return sent, failed
}
