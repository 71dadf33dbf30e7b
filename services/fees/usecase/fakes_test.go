package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"schoolfee/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixClock(t time.Time) func() {
	prev := nowFunc
	nowFunc = func() time.Time { return t }
	return func() { nowFunc = prev }
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func newStudent(name, roll, class, course string, joined time.Time) domain.Student {
	return domain.Student{
		ID:          uuid.New(),
		StudentName: name,
		RollNumber:  roll,
		Class:       class,
		Course:      course,
		JoiningDate: datatypes.Date(joined),
	}
}

func newReceipt(s *domain.Student, number string, paid time.Time, total, amount float64) domain.Receipt {
	return domain.Receipt{
		ID:            uuid.New(),
		ReceiptNumber: number,
		StudentID:     s.ID,
		Student:       s,
		PaymentDate:   datatypes.Date(paid),
		PaymentMethod: domain.PaymentCash,
		TotalFee:      total,
		PaidAmount:    amount,
		RemainingDue:  domain.RemainingDue(total, amount),
	}
}

type fakeRemote struct {
	overdue    *[]domain.OverduePayment
	overdueErr error
	message    string
	messageErr error
	scheduleID uuid.UUID
	scheduleFn func(pair domain.PairKey, interval int) (uuid.UUID, error)
	fees       *domain.FeeStructureAnalytics
	feesErr    error
}

func unavailable() *fakeRemote {
	return &fakeRemote{
		overdueErr: domain.ErrFeatureUnavailable,
		messageErr: domain.ErrFeatureUnavailable,
		feesErr:    domain.ErrFeatureUnavailable,
	}
}

func (f *fakeRemote) GetOverduePayments(ctx context.Context, graceDays int) (*[]domain.OverduePayment, error) {
	return f.overdue, f.overdueErr
}

func (f *fakeRemote) GenerateReminderMessage(ctx context.Context, studentName string, remainingDue float64, daysOverdue int, course *string) (string, error) {
	return f.message, f.messageErr
}

func (f *fakeRemote) ScheduleNextReminder(ctx context.Context, pair domain.PairKey, intervalDays int) (uuid.UUID, error) {
	if f.scheduleFn != nil {
		return f.scheduleFn(pair, intervalDays)
	}
	return uuid.Nil, domain.ErrFeatureUnavailable
}

func (f *fakeRemote) GetFeeStructureAnalytics(ctx context.Context) (*domain.FeeStructureAnalytics, error) {
	return f.fees, f.feesErr
}

type fakeReceipts struct {
	rows []domain.Receipt
	err  error
}

func (f *fakeReceipts) GetAllReceipts(ctx context.Context, filter domain.ReceiptFilter) (*[]domain.Receipt, error) {
	out := append([]domain.Receipt(nil), f.rows...)
	return &out, f.err
}

func (f *fakeReceipts) GetReceiptByID(ctx context.Context, id uuid.UUID) (*domain.Receipt, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeReceipts) GetStudentReceipt(ctx context.Context, receiptID, studentID uuid.UUID) (*domain.Receipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.rows {
		if f.rows[i].ID == receiptID && f.rows[i].StudentID == studentID {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeReceipts) GetOpenBalances(ctx context.Context) (*[]domain.Receipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Receipt
	for _, r := range f.rows {
		if r.RemainingDue > 0 {
			out = append(out, r)
		}
	}
	return &out, nil
}

func (f *fakeReceipts) CreateReceipt(ctx context.Context, payload *domain.Receipt) error {
	if f.err != nil {
		return f.err
	}
	payload.ID = uuid.New()
	payload.ReceiptNumber = domain.NewReceiptNumber(nowFunc())
	f.rows = append(f.rows, *payload)
	return nil
}

func (f *fakeReceipts) UpdateReceipt(ctx context.Context, payload *domain.Receipt) error {
	for i := range f.rows {
		if f.rows[i].ID == payload.ID {
			f.rows[i] = *payload
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeReceipts) DeleteReceipt(ctx context.Context, id uuid.UUID) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeReminders struct {
	mu          sync.Mutex
	rows        []domain.Reminder
	unavailable bool
	createErr   error
}

func (f *fakeReminders) CreateReminder(ctx context.Context, payload *domain.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	payload.ID = uuid.New()
	payload.CreatedAt = nowFunc()
	f.rows = append(f.rows, *payload)
	return nil
}

func (f *fakeReminders) GetReminderByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, errors.Wrap(domain.ErrNotFound, "get reminder")
}

func (f *fakeReminders) GetLatestPending(ctx context.Context, pair domain.PairKey) (*domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		r := f.rows[i]
		if r.StudentID == pair.StudentID && r.ReceiptID == pair.ReceiptID && r.Status == domain.ReminderPending {
			return &r, nil
		}
	}
	return nil, errors.Wrap(domain.ErrNotFound, "get pending reminder")
}

func (f *fakeReminders) MarkSent(ctx context.Context, id uuid.UUID, via domain.Channel, notes *string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			if f.rows[i].Status != domain.ReminderPending {
				return errors.Wrap(domain.ErrReminderClosed, "mark reminder sent")
			}
			f.rows[i].Status = domain.ReminderSent
			f.rows[i].SentAt = &at
			f.rows[i].SentVia = &via
			if notes != nil {
				f.rows[i].Notes = notes
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeReminders) MarkFailed(ctx context.Context, id uuid.UUID, notes *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			if f.rows[i].Status != domain.ReminderPending {
				return errors.Wrap(domain.ErrReminderClosed, "mark reminder failed")
			}
			f.rows[i].Status = domain.ReminderFailed
			if notes != nil {
				f.rows[i].Notes = notes
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeReminders) GetReminderHistory(ctx context.Context, studentID, receiptID *uuid.UUID) (*[]domain.Reminder, error) {
	if f.unavailable {
		return nil, domain.ErrFeatureUnavailable
	}
	var out []domain.Reminder
	for _, r := range f.rows {
		if studentID != nil && r.StudentID != *studentID {
			continue
		}
		if receiptID != nil && r.ReceiptID != *receiptID {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return &out, nil
}

func (f *fakeReminders) GetLastSentDates(ctx context.Context) (map[domain.PairKey]time.Time, error) {
	if f.unavailable {
		return nil, domain.ErrFeatureUnavailable
	}
	out := map[domain.PairKey]time.Time{}
	for _, r := range f.rows {
		if r.Status != domain.ReminderSent || r.SentAt == nil {
			continue
		}
		k := domain.PairKey{StudentID: r.StudentID, ReceiptID: r.ReceiptID}
		if cur, ok := out[k]; !ok || r.SentAt.After(cur) {
			out[k] = *r.SentAt
		}
	}
	return out, nil
}

func (f *fakeReminders) CountByPair(ctx context.Context) (map[domain.PairKey]int, error) {
	if f.unavailable {
		return nil, domain.ErrFeatureUnavailable
	}
	out := map[domain.PairKey]int{}
	for _, r := range f.rows {
		out[domain.PairKey{StudentID: r.StudentID, ReceiptID: r.ReceiptID}]++
	}
	return out, nil
}

func (f *fakeReminders) GetActiveReminders(ctx context.Context, since time.Time) (*[]domain.Reminder, error) {
	if f.unavailable {
		return nil, domain.ErrFeatureUnavailable
	}
	var out []domain.Reminder
	for _, r := range f.rows {
		if r.Status == domain.ReminderPending || (r.Status == domain.ReminderSent && r.SentAt != nil && !r.SentAt.Before(since)) {
			out = append(out, r)
		}
	}
	return &out, nil
}

func (f *fakeReminders) byStatus(s domain.ReminderStatus) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.Status == s {
			n++
		}
	}
	return n
}

type delivery struct {
	via  domain.Channel
	to   domain.Guardian
	body string
}

type fakeSender struct {
	mu        sync.Mutex
	channels  map[domain.Channel]bool
	err       error
	delivered []delivery
}

func (f *fakeSender) Available(via domain.Channel) bool {
	return f.channels[via]
}

func (f *fakeSender) Deliver(ctx context.Context, via domain.Channel, to domain.Guardian, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, delivery{via: via, to: to, body: body})
	return nil
}

type fakeStudents struct {
	rows []domain.Student
}

func (f *fakeStudents) GetAllStudents(ctx context.Context, filter domain.StudentFilter) (*[]domain.Student, error) {
	out := append([]domain.Student(nil), f.rows...)
	return &out, nil
}

func (f *fakeStudents) GetStudentByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			s := f.rows[i]
			return &s, nil
		}
	}
	return nil, errors.Wrap(domain.ErrNotFound, "get student")
}

func (f *fakeStudents) GetStudentByRollNumber(ctx context.Context, roll string) (*domain.Student, error) {
	for i := range f.rows {
		if f.rows[i].RollNumber == roll {
			s := f.rows[i]
			return &s, nil
		}
	}
	return nil, errors.Wrap(domain.ErrNotFound, "get student by roll number")
}

func (f *fakeStudents) CreateStudent(ctx context.Context, payload *domain.Student) error {
	payload.ID = uuid.New()
	f.rows = append(f.rows, *payload)
	return nil
}

func (f *fakeStudents) UpdateStudent(ctx context.Context, payload *domain.Student) error {
	for i := range f.rows {
		if f.rows[i].ID == payload.ID {
			f.rows[i] = *payload
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeStudents) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeClasses struct {
	rows     []domain.Class
	students *fakeStudents
}

func (f *fakeClasses) GetAllClasses(ctx context.Context) (*[]domain.Class, error) {
	out := append([]domain.Class(nil), f.rows...)
	return &out, nil
}

func (f *fakeClasses) GetClassByID(ctx context.Context, id uuid.UUID) (*domain.Class, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			c := f.rows[i]
			return &c, nil
		}
	}
	return nil, errors.Wrap(domain.ErrNotFound, "get class")
}

func (f *fakeClasses) GetClassByName(ctx context.Context, name string) (*domain.Class, error) {
	for i := range f.rows {
		if f.rows[i].ClassName == name {
			c := f.rows[i]
			return &c, nil
		}
	}
	return nil, errors.Wrap(domain.ErrNotFound, "get class by name")
}

func (f *fakeClasses) CreateClass(ctx context.Context, payload *domain.Class) error {
	payload.ID = uuid.New()
	f.rows = append(f.rows, *payload)
	return nil
}

func (f *fakeClasses) UpdateClass(ctx context.Context, oldName string, payload *domain.Class) error {
	for i := range f.rows {
		if f.rows[i].ID == payload.ID {
			f.rows[i] = *payload
		}
	}
	if f.students != nil {
		for i := range f.students.rows {
			if f.students.rows[i].Class == oldName {
				f.students.rows[i].Class = payload.ClassName
			}
		}
	}
	return nil
}

func (f *fakeClasses) DeleteClass(ctx context.Context, id uuid.UUID) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeClasses) CountStudentsInClass(ctx context.Context, name string) (int64, error) {
	var n int64
	if f.students != nil {
		for _, s := range f.students.rows {
			if s.Class == name {
				n++
			}
		}
	}
	return n, nil
}

type fakeSnapshot struct {
	mu    sync.Mutex
	snap  domain.Snapshot
	err   error
	calls int
}

func (f *fakeSnapshot) GetSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	s := f.snap
	return &s, nil
}

type fakeSessions struct {
	rows map[int]*domain.UserSession
}

func (f *fakeSessions) GetSession(ctx context.Context, userID int) (*domain.UserSession, error) {
	if row, ok := f.rows[userID]; ok {
		return row, nil
	}
	return nil, errors.Wrap(domain.ErrNotFound, "get session")
}

func (f *fakeSessions) SaveSession(ctx context.Context, payload *domain.UserSession) error {
	if f.rows == nil {
		f.rows = map[int]*domain.UserSession{}
	}
	f.rows[payload.UserID] = payload
	return nil
}

type fakeUsers struct {
	users map[string]domain.User
}

func (f *fakeUsers) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if u, ok := f.users[username]; ok {
		return &u, nil
	}
	return nil, errors.Wrap(domain.ErrNotFound, "find user")
}
