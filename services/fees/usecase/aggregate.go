package usecase

import (
	"sort"
	"time"

	"schoolfee/domain"
)

const (
	TrendMonths     = 6
	NotAvailable    = "N/A"
	retentionMonths = 3
)

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

func sameMonth(t, now time.Time) bool {
	return t.Year() == now.Year() && t.Month() == now.Month()
}

// CollectionRate is paid over billed, in percent. Zero when nothing was billed.
func CollectionRate(receipts []domain.Receipt) float64 {
	var paid, total float64
	for _, r := range receipts {
		paid += r.PaidAmount
		total += r.TotalFee
	}
	return percent(paid, total)
}

// countBy groups by label and orders by count descending, label ascending.
func countBy[T any](items []T, label func(T) string) []domain.LabelCount {
	counts := make(map[string]int)
	for _, it := range items {
		counts[label(it)]++
	}
	out := make([]domain.LabelCount, 0, len(counts))
	for l, c := range counts {
		out = append(out, domain.LabelCount{Label: l, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func ClassDistribution(students []domain.Student) []domain.LabelCount {
	return countBy(students, func(s domain.Student) string { return s.Class })
}

func CourseDistribution(students []domain.Student) []domain.LabelCount {
	return countBy(students, func(s domain.Student) string { return s.Course })
}

func PaymentMethodDistribution(receipts []domain.Receipt) []domain.LabelCount {
	return countBy(receipts, func(r domain.Receipt) string { return string(r.PaymentMethod) })
}

// MostPopular picks the highest count; ties go to the lexicographically
// smallest label.
func MostPopular(dist []domain.LabelCount) string {
	if len(dist) == 0 {
		return NotAvailable
	}
	best := dist[0]
	for _, lc := range dist[1:] {
		if lc.Count > best.Count || (lc.Count == best.Count && lc.Label < best.Label) {
			best = lc
		}
	}
	return best.Label
}

// lastN keeps the most recent n of the chronologically sorted keys.
func lastN(keys []string, n int) []string {
	sort.Strings(keys)
	if n > 0 && len(keys) > n {
		return keys[len(keys)-n:]
	}
	return keys
}

// MonthlyEnrollment buckets joining dates by year-month. Cumulative counts
// every student joined up to and including the bucket, even ones before the
// window.
func MonthlyEnrollment(students []domain.Student, lastMonths int) []domain.MonthCount {
	counts := make(map[string]int)
	for _, s := range students {
		counts[monthKey(time.Time(s.JoiningDate))]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	running := make(map[string]int, len(keys))
	total := 0
	for _, k := range keys {
		total += counts[k]
		running[k] = total
	}

	window := lastN(keys, lastMonths)
	out := make([]domain.MonthCount, 0, len(window))
	for _, k := range window {
		out = append(out, domain.MonthCount{Month: k, Count: counts[k], Cumulative: running[k]})
	}
	return out
}

// MonthlyCollection buckets receipts by payment year-month.
func MonthlyCollection(receipts []domain.Receipt, lastMonths int) []domain.MonthCollection {
	buckets := make(map[string]*domain.MonthCollection)
	for i := range receipts {
		k := monthKey(receipts[i].PaidOn())
		b, ok := buckets[k]
		if !ok {
			b = &domain.MonthCollection{Month: k}
			buckets[k] = b
		}
		b.Collected += receipts[i].PaidAmount
		b.Due += receipts[i].RemainingDue
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}

	window := lastN(keys, lastMonths)
	out := make([]domain.MonthCollection, 0, len(window))
	for _, k := range window {
		b := *buckets[k]
		b.Total = b.Collected + b.Due
		out = append(out, b)
	}
	return out
}

// RetentionRate is the share of students with a payment in the trailing
// three months. Zero when there are no students.
func RetentionRate(students []domain.Student, receipts []domain.Receipt, now time.Time) float64 {
	if len(students) == 0 {
		return 0
	}
	since := DateOnly(now).AddDate(0, -retentionMonths, 0)
	active := make(map[string]struct{})
	for i := range receipts {
		if DaysBetween(since, receipts[i].PaidOn()) >= 0 {
			active[receipts[i].StudentID.String()] = struct{}{}
		}
	}
	return percent(float64(len(active)), float64(len(students)))
}

// AveragePaymentDay is the rounded mean day of month of all payments.
func AveragePaymentDay(receipts []domain.Receipt) int {
	if len(receipts) == 0 {
		return 0
	}
	sum := 0
	for i := range receipts {
		sum += receipts[i].PaidOn().Day()
	}
	return int(float64(sum)/float64(len(receipts)) + 0.5)
}

func RevenuePerStudent(students []domain.Student, receipts []domain.Receipt) float64 {
	if len(students) == 0 {
		return 0
	}
	var paid float64
	for _, r := range receipts {
		paid += r.PaidAmount
	}
	return paid / float64(len(students))
}

// MonthlyEfficiency is the collection rate of receipts dated in now's month.
func MonthlyEfficiency(receipts []domain.Receipt, now time.Time) float64 {
	var paid, total float64
	for i := range receipts {
		if sameMonth(receipts[i].PaidOn(), now) {
			paid += receipts[i].PaidAmount
			total += receipts[i].TotalFee
		}
	}
	return percent(paid, total)
}

// StudentGrowth compares this month's enrollments with last month's.
// Zero when nobody joined last month.
func StudentGrowth(students []domain.Student, now time.Time) float64 {
	lastMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
	var current, previous int
	for _, s := range students {
		joined := time.Time(s.JoiningDate)
		switch {
		case sameMonth(joined, now):
			current++
		case sameMonth(joined, lastMonth):
			previous++
		}
	}
	if previous == 0 {
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

func StudentsWithDues(receipts []domain.Receipt) int {
	ids := make(map[string]struct{})
	for _, r := range receipts {
		if r.RemainingDue > 0 {
			ids[r.StudentID.String()] = struct{}{}
		}
	}
	return len(ids)
}

// PaymentTimingByDay returns only the days of month that saw a payment.
func PaymentTimingByDay(receipts []domain.Receipt) []domain.PaymentTiming {
	var days [32]domain.PaymentTiming
	for i := range receipts {
		d := receipts[i].PaidOn().Day()
		days[d].Payments++
		days[d].Amount += receipts[i].PaidAmount
	}
	out := make([]domain.PaymentTiming, 0, 31)
	for d := 1; d <= 31; d++ {
		if days[d].Payments > 0 {
			days[d].Day = d
			out = append(out, days[d])
		}
	}
	return out
}

// CoursePerformanceOf attributes paid amounts to the course of each
// receipt's student.
func CoursePerformanceOf(students []domain.Student, receipts []domain.Receipt) []domain.CoursePerformance {
	courseOf := make(map[string]string, len(students))
	perf := make(map[string]*domain.CoursePerformance)
	for _, s := range students {
		courseOf[s.ID.String()] = s.Course
		p, ok := perf[s.Course]
		if !ok {
			p = &domain.CoursePerformance{Course: s.Course}
			perf[s.Course] = p
		}
		p.Students++
	}
	for _, r := range receipts {
		if c, ok := courseOf[r.StudentID.String()]; ok {
			perf[c].Revenue += r.PaidAmount
		}
	}

	out := make([]domain.CoursePerformance, 0, len(perf))
	for _, p := range perf {
		p.AvgRevenue = p.Revenue / float64(p.Students)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Course < out[j].Course })
	return out
}

// ClassFeeStructure lists every class with its enrolled students and the
// fees they are billed.
func ClassFeeStructure(classes []domain.Class, students []domain.Student) []domain.ClassFee {
	out := make([]domain.ClassFee, 0, len(classes))
	index := make(map[string]int, len(classes))
	for _, c := range classes {
		index[c.ClassName] = len(out)
		out = append(out, domain.ClassFee{ClassName: c.ClassName, Course: c.Course, Fee: c.FeeAmount})
	}
	for i := range students {
		j, ok := index[students[i].Class]
		if !ok {
			continue
		}
		out[j].Students++
		out[j].Revenue += students[i].EffectiveFee(out[j].Fee)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassName < out[j].ClassName })
	return out
}

// OrphanedClassLabels lists student class labels with no matching class.
func OrphanedClassLabels(classes []domain.Class, students []domain.Student) []string {
	known := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		known[c.ClassName] = struct{}{}
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, s := range students {
		if _, ok := known[s.Class]; ok {
			continue
		}
		if _, ok := seen[s.Class]; ok {
			continue
		}
		seen[s.Class] = struct{}{}
		out = append(out, s.Class)
	}
	sort.Strings(out)
	return out
}

// FeeStructureFromSnapshot folds negotiated fees the same way the
// get_fee_structure_analytics function does. Revenue totals only cover
// students with a negotiated fee.
func FeeStructureFromSnapshot(snap domain.Snapshot) domain.FeeStructureAnalytics {
	classFee := make(map[string]float64, len(snap.Classes))
	for _, c := range snap.Classes {
		classFee[c.ClassName] = c.FeeAmount
	}

	var (
		fs       domain.FeeStructureAnalytics
		pctTotal float64
	)
	fs.TotalStudents = len(snap.Students)
	for i := range snap.Students {
		s := &snap.Students[i]
		if !s.HasNegotiatedFee() {
			continue
		}
		standard := classFee[s.Class]
		if s.StandardFeeAmount != nil {
			standard = *s.StandardFeeAmount
		}
		actual := *s.FinalFeeAmount
		fs.TotalStandardRevenue += standard
		fs.TotalActualRevenue += actual

		discount := standard - actual
		fs.TotalDiscountAmount += discount
		if discount > 0 {
			fs.StudentsWithDiscounts++
			pctTotal += percent(discount, standard)
		}
	}
	if fs.StudentsWithDiscounts > 0 {
		fs.AverageDiscountPercentage = pctTotal / float64(fs.StudentsWithDiscounts)
	}
	return WithDerivedRates(fs)
}

// WithDerivedRates fills the two ratios the remote function does not return.
func WithDerivedRates(fs domain.FeeStructureAnalytics) domain.FeeStructureAnalytics {
	fs.DiscountRate = percent(float64(fs.StudentsWithDiscounts), float64(fs.TotalStudents))
	fs.RevenueImpact = percent(fs.TotalDiscountAmount, fs.TotalStandardRevenue)
	return fs
}

func BuildDashboardMetrics(snap domain.Snapshot, now time.Time) domain.DashboardMetrics {
	m := domain.DashboardMetrics{
		TotalStudents:  len(snap.Students),
		TotalReceipts:  len(snap.Receipts),
		MonthlyGrowth:  StudentGrowth(snap.Students, now),
		CollectionRate: CollectionRate(snap.Receipts),
		ComputedAt:     now,
	}
	for _, r := range snap.Receipts {
		m.TotalCollection += r.PaidAmount
		m.TotalDue += r.RemainingDue
	}
	return m
}

// BuildAnalytics is a full re-derivation from the snapshot. It keeps no
// state between calls.
func BuildAnalytics(snap domain.Snapshot, now time.Time) domain.AnalyticsReport {
	dash := BuildDashboardMetrics(snap, now)
	classes := ClassDistribution(snap.Students)
	courses := CourseDistribution(snap.Students)
	methods := PaymentMethodDistribution(snap.Receipts)

	var expected float64
	for _, r := range snap.Receipts {
		expected += r.TotalFee
	}

	return domain.AnalyticsReport{
		TotalStudents:         dash.TotalStudents,
		TotalReceipts:         dash.TotalReceipts,
		TotalCollection:       dash.TotalCollection,
		TotalDue:              dash.TotalDue,
		TotalExpected:         expected,
		CollectionRate:        dash.CollectionRate,
		StudentGrowth:         dash.MonthlyGrowth,
		StudentsWithDues:      StudentsWithDues(snap.Receipts),
		RetentionRate:         RetentionRate(snap.Students, snap.Receipts, now),
		AveragePaymentDay:     AveragePaymentDay(snap.Receipts),
		RevenuePerStudent:     RevenuePerStudent(snap.Students, snap.Receipts),
		MonthlyEfficiency:     MonthlyEfficiency(snap.Receipts, now),
		MostPopularClass:      MostPopular(classes),
		MostPopularCourse:     MostPopular(courses),
		MostUsedPaymentMethod: MostPopular(methods),
		ClassDistribution:     classes,
		CourseDistribution:    courses,
		PaymentMethods:        methods,
		MonthlyEnrollment:     MonthlyEnrollment(snap.Students, TrendMonths),
		MonthlyCollection:     MonthlyCollection(snap.Receipts, TrendMonths),
		CoursePerformance:     CoursePerformanceOf(snap.Students, snap.Receipts),
		PaymentTiming:         PaymentTimingByDay(snap.Receipts),
		FeeStructure:          ClassFeeStructure(snap.Classes, snap.Students),
		OrphanedClassLabels:   OrphanedClassLabels(snap.Classes, snap.Students),
		ComputedAt:            now,
	}
}
