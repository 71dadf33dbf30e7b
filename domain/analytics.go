package domain

import (
	"context"
	"time"
)

// Snapshot is the full set of collections the aggregator folds over.
type Snapshot struct {
	Students []Student
	Receipts []Receipt
	Classes  []Class
}

type DashboardMetrics struct {
	TotalStudents   int       `json:"totalStudents"`
	TotalCollection float64   `json:"totalCollection"`
	TotalDue        float64   `json:"totalDue"`
	TotalReceipts   int       `json:"totalReceipts"`
	MonthlyGrowth   float64   `json:"monthlyGrowth"`
	CollectionRate  float64   `json:"collectionRate"`
	ComputedAt      time.Time `json:"computedAt"`
}

type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type MonthCount struct {
	Month      string `json:"month"`
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
}

type MonthCollection struct {
	Month     string  `json:"month"`
	Collected float64 `json:"collected"`
	Due       float64 `json:"due"`
	Total     float64 `json:"total"`
}

type CoursePerformance struct {
	Course     string  `json:"course"`
	Students   int     `json:"students"`
	Revenue    float64 `json:"revenue"`
	AvgRevenue float64 `json:"avg_revenue"`
}

type PaymentTiming struct {
	Day      int     `json:"day"`
	Payments int     `json:"payments"`
	Amount   float64 `json:"amount"`
}

type ClassFee struct {
	ClassName string  `json:"class_name"`
	Course    string  `json:"course"`
	Fee       float64 `json:"fee"`
	Students  int     `json:"students"`
	Revenue   float64 `json:"revenue"`
}

type FeeStructureAnalytics struct {
	TotalStudents             int     `json:"total_students"`
	StudentsWithDiscounts     int     `json:"students_with_discounts"`
	AverageDiscountPercentage float64 `json:"average_discount_percentage"`
	TotalStandardRevenue      float64 `json:"total_standard_revenue"`
	TotalActualRevenue        float64 `json:"total_actual_revenue"`
	TotalDiscountAmount       float64 `json:"total_discount_amount"`
	DiscountRate              float64 `json:"discount_rate"`
	RevenueImpact             float64 `json:"revenue_impact"`
}

type AnalyticsReport struct {
	TotalStudents         int                 `json:"total_students"`
	TotalReceipts         int                 `json:"total_receipts"`
	TotalCollection       float64             `json:"total_collection"`
	TotalDue              float64             `json:"total_due"`
	TotalExpected         float64             `json:"total_expected"`
	CollectionRate        float64             `json:"collection_rate"`
	StudentGrowth         float64             `json:"student_growth"`
	StudentsWithDues      int                 `json:"students_with_dues"`
	RetentionRate         float64             `json:"retention_rate"`
	AveragePaymentDay     int                 `json:"average_payment_day"`
	RevenuePerStudent     float64             `json:"revenue_per_student"`
	MonthlyEfficiency     float64             `json:"monthly_efficiency"`
	MostPopularClass      string              `json:"most_popular_class"`
	MostPopularCourse     string              `json:"most_popular_course"`
	MostUsedPaymentMethod string              `json:"most_used_payment_method"`
	ClassDistribution     []LabelCount        `json:"class_distribution"`
	CourseDistribution    []LabelCount        `json:"course_distribution"`
	PaymentMethods        []LabelCount        `json:"payment_methods"`
	MonthlyEnrollment     []MonthCount        `json:"monthly_enrollment"`
	MonthlyCollection     []MonthCollection   `json:"monthly_collection"`
	CoursePerformance     []CoursePerformance `json:"course_performance"`
	PaymentTiming         []PaymentTiming     `json:"payment_timing"`
	FeeStructure          []ClassFee          `json:"fee_structure"`
	OrphanedClassLabels   []string            `json:"orphaned_class_labels"`
	ComputedAt            time.Time           `json:"computed_at"`
}

type AnalyticsRepo interface {
	GetSnapshot(ctx context.Context) (*Snapshot, error)
}

type AnalyticsUseCase interface {
	GetDashboardMetrics(ctx context.Context) (*DashboardMetrics, error)
	GetAnalyticsReport(ctx context.Context) (*AnalyticsReport, error)
	GetFeeStructureAnalytics(ctx context.Context) (*FeeStructureAnalytics, error)
}
