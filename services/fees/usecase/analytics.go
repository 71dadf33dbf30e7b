package usecase

import (
	"context"
	"time"

	"schoolfee/domain"
)

type analyticsUC struct {
	repo    domain.AnalyticsRepo
	remote  domain.RemoteAggregateRepo
	TimeOut time.Duration
}

func NewAnalyticsUseCase(repo domain.AnalyticsRepo, remote domain.RemoteAggregateRepo, timeOut time.Duration) domain.AnalyticsUseCase {
	return &analyticsUC{
		repo:    repo,
		remote:  remote,
		TimeOut: timeOut,
	}
}

func (auc *analyticsUC) GetDashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	ctx, cancel := context.WithTimeout(ctx, auc.TimeOut)
	defer cancel()

	snap, err := auc.repo.GetSnapshot(ctx)
	if err != nil {
		return &domain.DashboardMetrics{}, err
	}
	m := BuildDashboardMetrics(*snap, nowFunc())
	return &m, nil
}

func (auc *analyticsUC) GetAnalyticsReport(ctx context.Context) (*domain.AnalyticsReport, error) {
	ctx, cancel := context.WithTimeout(ctx, auc.TimeOut)
	defer cancel()

	snap, err := auc.repo.GetSnapshot(ctx)
	if err != nil {
		return &domain.AnalyticsReport{}, err
	}
	r := BuildAnalytics(*snap, nowFunc())
	return &r, nil
}

func (auc *analyticsUC) GetFeeStructureAnalytics(ctx context.Context) (*domain.FeeStructureAnalytics, error) {
	ctx, cancel := context.WithTimeout(ctx, auc.TimeOut)
	defer cancel()

	fs, err := withFallback(ctx, "get_fee_structure_analytics",
		func(ctx context.Context) (domain.FeeStructureAnalytics, error) {
			v, err := auc.remote.GetFeeStructureAnalytics(ctx)
			if err != nil {
				return domain.FeeStructureAnalytics{}, err
			}
			return WithDerivedRates(*v), nil
		},
		func(ctx context.Context) (domain.FeeStructureAnalytics, error) {
			snap, err := auc.repo.GetSnapshot(ctx)
			if err != nil {
				return domain.FeeStructureAnalytics{}, err
			}
			return FeeStructureFromSnapshot(*snap), nil
		})
	if err != nil {
		return &domain.FeeStructureAnalytics{}, err
	}
	return &fs, nil
}
