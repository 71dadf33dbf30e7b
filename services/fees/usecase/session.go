package usecase

import (
	"context"
	"time"

	"schoolfee/domain"

	"github.com/pkg/errors"
)

type sessionUC struct {
	repo    domain.SessionRepo
	timeout time.Duration
	TimeOut time.Duration
}

// NewSessionUseCase takes the session expiry and the request timeout.
func NewSessionUseCase(repo domain.SessionRepo, sessionTimeout, timeOut time.Duration) domain.SessionUseCase {
	return &sessionUC{
		repo:    repo,
		timeout: sessionTimeout,
		TimeOut: timeOut,
	}
}

func (suc *sessionUC) load(ctx context.Context, userID int) (*domain.SessionContext, error) {
	row, err := suc.repo.GetSession(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewSessionContext(userID, nowFunc()), nil
		}
		return nil, err
	}
	return domain.SessionContextFrom(row), nil
}

func (suc *sessionUC) save(ctx context.Context, sc *domain.SessionContext) (*domain.SessionContext, error) {
	sc.Touch(nowFunc())
	if err := suc.repo.SaveSession(ctx, sc.Row()); err != nil {
		return nil, err
	}
	return sc, nil
}

func (suc *sessionUC) mutate(ctx context.Context, userID int, fn func(*domain.SessionContext)) (*domain.SessionContext, error) {
	ctx, cancel := context.WithTimeout(ctx, suc.TimeOut)
	defer cancel()

	sc, err := suc.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	fn(sc)
	return suc.save(ctx, sc)
}

// StartSession is the only place the expiry check runs. An expired session
// loses its data but keeps preferences and settings.
func (suc *sessionUC) StartSession(ctx context.Context, userID int) (*domain.SessionContext, error) {
	ctx, cancel := context.WithTimeout(ctx, suc.TimeOut)
	defer cancel()

	sc, err := suc.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := nowFunc()
	if sc.IsExpired(now, suc.timeout) {
		sc.Clear(now)
		sc.Reset = true
	}
	return suc.save(ctx, sc)
}

func (suc *sessionUC) UpdatePreferences(ctx context.Context, userID int, prefs domain.UserPreferences) (*domain.SessionContext, error) {
	return suc.mutate(ctx, userID, func(sc *domain.SessionContext) {
		defaults := domain.DefaultPreferences()
		if prefs.Theme == "" {
			prefs.Theme = defaults.Theme
		}
		if prefs.Language == "" {
			prefs.Language = defaults.Language
		}
		if prefs.Currency == "" {
			prefs.Currency = defaults.Currency
		}
		if prefs.DateFormat == "" {
			prefs.DateFormat = defaults.DateFormat
		}
		if prefs.Timezone == "" {
			prefs.Timezone = defaults.Timezone
		}
		sc.Preferences = prefs
	})
}

func (suc *sessionUC) UpdateSettings(ctx context.Context, userID int, settings domain.DashboardSettings) (*domain.SessionContext, error) {
	return suc.mutate(ctx, userID, func(sc *domain.SessionContext) {
		sc.Settings = settings
	})
}

func (suc *sessionUC) AddSearch(ctx context.Context, userID int, term string) (*domain.SessionContext, error) {
	return suc.mutate(ctx, userID, func(sc *domain.SessionContext) {
		sc.AddSearch(term)
	})
}

func (suc *sessionUC) SetCurrentPage(ctx context.Context, userID int, page string) (*domain.SessionContext, error) {
	return suc.mutate(ctx, userID, func(sc *domain.SessionContext) {
		sc.SetCurrentPage(page)
	})
}

func (suc *sessionUC) SaveFilters(ctx context.Context, userID int, page string, filters map[string]interface{}) (*domain.SessionContext, error) {
	return suc.mutate(ctx, userID, func(sc *domain.SessionContext) {
		sc.SaveFilters(page, filters)
	})
}

func (suc *sessionUC) SaveSort(ctx context.Context, userID int, page string, sort map[string]interface{}) (*domain.SessionContext, error) {
	return suc.mutate(ctx, userID, func(sc *domain.SessionContext) {
		sc.SaveSort(page, sort)
	})
}

func (suc *sessionUC) ClearSession(ctx context.Context, userID int) (*domain.SessionContext, error) {
	return suc.mutate(ctx, userID, func(sc *domain.SessionContext) {
		sc.Clear(nowFunc())
	})
}
