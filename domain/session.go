package domain

import (
	"context"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const searchHistoryLimit = 10

type UserPreferences struct {
	Theme      string `json:"theme" validate:"omitempty,oneof=light dark system"`
	Language   string `json:"language" validate:"omitempty,min=2,max=5"`
	Currency   string `json:"currency" validate:"omitempty,len=3"`
	DateFormat string `json:"dateFormat"`
	Timezone   string `json:"timezone"`
}

type DashboardSettings struct {
	RefreshInterval   int  `json:"refreshInterval" validate:"min=0"`
	AutoRefresh       bool `json:"autoRefresh"`
	ShowNotifications bool `json:"showNotifications"`
	CompactView       bool `json:"compactView"`
}

type SessionData struct {
	LastActivity    time.Time                         `json:"lastActivity"`
	SearchHistory   []string                          `json:"searchHistory"`
	CurrentPage     string                            `json:"currentPage"`
	Filters         map[string]map[string]interface{} `json:"filters"`
	SortPreferences map[string]map[string]interface{} `json:"sortPreferences"`
}

// UserSession is the persisted row behind a SessionContext.
type UserSession struct {
	UserID      int                                   `gorm:"primaryKey" json:"user_id"`
	Preferences datatypes.JSONType[UserPreferences]   `gorm:"type:jsonb" json:"preferences"`
	Settings    datatypes.JSONType[DashboardSettings] `gorm:"type:jsonb" json:"settings"`
	Data        datatypes.JSONType[SessionData]       `gorm:"type:jsonb" json:"data"`
	UpdatedAt   time.Time                             `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserSession) TableName() string { return "user_sessions" }

func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Theme:      "light",
		Language:   "en",
		Currency:   "PKR",
		DateFormat: "DD/MM/YYYY",
		Timezone:   "Asia/Karachi",
	}
}

func DefaultDashboardSettings() DashboardSettings {
	return DashboardSettings{
		RefreshInterval:   30000,
		AutoRefresh:       true,
		ShowNotifications: true,
		CompactView:       false,
	}
}

func NewSessionData(now time.Time) SessionData {
	return SessionData{
		LastActivity:    now,
		SearchHistory:   []string{},
		CurrentPage:     "/",
		Filters:         map[string]map[string]interface{}{},
		SortPreferences: map[string]map[string]interface{}{},
	}
}

// SessionContext is handed to handlers explicitly; nothing about it is global.
type SessionContext struct {
	UserID      int               `json:"user_id"`
	Preferences UserPreferences   `json:"preferences"`
	Settings    DashboardSettings `json:"settings"`
	Data        SessionData       `json:"data"`
	// Reset is true when StartSession discarded expired session data.
	Reset bool `json:"reset"`
}

func NewSessionContext(userID int, now time.Time) *SessionContext {
	return &SessionContext{
		UserID:      userID,
		Preferences: DefaultPreferences(),
		Settings:    DefaultDashboardSettings(),
		Data:        NewSessionData(now),
	}
}

func SessionContextFrom(row *UserSession) *SessionContext {
	sc := &SessionContext{
		UserID:      row.UserID,
		Preferences: row.Preferences.Data(),
		Settings:    row.Settings.Data(),
		Data:        row.Data.Data(),
	}
	if sc.Data.Filters == nil {
		sc.Data.Filters = map[string]map[string]interface{}{}
	}
	if sc.Data.SortPreferences == nil {
		sc.Data.SortPreferences = map[string]map[string]interface{}{}
	}
	if sc.Data.SearchHistory == nil {
		sc.Data.SearchHistory = []string{}
	}
	return sc
}

func (sc *SessionContext) Row() *UserSession {
	return &UserSession{
		UserID:      sc.UserID,
		Preferences: datatypes.NewJSONType(sc.Preferences),
		Settings:    datatypes.NewJSONType(sc.Settings),
		Data:        datatypes.NewJSONType(sc.Data),
	}
}

func (sc *SessionContext) IsExpired(now time.Time, timeout time.Duration) bool {
	return now.Sub(sc.Data.LastActivity) > timeout
}

func (sc *SessionContext) Touch(now time.Time) {
	sc.Data.LastActivity = now
}

// AddSearch puts term first, drops older duplicates and keeps the newest ten.
func (sc *SessionContext) AddSearch(term string) {
	if strings.TrimSpace(term) == "" {
		return
	}
	history := make([]string, 0, searchHistoryLimit)
	history = append(history, term)
	for _, t := range sc.Data.SearchHistory {
		if t != term {
			history = append(history, t)
		}
		if len(history) == searchHistoryLimit {
			break
		}
	}
	sc.Data.SearchHistory = history
}

func (sc *SessionContext) SetCurrentPage(page string) {
	sc.Data.CurrentPage = page
}

func (sc *SessionContext) SaveFilters(page string, filters map[string]interface{}) {
	sc.Data.Filters[page] = filters
}

func (sc *SessionContext) SaveSort(page string, sort map[string]interface{}) {
	sc.Data.SortPreferences[page] = sort
}

// Clear resets session data only; preferences and settings survive.
func (sc *SessionContext) Clear(now time.Time) {
	sc.Data = NewSessionData(now)
}

type SessionRepo interface {
	GetSession(ctx context.Context, userID int) (*UserSession, error)
	SaveSession(ctx context.Context, payload *UserSession) error
}

type SessionUseCase interface {
	StartSession(ctx context.Context, userID int) (*SessionContext, error)
	UpdatePreferences(ctx context.Context, userID int, prefs UserPreferences) (*SessionContext, error)
	UpdateSettings(ctx context.Context, userID int, settings DashboardSettings) (*SessionContext, error)
	AddSearch(ctx context.Context, userID int, term string) (*SessionContext, error)
	SetCurrentPage(ctx context.Context, userID int, page string) (*SessionContext, error)
	SaveFilters(ctx context.Context, userID int, page string, filters map[string]interface{}) (*SessionContext, error)
	SaveSort(ctx context.Context, userID int, page string, sort map[string]interface{}) (*SessionContext, error)
	ClearSession(ctx context.Context, userID int) (*SessionContext, error)
}
