package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"schoolfee/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSessionLifecycle(t *testing.T) {
	start := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	restore := fixClock(start)
	defer restore()

	repo := &fakeSessions{}
	uc := NewSessionUseCase(repo, 30*time.Minute, time.Second)
	ctx := context.Background()

	sc, err := uc.StartSession(ctx, 7)
	require.NoError(t, err)
	assert.False(t, sc.Reset)
	assert.Equal(t, "light", sc.Preferences.Theme)
	assert.Equal(t, "/", sc.Data.CurrentPage)

	_, err = uc.UpdatePreferences(ctx, 7, domain.UserPreferences{Theme: "dark"})
	require.NoError(t, err)
	_, err = uc.SetCurrentPage(ctx, 7, "/students")
	require.NoError(t, err)
	_, err = uc.SaveFilters(ctx, 7, "/students", map[string]interface{}{"class": "Morning"})
	require.NoError(t, err)

	// Still inside the timeout: nothing is reset.
	nowFunc = func() time.Time { return start.Add(20 * time.Minute) }
	sc, err = uc.StartSession(ctx, 7)
	require.NoError(t, err)
	assert.False(t, sc.Reset)
	assert.Equal(t, "/students", sc.Data.CurrentPage)

	nowFunc = func() time.Time { return start.Add(2 * time.Hour) }
	sc, err = uc.StartSession(ctx, 7)
	require.NoError(t, err)
	assert.True(t, sc.Reset)
	assert.Equal(t, "/", sc.Data.CurrentPage)
	assert.Empty(t, sc.Data.Filters)
	assert.Equal(t, "dark", sc.Preferences.Theme)
	assert.Equal(t, "en", sc.Preferences.Language)
}

func TestSessionSearchHistory(t *testing.T) {
	restore := fixClock(time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC))
	defer restore()

	uc := NewSessionUseCase(&fakeSessions{}, time.Hour, time.Second)
	ctx := context.Background()

	var sc *domain.SessionContext
	var err error
	for i := 0; i < 12; i++ {
		sc, err = uc.AddSearch(ctx, 1, fmt.Sprintf("term-%d", i))
		require.NoError(t, err)
	}
	require.Len(t, sc.Data.SearchHistory, 10)
	assert.Equal(t, "term-11", sc.Data.SearchHistory[0])
	assert.Equal(t, "term-2", sc.Data.SearchHistory[9])

	sc, err = uc.AddSearch(ctx, 1, "term-5")
	require.NoError(t, err)
	assert.Len(t, sc.Data.SearchHistory, 10)
	assert.Equal(t, "term-5", sc.Data.SearchHistory[0])
	assert.Equal(t, "term-11", sc.Data.SearchHistory[1])

	sc, err = uc.ClearSession(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, sc.Data.SearchHistory)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &fakeUsers{users: map[string]domain.User{
		"admin": {UserID: 1, Username: "admin", Name: "Admin", Password: string(hash), Role: "admin"},
	}}
	sign := func(userID int, username, role string) (string, error) {
		return fmt.Sprintf("%d:%s:%s", userID, username, role), nil
	}
	uc := NewAuthUseCase(users, sign, time.Second)
	ctx := context.Background()

	res, err := uc.Login(ctx, &domain.LoginRequest{Username: " admin ", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "1:admin:admin", res.Token)
	assert.Equal(t, "admin", res.Role)

	_, err = uc.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = uc.Login(ctx, &domain.LoginRequest{Username: "ghost", Password: "s3cret"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = uc.Login(ctx, &domain.LoginRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
