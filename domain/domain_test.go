package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRemainingDue(t *testing.T) {
	assert.Equal(t, 2000.0, RemainingDue(10000, 8000))
	assert.Zero(t, RemainingDue(10000, 12000))
	assert.Zero(t, RemainingDue(0, 0))
}

func TestParsePaymentMethod(t *testing.T) {
	for in, want := range map[string]PaymentMethod{
		"cash":           PaymentCash,
		" Bank Transfer": PaymentBankTransfer,
		"bank_transfer":  PaymentBankTransfer,
		"ONLINE":         PaymentOnline,
		"cheque":         PaymentCheque,
	} {
		got, ok := ParsePaymentMethod(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParsePaymentMethod("crypto")
	assert.False(t, ok)
}

func TestNewReceiptNumber(t *testing.T) {
	n := NewReceiptNumber(time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(n, "RCP-20250304-"), n)
	assert.Len(t, n, len("RCP-20250304-")+8)
	assert.NotEqual(t, n, NewReceiptNumber(time.Now()))
}

func TestEffectiveFee(t *testing.T) {
	s := Student{}
	assert.Equal(t, 5000.0, s.EffectiveFee(5000))
	assert.False(t, s.HasNegotiatedFee())

	final := 4200.0
	s.FinalFeeAmount = &final
	assert.Equal(t, 4200.0, s.EffectiveFee(5000))
	assert.True(t, s.HasNegotiatedFee())
}

func TestSessionContext(t *testing.T) {
	now := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	sc := NewSessionContext(5, now)

	sc.AddSearch("   ")
	assert.Empty(t, sc.Data.SearchHistory)

	sc.SaveSort("/receipts", map[string]interface{}{"field": "payment_date", "dir": "desc"})
	sc.Preferences.Theme = "dark"
	assert.False(t, sc.IsExpired(now.Add(time.Hour), 2*time.Hour))
	assert.True(t, sc.IsExpired(now.Add(3*time.Hour), 2*time.Hour))

	sc.Clear(now)
	assert.Empty(t, sc.Data.SortPreferences)
	assert.Equal(t, "dark", sc.Preferences.Theme)

	back := SessionContextFrom(sc.Row())
	assert.Equal(t, sc.Preferences, back.Preferences)
	assert.Equal(t, "/", back.Data.CurrentPage)
}

func TestErrorTaxonomy(t *testing.T) {
	err := errors.Wrap(&StoreError{Op: "list students", Err: errors.New("refused")}, "usecase")
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.False(t, errors.Is(err, ErrNotFound))

	verr := NewValidationError(FieldError{Field: "class", Error: "required"}, FieldError{Field: "course", Error: "required"})
	assert.True(t, errors.Is(verr, ErrValidation))
	assert.Equal(t, "validation failed: class: required; course: required", verr.Error())
}
