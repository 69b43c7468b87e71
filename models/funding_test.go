package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputePaybackAmount(t *testing.T) {
	cases := []struct {
		advance, factor, want string
	}{
		{"20000", "1.35", "27000"},
		{"15000", "1.499", "22485"},
		{"1000.01", "1.3", "1300.01"},
	}
	for _, c := range cases {
		got := ComputePaybackAmount(dec(c.advance), dec(c.factor))
		assert.True(t, got.Equal(dec(c.want)), "ComputePaybackAmount(%s, %s) = %s, want %s", c.advance, c.factor, got, c.want)
	}
}

func TestValidateFundingTerms(t *testing.T) {
	cases := []struct {
		name                      string
		advance, factor, holdback string
		wantErr                   bool
	}{
		{"valid", "20000", "1.35", "12", false},
		{"zero advance", "0", "1.35", "0", true},
		{"factor below one", "20000", "0.9", "0", true},
		{"holdback above 100", "20000", "1.3", "101", true},
		{"negative holdback", "20000", "1.3", "-1", true},
	}
	for _, c := range cases {
		err := validateFundingTerms(dec(c.advance), dec(c.factor), dec(c.holdback))
		if c.wantErr {
			assert.Error(t, err, c.name)
		} else {
			assert.NoError(t, err, c.name)
		}
	}
}

func TestValidateFundingTransition(t *testing.T) {
	cases := []struct {
		from, to FundingStatus
		ok       bool
	}{
		{FundingStatusDraft, FundingStatusApproved, true},
		{FundingStatusDraft, FundingStatusCancelled, true},
		{FundingStatusApproved, FundingStatusDraft, true},
		{FundingStatusApproved, FundingStatusCancelled, true},
		{FundingStatusFunded, FundingStatusDefaulted, true},
		{FundingStatusDefaulted, FundingStatusFunded, true},
		{FundingStatusDraft, FundingStatusFunded, false},
		{FundingStatusApproved, FundingStatusFunded, false},
		{FundingStatusFunded, FundingStatusPaidOff, false},
		{FundingStatusFunded, FundingStatusCancelled, false},
		{FundingStatusPaidOff, FundingStatusFunded, false},
		{FundingStatusCancelled, FundingStatusDraft, false},
	}
	for _, c := range cases {
		err := ValidateFundingTransition(c.from, c.to)
		assert.Equal(t, c.ok, err == nil, "%s -> %s: err = %v", c.from, c.to, err)
	}
}

func TestTermsLocked(t *testing.T) {
	t.Setenv("STRICT_FUNDING_TERMS_LOCK", "")
	for _, s := range []FundingStatus{FundingStatusFunded, FundingStatusPaidOff, FundingStatusDefaulted} {
		assert.True(t, termsLocked(s), "%s should lock terms", s)
	}
	assert.False(t, termsLocked(FundingStatusApproved), "approved should not lock terms without the flag")
	t.Setenv("STRICT_FUNDING_TERMS_LOCK", "true")
	assert.True(t, termsLocked(FundingStatusApproved), "approved should lock terms with the flag")
	assert.False(t, termsLocked(FundingStatusDraft), "draft never locks terms")
}
