package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBalanceOf(t *testing.T) {
	totals := LedgerTotals{
		Disbursed:   dec("20000"),
		Paid:        dec("5000"),
		Fees:        dec("150"),
		Credits:     dec("250"),
		Commissions: dec("1000"),
	}
	assert.True(t, BalanceOf(dec("27000"), totals).Equal(dec("21900")))
}

func TestNextLedgerStatus(t *testing.T) {
	disbursed := LedgerTotals{Disbursed: dec("1000")}
	cases := []struct {
		name    string
		current FundingStatus
		totals  LedgerTotals
		balance string
		want    FundingStatus
	}{
		{"approved without disbursement stays", FundingStatusApproved, LedgerTotals{}, "1300", FundingStatusApproved},
		{"approved with disbursement funds", FundingStatusApproved, disbursed, "1300", FundingStatusFunded},
		{"funded settles at zero", FundingStatusFunded, disbursed, "0", FundingStatusPaidOff},
		{"funded overpaid settles", FundingStatusFunded, disbursed, "-10", FundingStatusPaidOff},
		{"defaulted settles", FundingStatusDefaulted, disbursed, "0", FundingStatusPaidOff},
		{"defaulted with balance stays", FundingStatusDefaulted, disbursed, "5", FundingStatusDefaulted},
		{"paid off reopens", FundingStatusPaidOff, disbursed, "35", FundingStatusFunded},
		{"draft untouched", FundingStatusDraft, disbursed, "0", FundingStatusDraft},
		{"cancelled untouched", FundingStatusCancelled, disbursed, "0", FundingStatusCancelled},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, NextLedgerStatus(c.current, c.totals, dec(c.balance)))
		})
	}
}

func TestComputeSyndicatorShare(t *testing.T) {
	gross, fee, net := ComputeSyndicatorShare(dec("10000"), dec("25"), dec("2"))
	assert.True(t, gross.Equal(dec("2500")), gross.String())
	assert.True(t, fee.Equal(dec("50")), fee.String())
	assert.True(t, net.Equal(dec("2450")), net.String())

	gross, fee, net = ComputeSyndicatorShare(dec("333.33"), dec("33.3333"), decimal.Zero)
	assert.True(t, gross.Equal(dec("111.11")), gross.String())
	assert.True(t, fee.IsZero())
	assert.True(t, net.Equal(gross))
}
