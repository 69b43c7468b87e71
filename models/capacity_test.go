package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckPaybackAmount(t *testing.T) {
	assert.NoError(t, CheckPaybackAmount(dec("100"), dec("100"), false))
	assert.EqualError(t, CheckPaybackAmount(dec("100.01"), dec("100"), false), "payback exceeds outstanding balance")
	assert.NoError(t, CheckPaybackAmount(dec("500"), dec("100"), true))
}

func TestCheckDisbursementCapacity(t *testing.T) {
	assert.NoError(t, CheckDisbursementCapacity(dec("20000"), dec("15000"), dec("5000")))
	assert.EqualError(t, CheckDisbursementCapacity(dec("20000"), dec("15000"), dec("5000.01")), "disbursement exceeds advance amount")
}

func TestCommissionAmount(t *testing.T) {
	assert.True(t, CommissionAmount(CommissionBasisPercent, dec("10"), decimal.Zero, dec("20000")).Equal(dec("2000")))
	assert.True(t, CommissionAmount(CommissionBasisPercent, dec("3.333"), decimal.Zero, dec("1000")).Equal(dec("33.33")))
	assert.True(t, CommissionAmount(CommissionBasisAmount, decimal.Zero, dec("750.255"), dec("20000")).Equal(dec("750.26")))
}

func TestParticipationPercent(t *testing.T) {
	assert.True(t, ParticipationPercent(dec("5000"), dec("20000")).Equal(dec("25")))
	assert.True(t, ParticipationPercent(dec("1"), dec("3")).Equal(dec("33.3333")))
	assert.True(t, ParticipationPercent(dec("1"), decimal.Zero).IsZero())
}

func TestCheckParticipationCapacity(t *testing.T) {
	assert.NoError(t, CheckParticipationCapacity(dec("20000"), dec("15000"), dec("5000")))
	assert.EqualError(t, CheckParticipationCapacity(dec("20000"), dec("15000"), dec("6000")), "participation exceeds advance amount")
	assert.Error(t, CheckParticipationCapacity(dec("10000"), dec("12000"), decimal.Zero))
}
