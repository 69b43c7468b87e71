package reports

import (
	"testing"

	"github.com/mcaservicing/mca_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSummarizePortfolio(t *testing.T) {
	summary := SummarizePortfolio([]PortfolioStatusRow{
		{Status: models.FundingStatusDraft, FundingCount: 2, AdvanceAmount: d("5000"), PaybackAmount: d("6500")},
		{Status: models.FundingStatusFunded, FundingCount: 3, AdvanceAmount: d("30000"), PaybackAmount: d("40000"), PaidAmount: d("10000"), Balance: d("30000")},
		{Status: models.FundingStatusDefaulted, FundingCount: 1, AdvanceAmount: d("10000"), PaybackAmount: d("13000"), PaidAmount: d("3000"), Balance: d("10000")},
		{Status: models.FundingStatusPaidOff, FundingCount: 1, AdvanceAmount: d("5000"), PaybackAmount: d("7000"), PaidAmount: d("7000")},
	})
	assert.Equal(t, 7, summary.Total.FundingCount)
	assert.True(t, summary.Total.AdvanceAmount.Equal(d("50000")))
	assert.True(t, summary.Outstanding.Equal(d("40000")), summary.Outstanding.String())
	// 20000 / 60000
	assert.True(t, summary.CollectionRate.Equal(d("33.33")), summary.CollectionRate.String())
}

func TestSummarizePortfolioEmpty(t *testing.T) {
	summary := SummarizePortfolio(nil)
	assert.Zero(t, summary.Total.FundingCount)
	assert.True(t, summary.CollectionRate.IsZero())
}

func TestAggregateSyndicators(t *testing.T) {
	rows := aggregateSyndicators([]participationRow{
		{SyndicatorId: 2, SyndicatorName: "Beta LLC", FundingId: 1, ParticipationAmount: d("5000"), ParticipationPercent: d("25"), ManagementFeePercent: d("2"), PaidAmount: d("10000")},
		{SyndicatorId: 1, SyndicatorName: "Alpha Partners", FundingId: 1, ParticipationAmount: d("2000"), ParticipationPercent: d("10"), PaidAmount: d("10000")},
		{SyndicatorId: 2, SyndicatorName: "Beta LLC", FundingId: 2, ParticipationAmount: d("1000"), ParticipationPercent: d("50"), PaidAmount: d("0")},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "Alpha Partners", rows[0].SyndicatorName)
	assert.True(t, rows[0].NetShare.Equal(d("1000")))

	beta := rows[1]
	assert.Equal(t, 2, beta.FundingCount)
	assert.True(t, beta.ParticipationAmount.Equal(d("6000")))
	assert.True(t, beta.GrossShare.Equal(d("2500")))
	assert.True(t, beta.ManagementFee.Equal(d("50")))
	assert.True(t, beta.NetShare.Equal(d("2450")))
}

func TestWriteExcel(t *testing.T) {
	rows := []ExcelExporter{
		installmentExportRow{Number: 1, DueDate: "2026-01-05", Amount: d("650"), Cumulative: d("650"), Remaining: d("650")},
		installmentExportRow{Number: 2, DueDate: "2026-01-12", Amount: d("650"), Cumulative: d("1300"), Remaining: d("0")},
	}
	buf, err := writeExcel(rows, installmentHeadings...)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, installmentHeadings, got[0])
	assert.Equal(t, []string{"2", "2026-01-12", "650", "1300", "0"}, got[2])
}
