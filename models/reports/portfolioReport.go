package reports

import (
	"context"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/shopspring/decimal"
)

type PortfolioStatusRow struct {
	Status          models.FundingStatus `json:"status"`
	FundingCount    int                  `json:"funding_count"`
	AdvanceAmount   decimal.Decimal      `json:"advance_amount"`
	PaybackAmount   decimal.Decimal      `json:"payback_amount"`
	DisbursedAmount decimal.Decimal      `json:"disbursed_amount"`
	PaidAmount      decimal.Decimal      `json:"paid_amount"`
	FeeAmount       decimal.Decimal      `json:"fee_amount"`
	CreditAmount    decimal.Decimal      `json:"credit_amount"`
	Balance         decimal.Decimal      `json:"balance"`
}

type PortfolioSummary struct {
	Statuses []PortfolioStatusRow `json:"statuses"`
	Total    PortfolioStatusRow   `json:"total"`
	// balance of Funded and Defaulted fundings
	Outstanding decimal.Decimal `json:"outstanding"`
	// paid / payback over fundings that reached Funded
	CollectionRate decimal.Decimal `json:"collection_rate"`
}

func (r *PortfolioStatusRow) add(o PortfolioStatusRow) {
	r.FundingCount += o.FundingCount
	r.AdvanceAmount = r.AdvanceAmount.Add(o.AdvanceAmount)
	r.PaybackAmount = r.PaybackAmount.Add(o.PaybackAmount)
	r.DisbursedAmount = r.DisbursedAmount.Add(o.DisbursedAmount)
	r.PaidAmount = r.PaidAmount.Add(o.PaidAmount)
	r.FeeAmount = r.FeeAmount.Add(o.FeeAmount)
	r.CreditAmount = r.CreditAmount.Add(o.CreditAmount)
	r.Balance = r.Balance.Add(o.Balance)
}

// SummarizePortfolio folds per-status rows into the summary totals.
func SummarizePortfolio(rows []PortfolioStatusRow) *PortfolioSummary {
	summary := PortfolioSummary{Statuses: rows}
	summary.Total.Status = "Total"
	var servicedPayback, servicedPaid decimal.Decimal
	for _, row := range rows {
		summary.Total.add(row)
		switch row.Status {
		case models.FundingStatusFunded, models.FundingStatusDefaulted:
			summary.Outstanding = summary.Outstanding.Add(row.Balance)
			fallthrough
		case models.FundingStatusPaidOff:
			servicedPayback = servicedPayback.Add(row.PaybackAmount)
			servicedPaid = servicedPaid.Add(row.PaidAmount)
		}
	}
	if servicedPayback.IsPositive() {
		summary.CollectionRate = servicedPaid.Div(servicedPayback).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return &summary
}

func GetPortfolioSummary(ctx context.Context) (*PortfolioSummary, error) {
	businessId, err := businessIdOf(ctx)
	if err != nil {
		return nil, err
	}
	return cached(ctx, "portfolio", businessId, func() (*PortfolioSummary, error) {
		sql := `
SELECT
    status,
    COUNT(*) AS funding_count,
    COALESCE(SUM(advance_amount), 0) AS advance_amount,
    COALESCE(SUM(payback_amount), 0) AS payback_amount,
    COALESCE(SUM(disbursed_amount), 0) AS disbursed_amount,
    COALESCE(SUM(paid_amount), 0) AS paid_amount,
    COALESCE(SUM(fee_amount), 0) AS fee_amount,
    COALESCE(SUM(credit_amount), 0) AS credit_amount,
    COALESCE(SUM(balance), 0) AS balance
FROM fundings
WHERE business_id = ?
GROUP BY status
ORDER BY FIELD(status, 'Draft', 'Approved', 'Funded', 'Defaulted', 'PaidOff', 'Cancelled')
`
		var rows []PortfolioStatusRow
		if err := config.GetDB().WithContext(ctx).Raw(sql, businessId).Scan(&rows).Error; err != nil {
			return nil, err
		}
		return SummarizePortfolio(rows), nil
	})
}
