package reports

import (
	"context"
	"sort"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/shopspring/decimal"
)

// participationRow is one active syndication joined with its funding.
type participationRow struct {
	SyndicatorId         int
	SyndicatorName       string
	FundingId            int
	FundingStatus        models.FundingStatus
	ParticipationAmount  decimal.Decimal
	ParticipationPercent decimal.Decimal
	ManagementFeePercent decimal.Decimal
	PaidAmount           decimal.Decimal
}

type SyndicatorReportRow struct {
	SyndicatorId        int             `json:"syndicator_id"`
	SyndicatorName      string          `json:"syndicator_name"`
	FundingCount        int             `json:"funding_count"`
	ParticipationAmount decimal.Decimal `json:"participation_amount"`
	GrossShare          decimal.Decimal `json:"gross_share"`
	ManagementFee       decimal.Decimal `json:"management_fee"`
	NetShare            decimal.Decimal `json:"net_share"`
}

func aggregateSyndicators(rows []participationRow) []*SyndicatorReportRow {
	bySyndicator := make(map[int]*SyndicatorReportRow)
	for _, r := range rows {
		acc, ok := bySyndicator[r.SyndicatorId]
		if !ok {
			acc = &SyndicatorReportRow{SyndicatorId: r.SyndicatorId, SyndicatorName: r.SyndicatorName}
			bySyndicator[r.SyndicatorId] = acc
		}
		gross, fee, net := models.ComputeSyndicatorShare(r.PaidAmount, r.ParticipationPercent, r.ManagementFeePercent)
		acc.FundingCount++
		acc.ParticipationAmount = acc.ParticipationAmount.Add(r.ParticipationAmount)
		acc.GrossShare = acc.GrossShare.Add(gross)
		acc.ManagementFee = acc.ManagementFee.Add(fee)
		acc.NetShare = acc.NetShare.Add(net)
	}
	result := make([]*SyndicatorReportRow, 0, len(bySyndicator))
	for _, r := range bySyndicator {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SyndicatorName == result[j].SyndicatorName {
			return result[i].SyndicatorId < result[j].SyndicatorId
		}
		return result[i].SyndicatorName < result[j].SyndicatorName
	})
	return result
}

type SyndicatorReport struct {
	Syndicators []*SyndicatorReportRow `json:"syndicators"`
}

func GetSyndicatorReport(ctx context.Context) (*SyndicatorReport, error) {
	businessId, err := businessIdOf(ctx)
	if err != nil {
		return nil, err
	}
	return cached(ctx, "syndicators", businessId, func() (*SyndicatorReport, error) {
		sql := `
SELECT
    s.syndicator_id,
    a.name AS syndicator_name,
    s.funding_id,
    f.status AS funding_status,
    s.participation_amount,
    s.participation_percent,
    s.management_fee_percent,
    f.paid_amount
FROM syndications s
    JOIN fundings f ON f.id = s.funding_id AND f.business_id = s.business_id
    LEFT JOIN accounts a ON a.id = s.syndicator_id AND a.business_id = s.business_id
WHERE s.business_id = ? AND s.status = ? AND f.status <> ?
`
		var rows []participationRow
		if err := config.GetDB().WithContext(ctx).
			Raw(sql, businessId, models.SyndicationStatusActive, models.FundingStatusCancelled).
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		return &SyndicatorReport{Syndicators: aggregateSyndicators(rows)}, nil
	})
}
