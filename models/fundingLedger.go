package models

import (
	"context"
	"time"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LedgerTotals are the sums behind a funding's derived ledger fields.
type LedgerTotals struct {
	Disbursed       decimal.Decimal
	Paid            decimal.Decimal
	Fees            decimal.Decimal
	Credits         decimal.Decimal
	Commissions     decimal.Decimal
	LastPaybackDate *time.Time
}

// BalanceOf is payback + fees - paid - credits.
func BalanceOf(payback decimal.Decimal, t LedgerTotals) decimal.Decimal {
	return payback.Add(t.Fees).Sub(t.Paid).Sub(t.Credits)
}

// NextLedgerStatus applies the automatic transitions driven by the ledger.
func NextLedgerStatus(current FundingStatus, t LedgerTotals, balance decimal.Decimal) FundingStatus {
	status := current
	if status == FundingStatusApproved && t.Disbursed.IsPositive() {
		status = FundingStatusFunded
	}
	switch status {
	case FundingStatusFunded, FundingStatusDefaulted:
		if !balance.IsPositive() {
			status = FundingStatusPaidOff
		}
	case FundingStatusPaidOff:
		if balance.IsPositive() {
			status = FundingStatusFunded
		}
	}
	return status
}

type sumRow struct {
	Total decimal.Decimal
}

func sumColumn(tx *gorm.DB, model interface{}, where string, args ...interface{}) (decimal.Decimal, error) {
	var row sumRow
	err := tx.Model(model).Select("COALESCE(SUM(amount), 0) AS total").Where(where, args...).Scan(&row).Error
	return row.Total, err
}

func sumLedger(tx *gorm.DB, businessId string, fundingId int) (LedgerTotals, error) {
	var t LedgerTotals
	var err error
	scope := "business_id = ? AND funding_id = ?"
	if t.Disbursed, err = sumColumn(tx, &Disbursement{}, scope+" AND status = ?", businessId, fundingId, DisbursementStatusCompleted); err != nil {
		return t, err
	}
	if t.Paid, err = sumColumn(tx, &Payback{}, scope+" AND status = ?", businessId, fundingId, PaybackStatusSucceeded); err != nil {
		return t, err
	}
	if t.Fees, err = sumColumn(tx, &Fee{}, scope+" AND is_waived = ?", businessId, fundingId, false); err != nil {
		return t, err
	}
	if t.Credits, err = sumColumn(tx, &Credit{}, scope, businessId, fundingId); err != nil {
		return t, err
	}
	if t.Commissions, err = sumColumn(tx, &Commission{}, scope+" AND status = ?", businessId, fundingId, CommissionStatusPaid); err != nil {
		return t, err
	}
	var last Payback
	err = tx.Where(scope+" AND status = ?", businessId, fundingId, PaybackStatusSucceeded).
		Order("payback_date DESC").Limit(1).Find(&last).Error
	if err != nil {
		return t, err
	}
	if last.ID > 0 {
		d := last.PaybackDate
		t.LastPaybackDate = &d
	}
	return t, nil
}

// RecalculateFundingLedger rewrites the derived ledger fields from the posted records.
// Running it twice gives the same result.
func RecalculateFundingLedger(tx *gorm.DB, businessId string, fundingId int) (*Funding, error) {
	funding, err := lockFunding(tx, businessId, fundingId)
	if err != nil {
		return nil, err
	}
	totals, err := sumLedger(tx, businessId, fundingId)
	if err != nil {
		return nil, err
	}
	balance := BalanceOf(funding.PaybackAmount, totals)
	status := NextLedgerStatus(funding.Status, totals, balance)

	if err := tx.Model(&Funding{}).Where("id = ?", fundingId).UpdateColumns(map[string]interface{}{
		"disbursed_amount":  totals.Disbursed,
		"paid_amount":       totals.Paid,
		"fee_amount":        totals.Fees,
		"credit_amount":     totals.Credits,
		"commission_amount": totals.Commissions,
		"balance":           balance,
		"last_payback_date": totals.LastPaybackDate,
		"status":            status,
	}).Error; err != nil {
		return nil, err
	}

	if status != funding.Status {
		config.GetLogger().WithFields(logrus.Fields{
			"business_id": businessId,
			"funding_id":  fundingId,
			"from":        funding.Status,
			"to":          status,
		}).Info("funding status changed by ledger")
	}
	if status == FundingStatusPaidOff && funding.Status != FundingStatusPaidOff {
		if err := tx.Model(&PaybackPlan{}).
			Where("business_id = ? AND funding_id = ? AND status = ?", businessId, fundingId, PaybackPlanStatusActive).
			UpdateColumns(map[string]interface{}{"status": PaybackPlanStatusCompleted, "next_payback_date": nil}).Error; err != nil {
			return nil, err
		}
	}

	funding.DisbursedAmount = totals.Disbursed
	funding.PaidAmount = totals.Paid
	funding.FeeAmount = totals.Fees
	funding.CreditAmount = totals.Credits
	funding.CommissionAmount = totals.Commissions
	funding.Balance = balance
	funding.LastPaybackDate = totals.LastPaybackDate
	funding.Status = status
	return funding, nil
}

// ComputeSyndicatorShare returns the syndicator's gross share of collected,
// the management fee on it and the net.
func ComputeSyndicatorShare(collected, participationPercent, managementFeePercent decimal.Decimal) (gross, fee, net decimal.Decimal) {
	hundred := decimal.NewFromInt(100)
	gross = utils.RoundMoney(collected.Mul(participationPercent).Div(hundred))
	fee = utils.RoundMoney(gross.Mul(managementFeePercent).Div(hundred))
	return gross, fee, gross.Sub(fee)
}

const statementPaybackLimit = 20

type StatementPayback struct {
	ID              int             `json:"id" bson:"id"`
	PaybackDate     time.Time       `json:"payback_date" bson:"payback_date"`
	Amount          decimal.Decimal `json:"amount" bson:"amount"`
	Method          PaymentMethod   `json:"method" bson:"method"`
	Status          PaybackStatus   `json:"status" bson:"status"`
	ReferenceNumber string          `json:"reference_number" bson:"reference_number"`
}

type StatementPlan struct {
	ID                int               `json:"id" bson:"id"`
	Frequency         string            `json:"frequency" bson:"frequency"`
	PaydayList        string            `json:"payday_list" bson:"payday_list"`
	PaybackCount      int               `json:"payback_count" bson:"payback_count"`
	InstallmentAmount decimal.Decimal   `json:"installment_amount" bson:"installment_amount"`
	NextPaybackDate   *time.Time        `json:"next_payback_date" bson:"next_payback_date"`
	ScheduledEndDate  *time.Time        `json:"scheduled_end_date" bson:"scheduled_end_date"`
	Status            PaybackPlanStatus `json:"status" bson:"status"`
}

type StatementSyndicator struct {
	SyndicatorId         int             `json:"syndicator_id" bson:"syndicator_id"`
	SyndicatorName       string          `json:"syndicator_name" bson:"syndicator_name"`
	ParticipationAmount  decimal.Decimal `json:"participation_amount" bson:"participation_amount"`
	ParticipationPercent decimal.Decimal `json:"participation_percent" bson:"participation_percent"`
	ManagementFeePercent decimal.Decimal `json:"management_fee_percent" bson:"management_fee_percent"`
	GrossShare           decimal.Decimal `json:"gross_share" bson:"gross_share"`
	ManagementFee        decimal.Decimal `json:"management_fee" bson:"management_fee"`
	NetShare             decimal.Decimal `json:"net_share" bson:"net_share"`
}

// FundingStatement is the read model projected after each posting.
type FundingStatement struct {
	BusinessId       string                `json:"business_id" bson:"business_id"`
	FundingId        int                   `json:"funding_id" bson:"funding_id"`
	FundingNumber    string                `json:"funding_number" bson:"funding_number"`
	MerchantId       int                   `json:"merchant_id" bson:"merchant_id"`
	MerchantName     string                `json:"merchant_name" bson:"merchant_name"`
	Status           FundingStatus         `json:"status" bson:"status"`
	FundedDate       time.Time             `json:"funded_date" bson:"funded_date"`
	AdvanceAmount    decimal.Decimal       `json:"advance_amount" bson:"advance_amount"`
	FactorRate       decimal.Decimal       `json:"factor_rate" bson:"factor_rate"`
	PaybackAmount    decimal.Decimal       `json:"payback_amount" bson:"payback_amount"`
	DisbursedAmount  decimal.Decimal       `json:"disbursed_amount" bson:"disbursed_amount"`
	PaidAmount       decimal.Decimal       `json:"paid_amount" bson:"paid_amount"`
	FeeAmount        decimal.Decimal       `json:"fee_amount" bson:"fee_amount"`
	CreditAmount     decimal.Decimal       `json:"credit_amount" bson:"credit_amount"`
	CommissionAmount decimal.Decimal       `json:"commission_amount" bson:"commission_amount"`
	Balance          decimal.Decimal       `json:"balance" bson:"balance"`
	LastPaybackDate  *time.Time            `json:"last_payback_date" bson:"last_payback_date"`
	ActivePlan       *StatementPlan        `json:"active_plan" bson:"active_plan"`
	RecentPaybacks   []StatementPayback    `json:"recent_paybacks" bson:"recent_paybacks"`
	Syndicators      []StatementSyndicator `json:"syndicators" bson:"syndicators"`
	GeneratedAt      time.Time             `json:"generated_at" bson:"generated_at"`
}

// BuildFundingStatement reads the funding and its records as currently stored.
func BuildFundingStatement(ctx context.Context, businessId string, fundingId int) (*FundingStatement, error) {
	db := config.GetDB().WithContext(ctx)
	funding, err := utils.FetchModelTx[Funding](db, businessId, fundingId)
	if err != nil {
		return nil, err
	}
	statement := FundingStatement{
		BusinessId:       businessId,
		FundingId:        funding.ID,
		FundingNumber:    funding.FundingNumber,
		MerchantId:       funding.MerchantId,
		Status:           funding.Status,
		FundedDate:       funding.FundedDate,
		AdvanceAmount:    funding.AdvanceAmount,
		FactorRate:       funding.FactorRate,
		PaybackAmount:    funding.PaybackAmount,
		DisbursedAmount:  funding.DisbursedAmount,
		PaidAmount:       funding.PaidAmount,
		FeeAmount:        funding.FeeAmount,
		CreditAmount:     funding.CreditAmount,
		CommissionAmount: funding.CommissionAmount,
		Balance:          funding.Balance,
		LastPaybackDate:  funding.LastPaybackDate,
		RecentPaybacks:   []StatementPayback{},
		Syndicators:      []StatementSyndicator{},
		GeneratedAt:      time.Now().UTC(),
	}
	if merchant, err := utils.FetchModelTx[Account](db, businessId, funding.MerchantId); err == nil {
		statement.MerchantName = merchant.Name
	}

	plan, err := activePlan(db, businessId, fundingId)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		statement.ActivePlan = &StatementPlan{
			ID:                plan.ID,
			Frequency:         string(plan.Frequency),
			PaydayList:        plan.PaydayList,
			PaybackCount:      plan.PaybackCount,
			InstallmentAmount: plan.InstallmentAmount,
			NextPaybackDate:   plan.NextPaybackDate,
			ScheduledEndDate:  plan.ScheduledEndDate,
			Status:            plan.Status,
		}
	}

	var paybacks []Payback
	if err := db.Where("business_id = ? AND funding_id = ?", businessId, fundingId).
		Order("payback_date DESC, id DESC").Limit(statementPaybackLimit).
		Find(&paybacks).Error; err != nil {
		return nil, err
	}
	for _, p := range paybacks {
		statement.RecentPaybacks = append(statement.RecentPaybacks, StatementPayback{
			ID:              p.ID,
			PaybackDate:     p.PaybackDate,
			Amount:          p.Amount,
			Method:          p.Method,
			Status:          p.Status,
			ReferenceNumber: p.ReferenceNumber,
		})
	}

	var syndications []Syndication
	if err := db.Where("business_id = ? AND funding_id = ? AND status = ?", businessId, fundingId, SyndicationStatusActive).
		Order("id").Find(&syndications).Error; err != nil {
		return nil, err
	}
	for _, s := range syndications {
		gross, fee, net := ComputeSyndicatorShare(funding.PaidAmount, s.ParticipationPercent, s.ManagementFeePercent)
		row := StatementSyndicator{
			SyndicatorId:         s.SyndicatorId,
			ParticipationAmount:  s.ParticipationAmount,
			ParticipationPercent: s.ParticipationPercent,
			ManagementFeePercent: s.ManagementFeePercent,
			GrossShare:           gross,
			ManagementFee:        fee,
			NetShare:             net,
		}
		if syndicator, err := utils.FetchModelTx[Account](db, businessId, s.SyndicatorId); err == nil {
			row.SyndicatorName = syndicator.Name
		}
		statement.Syndicators = append(statement.Syndicators, row)
	}
	return &statement, nil
}
