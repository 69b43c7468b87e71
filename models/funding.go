package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const FundingNumberPrefix = "MCA"

// Funding is the MCA deal: merchant, funder, ISO and the purchased receivables.
// Ledger fields are written only by RecalculateFundingLedger.
type Funding struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null;index:idx_funding_seq,unique,priority:1" json:"business_id"`
	FundingNumber   string          `gorm:"size:30;not null;index" json:"funding_number"`
	SequenceNo      int64           `gorm:"not null;index:idx_funding_seq,unique,priority:2" json:"sequence_no"`
	MerchantId      int             `gorm:"index;not null" json:"merchant_id"`
	FunderId        int             `gorm:"index" json:"funder_id"`
	IsoId           int             `gorm:"index" json:"iso_id"`
	FundedDate      time.Time       `gorm:"not null" json:"funded_date"`
	AdvanceAmount   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"advance_amount"`
	FactorRate      decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"factor_rate"`
	PaybackAmount   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"payback_amount"`
	HoldbackPercent decimal.Decimal `gorm:"type:decimal(7,4);default:0" json:"holdback_percent"`
	Status          FundingStatus   `gorm:"type:enum('Draft','Approved','Funded','PaidOff','Defaulted','Cancelled');not null;default:'Draft';index" json:"status"`
	Notes           string          `gorm:"type:text" json:"notes"`
	// ledger
	DisbursedAmount  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"disbursed_amount"`
	PaidAmount       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"paid_amount"`
	FeeAmount        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"fee_amount"`
	CreditAmount     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"credit_amount"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"commission_amount"`
	Balance          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"balance"`
	LastPaybackDate  *time.Time      `json:"last_payback_date"`
	Documents        []*Document     `gorm:"-" json:"documents,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFunding struct {
	MerchantId      int         `json:"merchant_id" binding:"required"`
	FunderId        int         `json:"funder_id"`
	IsoId           int         `json:"iso_id"`
	FundedDate      string      `json:"funded_date"`
	AdvanceAmount   utils.Money `json:"advance_amount" binding:"required"`
	FactorRate      utils.Money `json:"factor_rate" binding:"required"`
	HoldbackPercent utils.Money `json:"holdback_percent"`
	Notes           string      `json:"notes"`
}

func (f Funding) GetBusinessId() string {
	return f.BusinessId
}

func (f Funding) GetId() int {
	return f.ID
}

func (f Funding) GetCursor() string {
	return timeCursor(f.CreatedAt)
}

// ComputePaybackAmount is advance × factor rounded to cents.
func ComputePaybackAmount(advance, factor decimal.Decimal) decimal.Decimal {
	return utils.RoundMoney(advance.Mul(factor))
}

func (input *NewFunding) validate(ctx context.Context, businessId string) error {
	if err := validateAccountOfType(ctx, businessId, input.MerchantId, AccountTypeMerchant); err != nil {
		return err
	}
	if input.FunderId > 0 {
		if err := validateAccountOfType(ctx, businessId, input.FunderId, AccountTypeFunder); err != nil {
			return err
		}
	}
	if input.IsoId > 0 {
		if err := validateAccountOfType(ctx, businessId, input.IsoId, AccountTypeISO); err != nil {
			return err
		}
	}
	return validateFundingTerms(input.AdvanceAmount.Decimal, input.FactorRate.Decimal, input.HoldbackPercent.Decimal)
}

func validateFundingTerms(advance, factor, holdback decimal.Decimal) error {
	if err := requirePositive("advance amount", advance); err != nil {
		return err
	}
	if factor.LessThan(decimal.NewFromInt(1)) {
		return errors.New("factor rate must be at least 1")
	}
	if holdback.IsNegative() || holdback.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("holdback percent must be between 0 and 100")
	}
	return nil
}

func (input *NewFunding) fundedDate(ctx context.Context, businessId string) (time.Time, error) {
	if input.FundedDate == "" {
		return businessDate(ctx, businessId, time.Now().UTC())
	}
	d, err := parseBusinessDate(ctx, businessId, input.FundedDate)
	if err != nil {
		return time.Time{}, errors.New("invalid funded date")
	}
	return d, nil
}

func CreateFunding(ctx context.Context, input *NewFunding) (*Funding, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}
	fundedDate, err := input.fundedDate(ctx, businessId)
	if err != nil {
		return nil, err
	}

	payback := ComputePaybackAmount(input.AdvanceAmount.Decimal, input.FactorRate.Decimal)
	funding := Funding{
		BusinessId:      businessId,
		MerchantId:      input.MerchantId,
		FunderId:        input.FunderId,
		IsoId:           input.IsoId,
		FundedDate:      fundedDate,
		AdvanceAmount:   input.AdvanceAmount.Decimal,
		FactorRate:      input.FactorRate.Decimal,
		PaybackAmount:   payback,
		HoldbackPercent: input.HoldbackPercent.Decimal,
		Status:          FundingStatusDraft,
		Notes:           input.Notes,
		Balance:         payback,
	}

	// sequence allocation and insert must not interleave across instances
	err = utils.WithBusinessLock(ctx, businessId, "fundingSequence", "models", "CreateFunding", func() error {
		seq, err := utils.GetSequence[Funding](ctx, businessId)
		if err != nil {
			return err
		}
		funding.SequenceNo = seq
		funding.FundingNumber = utils.FormatSequence(FundingNumberPrefix, seq)

		return config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&funding).Error; err != nil {
				return err
			}
			return PublishToOutbox(ctx, tx, businessId, funding.FundedDate, funding.ID, OutboxReferenceTypeFunding, funding, nil, PubSubMessageActionCreate)
		})
	})
	if err != nil {
		return nil, err
	}
	return &funding, nil
}

// termsChanged reports whether the edit touches the financial terms.
func (input *NewFunding) termsChanged(f *Funding) bool {
	return !input.AdvanceAmount.Equal(f.AdvanceAmount) ||
		!input.FactorRate.Equal(f.FactorRate) ||
		!input.HoldbackPercent.Equal(f.HoldbackPercent)
}

func termsLocked(status FundingStatus) bool {
	if status.IsLocked() {
		return true
	}
	return status == FundingStatusApproved && config.StrictFundingTermsLock()
}

func UpdateFunding(ctx context.Context, id int, input *NewFunding) (*Funding, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	oldFunding, err := utils.FetchModel[Funding](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if oldFunding.Status == FundingStatusCancelled {
		return nil, errors.New("cancelled funding cannot be edited")
	}
	if input.termsChanged(oldFunding) && termsLocked(oldFunding.Status) {
		return nil, errors.New("financial terms cannot change once funded")
	}
	if input.MerchantId != oldFunding.MerchantId && oldFunding.Status.IsLocked() {
		return nil, errors.New("merchant cannot change once funded")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}
	fundedDate, err := input.fundedDate(ctx, businessId)
	if err != nil {
		return nil, err
	}

	payback := ComputePaybackAmount(input.AdvanceAmount.Decimal, input.FactorRate.Decimal)
	// the pending intents must still fit in the new advance
	if input.AdvanceAmount.LessThan(oldFunding.AdvanceAmount) {
		committed, err := committedDisbursementAmount(config.GetDB().WithContext(ctx), businessId, id, 0)
		if err != nil {
			return nil, err
		}
		if committed.GreaterThan(input.AdvanceAmount.Decimal) {
			return nil, errors.New("advance amount is less than disbursed and pending amounts")
		}
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !input.AdvanceAmount.Equal(oldFunding.AdvanceAmount) {
			participation, err := activeParticipation(tx, businessId, id, 0)
			if err != nil {
				return err
			}
			if err := CheckParticipationCapacity(input.AdvanceAmount.Decimal, participation, decimal.Zero); err != nil {
				return err
			}
			if err := rescaleParticipation(tx, businessId, id, input.AdvanceAmount.Decimal); err != nil {
				return err
			}
		}
		if err := tx.Model(oldFunding).Updates(map[string]interface{}{
			"MerchantId":      input.MerchantId,
			"FunderId":        input.FunderId,
			"IsoId":           input.IsoId,
			"FundedDate":      fundedDate,
			"AdvanceAmount":   input.AdvanceAmount.Decimal,
			"FactorRate":      input.FactorRate.Decimal,
			"PaybackAmount":   payback,
			"HoldbackPercent": input.HoldbackPercent.Decimal,
			"Notes":           input.Notes,
		}).Error; err != nil {
			return err
		}
		var funding Funding
		if err := tx.First(&funding, id).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, funding.FundedDate, id, OutboxReferenceTypeFunding, funding, oldFunding, PubSubMessageActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return GetFunding(ctx, id)
}

// ValidateFundingTransition checks a manual status change.
// Funded and PaidOff are reached automatically through the ledger.
func ValidateFundingTransition(from, to FundingStatus) error {
	allowed := map[FundingStatus][]FundingStatus{
		FundingStatusDraft:     {FundingStatusApproved, FundingStatusCancelled},
		FundingStatusApproved:  {FundingStatusDraft, FundingStatusCancelled},
		FundingStatusFunded:    {FundingStatusDefaulted},
		FundingStatusDefaulted: {FundingStatusFunded},
	}
	for _, s := range allowed[from] {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("cannot change funding status from %s to %s", from, to)
}

func ChangeFundingStatus(ctx context.Context, id int, status FundingStatus) (*Funding, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funding, err := lockFunding(tx, businessId, id)
		if err != nil {
			return err
		}
		if err := ValidateFundingTransition(funding.Status, status); err != nil {
			return err
		}
		if status == FundingStatusCancelled {
			if err := cancelOpenIntents(tx, businessId, id); err != nil {
				return err
			}
		}
		oldFunding := *funding
		if err := tx.Model(funding).Updates(map[string]interface{}{"Status": status}).Error; err != nil {
			return err
		}
		funding.Status = status
		return PublishToOutbox(ctx, tx, businessId, funding.FundedDate, id, OutboxReferenceTypeFunding, funding, oldFunding, PubSubMessageActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return GetFunding(ctx, id)
}

// cancel pending intents and active plans of a funding being cancelled
func cancelOpenIntents(tx *gorm.DB, businessId string, fundingId int) error {
	if err := tx.Model(&DisbursementIntent{}).
		Where("business_id = ? AND funding_id = ? AND status = ?", businessId, fundingId, IntentStatusPending).
		UpdateColumn("status", IntentStatusCancelled).Error; err != nil {
		return err
	}
	if err := tx.Model(&CommissionIntent{}).
		Where("business_id = ? AND funding_id = ? AND status = ?", businessId, fundingId, IntentStatusPending).
		UpdateColumn("status", IntentStatusCancelled).Error; err != nil {
		return err
	}
	return tx.Model(&PaybackPlan{}).
		Where("business_id = ? AND funding_id = ? AND status IN ?", businessId, fundingId, []PaybackPlanStatus{PaybackPlanStatusActive, PaybackPlanStatusPaused}).
		UpdateColumn("status", PaybackPlanStatusCancelled).Error
}

func DeleteFunding(ctx context.Context, id int) (*Funding, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	result, err := utils.FetchModel[Funding](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if count, err := utils.ResourceCountWhere[Payback](ctx, businessId, "funding_id = ?", id); err != nil {
		return nil, err
	} else if count > 0 {
		return nil, errors.New("funding with paybacks cannot be deleted")
	}
	if count, err := utils.ResourceCountWhere[Disbursement](ctx, businessId, "funding_id = ?", id); err != nil {
		return nil, err
	} else if count > 0 {
		return nil, errors.New("funding with disbursements cannot be deleted")
	}
	if count, err := utils.ResourceCountWhere[Commission](ctx, businessId, "funding_id = ?", id); err != nil {
		return nil, err
	} else if count > 0 {
		return nil, errors.New("funding with commissions cannot be deleted")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&PaybackPlan{}, &DisbursementIntent{}, &CommissionIntent{}, &Fee{}, &Credit{}, &Syndication{},
		} {
			if err := tx.Where("business_id = ? AND funding_id = ?", businessId, id).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("business_id = ? AND reference_type = ? AND reference_id = ?", businessId, DocumentReferenceTypeFunding, id).
			Delete(&Document{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(result).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, result.FundedDate, id, OutboxReferenceTypeFunding, nil, result, PubSubMessageActionDelete)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func GetFunding(ctx context.Context, id int) (*Funding, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Funding](ctx, businessId, id)
}

type FundingFilter struct {
	Status        *FundingStatus
	MerchantId    *int
	FunderId      *int
	IsoId         *int
	FundingNumber *string
	FromDate      *time.Time
	ToDate        *time.Time
}

func (f FundingFilter) apply(dbCtx *gorm.DB) *gorm.DB {
	if f.Status != nil && *f.Status != "" {
		dbCtx = dbCtx.Where("status = ?", *f.Status)
	}
	if f.MerchantId != nil && *f.MerchantId > 0 {
		dbCtx = dbCtx.Where("merchant_id = ?", *f.MerchantId)
	}
	if f.FunderId != nil && *f.FunderId > 0 {
		dbCtx = dbCtx.Where("funder_id = ?", *f.FunderId)
	}
	if f.IsoId != nil && *f.IsoId > 0 {
		dbCtx = dbCtx.Where("iso_id = ?", *f.IsoId)
	}
	if f.FundingNumber != nil && *f.FundingNumber != "" {
		dbCtx = dbCtx.Where("funding_number LIKE ?", "%"+*f.FundingNumber+"%")
	}
	if f.FromDate != nil {
		dbCtx = dbCtx.Where("funded_date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		dbCtx = dbCtx.Where("funded_date <= ?", *f.ToDate)
	}
	return dbCtx
}

func PaginateFundings(ctx context.Context, limit *int, after *string, filter FundingFilter) (*Connection[Funding], error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Model(&Funding{}).Where("business_id = ?", businessId)
	return Paginate[Funding](filter.apply(dbCtx), limit, after)
}

// ListFundings returns every funding matching the filter, oldest first, for exports.
func ListFundings(ctx context.Context, filter FundingFilter) ([]*Funding, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var results []*Funding
	dbCtx := config.GetDB().WithContext(ctx).Model(&Funding{}).Where("business_id = ?", businessId)
	err = filter.apply(dbCtx).Order("sequence_no").Find(&results).Error
	return results, err
}
