package models

import (
	"context"
	"errors"
	"time"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CommissionIntent struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"index;not null" json:"business_id"`
	FundingId     int             `gorm:"index;not null" json:"funding_id"`
	IsoId         int             `gorm:"index;not null" json:"iso_id"`
	Basis         CommissionBasis `gorm:"type:enum('P','A');not null;default:'P'" json:"basis"`
	Rate          decimal.Decimal `gorm:"type:decimal(7,4);default:0" json:"rate"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	ScheduledDate time.Time       `gorm:"not null" json:"scheduled_date"`
	Status        IntentStatus    `gorm:"type:enum('Pending','Approved','Rejected','Cancelled');not null;default:'Pending';index" json:"status"`
	ApprovedBy    string          `gorm:"size:100" json:"approved_by"`
	ApprovedAt    *time.Time      `json:"approved_at"`
	CommissionId  int             `gorm:"default:0" json:"commission_id"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCommissionIntent struct {
	FundingId     int             `json:"funding_id" binding:"required"`
	IsoId         int             `json:"iso_id"`
	Basis         CommissionBasis `json:"basis"`
	Rate          utils.Money     `json:"rate"`
	Amount        utils.Money     `json:"amount"`
	ScheduledDate string          `json:"scheduled_date"`
	Notes         string          `json:"notes"`
}

func (c CommissionIntent) GetBusinessId() string {
	return c.BusinessId
}

func (c CommissionIntent) GetId() int {
	return c.ID
}

func (c CommissionIntent) GetCursor() string {
	return timeCursor(c.CreatedAt)
}

// CommissionAmount is rate percent of the advance for basis P, the given amount otherwise.
func CommissionAmount(basis CommissionBasis, rate, amount, advance decimal.Decimal) decimal.Decimal {
	if basis == CommissionBasisPercent {
		return utils.RoundMoney(advance.Mul(rate).Div(decimal.NewFromInt(100)))
	}
	return utils.RoundMoney(amount)
}

func commissionableFunding(funding *Funding) error {
	switch funding.Status {
	case FundingStatusDraft, FundingStatusCancelled:
		return errors.New("funding is " + string(funding.Status))
	}
	return nil
}

type resolvedCommission struct {
	isoId     int
	basis     CommissionBasis
	rate      decimal.Decimal
	amount    decimal.Decimal
	scheduled time.Time
}

func (input *NewCommissionIntent) resolve(ctx context.Context, businessId string, funding *Funding) (*resolvedCommission, error) {
	r := resolvedCommission{isoId: input.IsoId, basis: input.Basis}
	if r.isoId <= 0 {
		r.isoId = funding.IsoId
	}
	if r.isoId <= 0 {
		return nil, errors.New("iso is required")
	}
	if err := validateAccountOfType(ctx, businessId, r.isoId, AccountTypeISO); err != nil {
		return nil, err
	}
	if r.basis == "" {
		r.basis = CommissionBasisPercent
	}
	if r.basis == CommissionBasisPercent {
		r.rate = input.Rate.Decimal
		if !r.rate.IsPositive() || r.rate.GreaterThan(decimal.NewFromInt(100)) {
			return nil, errors.New("commission rate must be between 0 and 100")
		}
	}
	r.amount = CommissionAmount(r.basis, r.rate, input.Amount.Decimal, funding.AdvanceAmount)
	if err := requirePositive("commission amount", r.amount); err != nil {
		return nil, err
	}
	if input.ScheduledDate == "" {
		d, err := businessDate(ctx, businessId, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		r.scheduled = d
	} else {
		d, err := parseBusinessDate(ctx, businessId, input.ScheduledDate)
		if err != nil {
			return nil, errors.New("invalid scheduled date")
		}
		r.scheduled = d
	}
	return &r, nil
}

func CreateCommissionIntent(ctx context.Context, input *NewCommissionIntent) (*CommissionIntent, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	funding, err := utils.FetchModel[Funding](ctx, businessId, input.FundingId)
	if err != nil {
		return nil, ErrFundingNotFound
	}
	if err := commissionableFunding(funding); err != nil {
		return nil, err
	}
	r, err := input.resolve(ctx, businessId, funding)
	if err != nil {
		return nil, err
	}
	intent := CommissionIntent{
		BusinessId:    businessId,
		FundingId:     funding.ID,
		IsoId:         r.isoId,
		Basis:         r.basis,
		Rate:          r.rate,
		Amount:        r.amount,
		ScheduledDate: r.scheduled,
		Status:        IntentStatusPending,
		Notes:         input.Notes,
	}
	if err := config.GetDB().WithContext(ctx).Create(&intent).Error; err != nil {
		return nil, err
	}
	return &intent, nil
}

func UpdateCommissionIntent(ctx context.Context, id int, input *NewCommissionIntent) (*CommissionIntent, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	oldIntent, err := utils.FetchModel[CommissionIntent](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if oldIntent.Status != IntentStatusPending {
		return nil, errors.New("only pending intents can be edited")
	}
	if input.FundingId != oldIntent.FundingId {
		return nil, errors.New("intent cannot move to another funding")
	}
	funding, err := utils.FetchModel[Funding](ctx, businessId, oldIntent.FundingId)
	if err != nil {
		return nil, err
	}
	r, err := input.resolve(ctx, businessId, funding)
	if err != nil {
		return nil, err
	}
	if err := config.GetDB().WithContext(ctx).Model(oldIntent).Updates(map[string]interface{}{
		"IsoId":         r.isoId,
		"Basis":         r.basis,
		"Rate":          r.rate,
		"Amount":        r.amount,
		"ScheduledDate": r.scheduled,
		"Notes":         input.Notes,
	}).Error; err != nil {
		return nil, err
	}
	return utils.FetchModel[CommissionIntent](ctx, businessId, id)
}

func lockPendingCommissionIntent(tx *gorm.DB, businessId string, id int) (*CommissionIntent, error) {
	intent, err := utils.FetchModelTx[CommissionIntent](tx.Clauses(lockingClause()), businessId, id)
	if err != nil {
		return nil, err
	}
	if intent.Status != IntentStatusPending {
		return nil, errors.New("intent is " + string(intent.Status))
	}
	return intent, nil
}

// ApproveCommissionIntent pays the commission in the same transaction.
func ApproveCommissionIntent(ctx context.Context, id int) (*CommissionIntent, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	approvedBy, _ := utils.GetUserNameFromContext(ctx)
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		intent, err := lockPendingCommissionIntent(tx, businessId, id)
		if err != nil {
			return err
		}
		funding, err := lockFunding(tx, businessId, intent.FundingId)
		if err != nil {
			return err
		}
		if err := commissionableFunding(funding); err != nil {
			return err
		}
		commission := Commission{
			BusinessId:         businessId,
			FundingId:          funding.ID,
			CommissionIntentId: intent.ID,
			IsoId:              intent.IsoId,
			Amount:             intent.Amount,
			PaidDate:           intent.ScheduledDate,
			Status:             CommissionStatusPaid,
		}
		if err := tx.Create(&commission).Error; err != nil {
			return err
		}
		if err := PublishToOutbox(ctx, tx, businessId, commission.PaidDate, commission.ID, OutboxReferenceTypeCommission, commission, nil, PubSubMessageActionCreate); err != nil {
			return err
		}
		now := time.Now().UTC()
		return tx.Model(intent).Updates(map[string]interface{}{
			"Status":       IntentStatusApproved,
			"ApprovedBy":   approvedBy,
			"ApprovedAt":   &now,
			"CommissionId": commission.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[CommissionIntent](ctx, businessId, id)
}

func closeCommissionIntent(ctx context.Context, id int, status IntentStatus) (*CommissionIntent, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		intent, err := lockPendingCommissionIntent(tx, businessId, id)
		if err != nil {
			return err
		}
		return tx.Model(intent).Updates(map[string]interface{}{"Status": status}).Error
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[CommissionIntent](ctx, businessId, id)
}

func RejectCommissionIntent(ctx context.Context, id int) (*CommissionIntent, error) {
	return closeCommissionIntent(ctx, id, IntentStatusRejected)
}

func CancelCommissionIntent(ctx context.Context, id int) (*CommissionIntent, error) {
	return closeCommissionIntent(ctx, id, IntentStatusCancelled)
}

func GetCommissionIntent(ctx context.Context, id int) (*CommissionIntent, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[CommissionIntent](ctx, businessId, id)
}

func PaginateCommissionIntents(ctx context.Context, limit *int, after *string, filter IntentFilter) (*Connection[CommissionIntent], error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Model(&CommissionIntent{}).Where("business_id = ?", businessId)
	return Paginate[CommissionIntent](filter.apply(dbCtx), limit, after)
}
