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

type Payback struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id"`
	FundingId       int             `gorm:"index;not null" json:"funding_id"`
	PaybackPlanId   int             `gorm:"index;default:0" json:"payback_plan_id"`
	PaybackDate     time.Time       `gorm:"not null;index" json:"payback_date"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Method          PaymentMethod   `gorm:"type:enum('ACH','Wire','Check','Card','Other');not null;default:'ACH'" json:"method"`
	Status          PaybackStatus   `gorm:"type:enum('Scheduled','Pending','Succeeded','Failed','Returned');not null;default:'Succeeded';index" json:"status"`
	ReferenceNumber string          `gorm:"size:100" json:"reference_number"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPayback struct {
	FundingId       int           `json:"funding_id" binding:"required"`
	PaybackPlanId   int           `json:"payback_plan_id"`
	PaybackDate     string        `json:"payback_date"`
	Amount          utils.Money   `json:"amount" binding:"required"`
	Method          PaymentMethod `json:"method"`
	Status          PaybackStatus `json:"status"`
	ReferenceNumber string        `json:"reference_number" binding:"max=100"`
	Notes           string        `json:"notes"`
}

type PaybackFilter struct {
	FundingId     *int
	PaybackPlanId *int
	Status        *PaybackStatus
	FromDate      *time.Time
	ToDate        *time.Time
}

func (p Payback) GetBusinessId() string {
	return p.BusinessId
}

func (p Payback) GetId() int {
	return p.ID
}

func (p Payback) GetCursor() string {
	return timeCursor(p.CreatedAt)
}

func (input *NewPayback) normalize() {
	if input.Method == "" {
		input.Method = PaymentMethodACH
	}
	if input.Status == "" {
		input.Status = PaybackStatusSucceeded
	}
}

func (input *NewPayback) paybackDate(ctx context.Context, businessId string) (time.Time, error) {
	if input.PaybackDate == "" {
		return businessDate(ctx, businessId, time.Now().UTC())
	}
	d, err := parseBusinessDate(ctx, businessId, input.PaybackDate)
	if err != nil {
		return time.Time{}, errors.New("invalid payback date")
	}
	return d, nil
}

func validatePaybackPlan(tx *gorm.DB, businessId string, fundingId int, planId int) error {
	if planId <= 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&PaybackPlan{}).
		Where("business_id = ? AND id = ? AND funding_id = ?", businessId, planId, fundingId).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errors.New("payback plan not found")
	}
	return nil
}

// CheckPaybackAmount rejects a Succeeded payback larger than the outstanding balance.
func CheckPaybackAmount(amount, outstanding decimal.Decimal, allowOverpayment bool) error {
	if allowOverpayment {
		return nil
	}
	if amount.GreaterThan(outstanding) {
		return errors.New("payback exceeds outstanding balance")
	}
	return nil
}

// outstanding balance computed from posted rows, so it does not wait on the ledger worker
func liveBalance(tx *gorm.DB, businessId string, funding *Funding) (decimal.Decimal, error) {
	totals, err := sumLedger(tx, businessId, funding.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return BalanceOf(funding.PaybackAmount, totals), nil
}

func CreatePayback(ctx context.Context, input *NewPayback) (*Payback, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	input.normalize()
	if err := requirePositive("amount", input.Amount.Decimal); err != nil {
		return nil, err
	}
	paybackDate, err := input.paybackDate(ctx, businessId)
	if err != nil {
		return nil, err
	}

	var payback Payback
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funding, err := lockFunding(tx, businessId, input.FundingId)
		if err != nil {
			return err
		}
		if funding.Status != FundingStatusFunded && funding.Status != FundingStatusDefaulted {
			return errors.New("paybacks require a funded funding")
		}
		if err := validatePaybackPlan(tx, businessId, funding.ID, input.PaybackPlanId); err != nil {
			return err
		}
		if input.Status == PaybackStatusSucceeded {
			outstanding, err := liveBalance(tx, businessId, funding)
			if err != nil {
				return err
			}
			if err := CheckPaybackAmount(input.Amount.Decimal, outstanding, config.AllowPaybackOverpayment()); err != nil {
				return err
			}
		}
		payback = Payback{
			BusinessId:      businessId,
			FundingId:       funding.ID,
			PaybackPlanId:   input.PaybackPlanId,
			PaybackDate:     paybackDate,
			Amount:          input.Amount.Decimal,
			Method:          input.Method,
			Status:          input.Status,
			ReferenceNumber: input.ReferenceNumber,
			Notes:           input.Notes,
		}
		if err := tx.Create(&payback).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, payback.PaybackDate, payback.ID, OutboxReferenceTypePayback, payback, nil, PubSubMessageActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &payback, nil
}

func UpdatePayback(ctx context.Context, id int, input *NewPayback) (*Payback, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	oldPayback, err := utils.FetchModel[Payback](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if input.FundingId != oldPayback.FundingId {
		return nil, errors.New("payback cannot move to another funding")
	}
	input.normalize()
	if err := requirePositive("amount", input.Amount.Decimal); err != nil {
		return nil, err
	}
	paybackDate, err := input.paybackDate(ctx, businessId)
	if err != nil {
		return nil, err
	}

	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funding, err := lockFunding(tx, businessId, oldPayback.FundingId)
		if err != nil {
			return err
		}
		switch funding.Status {
		case FundingStatusFunded, FundingStatusDefaulted, FundingStatusPaidOff:
		default:
			return errors.New("paybacks require a funded funding")
		}
		if err := validatePaybackPlan(tx, businessId, funding.ID, input.PaybackPlanId); err != nil {
			return err
		}
		if input.Status == PaybackStatusSucceeded {
			outstanding, err := liveBalance(tx, businessId, funding)
			if err != nil {
				return err
			}
			if oldPayback.Status == PaybackStatusSucceeded {
				outstanding = outstanding.Add(oldPayback.Amount)
			}
			if err := CheckPaybackAmount(input.Amount.Decimal, outstanding, config.AllowPaybackOverpayment()); err != nil {
				return err
			}
		}
		if err := tx.Model(oldPayback).Updates(map[string]interface{}{
			"PaybackPlanId":   input.PaybackPlanId,
			"PaybackDate":     paybackDate,
			"Amount":          input.Amount.Decimal,
			"Method":          input.Method,
			"Status":          input.Status,
			"ReferenceNumber": input.ReferenceNumber,
			"Notes":           input.Notes,
		}).Error; err != nil {
			return err
		}
		var payback Payback
		if err := tx.First(&payback, id).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, payback.PaybackDate, id, OutboxReferenceTypePayback, payback, oldPayback, PubSubMessageActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Payback](ctx, businessId, id)
}

func DeletePayback(ctx context.Context, id int) (*Payback, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	payback, err := utils.FetchModel[Payback](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockFunding(tx, businessId, payback.FundingId); err != nil {
			return err
		}
		if err := tx.Delete(payback).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, payback.PaybackDate, id, OutboxReferenceTypePayback, nil, payback, PubSubMessageActionDelete)
	})
	if err != nil {
		return nil, err
	}
	return payback, nil
}

func GetPayback(ctx context.Context, id int) (*Payback, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Payback](ctx, businessId, id)
}

func PaginatePaybacks(ctx context.Context, limit *int, after *string, filter PaybackFilter) (*Connection[Payback], error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Model(&Payback{}).Where("business_id = ?", businessId)
	if filter.FundingId != nil && *filter.FundingId > 0 {
		dbCtx = dbCtx.Where("funding_id = ?", *filter.FundingId)
	}
	if filter.PaybackPlanId != nil && *filter.PaybackPlanId > 0 {
		dbCtx = dbCtx.Where("payback_plan_id = ?", *filter.PaybackPlanId)
	}
	if filter.Status != nil && *filter.Status != "" {
		dbCtx = dbCtx.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		dbCtx = dbCtx.Where("payback_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		dbCtx = dbCtx.Where("payback_date <= ?", *filter.ToDate)
	}
	return Paginate[Payback](dbCtx, limit, after)
}
