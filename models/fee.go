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

type Fee struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"index;not null" json:"business_id"`
	FundingId   int             `gorm:"index;not null" json:"funding_id"`
	FeeType     FeeType         `gorm:"type:enum('Origination','NSF','Late','Wire','Default','Other');not null" json:"fee_type"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	FeeDate     time.Time       `gorm:"not null" json:"fee_date"`
	Description string          `gorm:"size:255" json:"description"`
	IsWaived    *bool           `gorm:"not null;default:false" json:"is_waived"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFee struct {
	FundingId   int         `json:"funding_id" binding:"required"`
	FeeType     FeeType     `json:"fee_type" binding:"required"`
	Amount      utils.Money `json:"amount" binding:"required"`
	FeeDate     string      `json:"fee_date"`
	Description string      `json:"description" binding:"max=255"`
	IsWaived    bool        `json:"is_waived"`
}

func (f Fee) GetBusinessId() string {
	return f.BusinessId
}

func (f Fee) GetId() int {
	return f.ID
}

func (f Fee) GetCursor() string {
	return timeCursor(f.CreatedAt)
}

func (input *NewFee) feeDate(ctx context.Context, businessId string) (time.Time, error) {
	if input.FeeDate == "" {
		return businessDate(ctx, businessId, time.Now().UTC())
	}
	d, err := parseBusinessDate(ctx, businessId, input.FeeDate)
	if err != nil {
		return time.Time{}, errors.New("invalid fee date")
	}
	return d, nil
}

func CreateFee(ctx context.Context, input *NewFee) (*Fee, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("amount", input.Amount.Decimal); err != nil {
		return nil, err
	}
	feeDate, err := input.feeDate(ctx, businessId)
	if err != nil {
		return nil, err
	}
	var fee Fee
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funding, err := lockFunding(tx, businessId, input.FundingId)
		if err != nil {
			return err
		}
		if funding.Status == FundingStatusCancelled {
			return errors.New("funding is Cancelled")
		}
		isWaived := input.IsWaived
		fee = Fee{
			BusinessId:  businessId,
			FundingId:   funding.ID,
			FeeType:     input.FeeType,
			Amount:      input.Amount.Decimal,
			FeeDate:     feeDate,
			Description: input.Description,
			IsWaived:    &isWaived,
		}
		if err := tx.Create(&fee).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, fee.FeeDate, fee.ID, OutboxReferenceTypeFee, fee, nil, PubSubMessageActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func UpdateFee(ctx context.Context, id int, input *NewFee) (*Fee, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	oldFee, err := utils.FetchModel[Fee](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if input.FundingId != oldFee.FundingId {
		return nil, errors.New("fee cannot move to another funding")
	}
	if err := requirePositive("amount", input.Amount.Decimal); err != nil {
		return nil, err
	}
	feeDate, err := input.feeDate(ctx, businessId)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockFunding(tx, businessId, oldFee.FundingId); err != nil {
			return err
		}
		if err := tx.Model(oldFee).Updates(map[string]interface{}{
			"FeeType":     input.FeeType,
			"Amount":      input.Amount.Decimal,
			"FeeDate":     feeDate,
			"Description": input.Description,
			"IsWaived":    input.IsWaived,
		}).Error; err != nil {
			return err
		}
		var fee Fee
		if err := tx.First(&fee, id).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, fee.FeeDate, id, OutboxReferenceTypeFee, fee, oldFee, PubSubMessageActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Fee](ctx, businessId, id)
}

func DeleteFee(ctx context.Context, id int) (*Fee, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	fee, err := utils.FetchModel[Fee](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(fee).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, fee.FeeDate, id, OutboxReferenceTypeFee, nil, fee, PubSubMessageActionDelete)
	})
	if err != nil {
		return nil, err
	}
	return fee, nil
}

func GetFee(ctx context.Context, id int) (*Fee, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Fee](ctx, businessId, id)
}

func PaginateFees(ctx context.Context, limit *int, after *string, fundingId *int, feeType *FeeType) (*Connection[Fee], error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Model(&Fee{}).Where("business_id = ?", businessId)
	if fundingId != nil && *fundingId > 0 {
		dbCtx = dbCtx.Where("funding_id = ?", *fundingId)
	}
	if feeType != nil && *feeType != "" {
		dbCtx = dbCtx.Where("fee_type = ?", *feeType)
	}
	return Paginate[Fee](dbCtx, limit, after)
}
