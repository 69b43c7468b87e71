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

type Commission struct {
	ID                 int              `gorm:"primary_key" json:"id"`
	BusinessId         string           `gorm:"index;not null" json:"business_id"`
	FundingId          int              `gorm:"index;not null" json:"funding_id"`
	CommissionIntentId int              `gorm:"index;default:0" json:"commission_intent_id"`
	IsoId              int              `gorm:"index;not null" json:"iso_id"`
	Amount             decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaidDate           time.Time        `gorm:"not null" json:"paid_date"`
	Status             CommissionStatus `gorm:"type:enum('Paid','ClawedBack');not null;default:'Paid';index" json:"status"`
	ClawbackReason     string           `gorm:"size:255" json:"clawback_reason"`
	CreatedAt          time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Commission) GetBusinessId() string {
	return c.BusinessId
}

func (c Commission) GetId() int {
	return c.ID
}

func (c Commission) GetCursor() string {
	return timeCursor(c.CreatedAt)
}

func ClawbackCommission(ctx context.Context, id int, reason string) (*Commission, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commission, err := utils.FetchModelTx[Commission](tx.Clauses(lockingClause()), businessId, id)
		if err != nil {
			return err
		}
		if commission.Status != CommissionStatusPaid {
			return errors.New("commission is already clawed back")
		}
		oldCommission := *commission
		if err := tx.Model(commission).Updates(map[string]interface{}{
			"Status":         CommissionStatusClawedBack,
			"ClawbackReason": reason,
		}).Error; err != nil {
			return err
		}
		commission.Status = CommissionStatusClawedBack
		commission.ClawbackReason = reason
		return PublishToOutbox(ctx, tx, businessId, commission.PaidDate, id, OutboxReferenceTypeCommission, commission, oldCommission, PubSubMessageActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Commission](ctx, businessId, id)
}

func GetCommission(ctx context.Context, id int) (*Commission, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Commission](ctx, businessId, id)
}

func PaginateCommissions(ctx context.Context, limit *int, after *string, fundingId *int, isoId *int) (*Connection[Commission], error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Model(&Commission{}).Where("business_id = ?", businessId)
	if fundingId != nil && *fundingId > 0 {
		dbCtx = dbCtx.Where("funding_id = ?", *fundingId)
	}
	if isoId != nil && *isoId > 0 {
		dbCtx = dbCtx.Where("iso_id = ?", *isoId)
	}
	return Paginate[Commission](dbCtx, limit, after)
}
