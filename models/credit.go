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

// Credit reduces what the merchant owes: discounts, early payoff and adjustments.
type Credit struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"index;not null" json:"business_id"`
	FundingId  int             `gorm:"index;not null" json:"funding_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreditDate time.Time       `gorm:"not null" json:"credit_date"`
	Reason     CreditReason    `gorm:"type:enum('Discount','EarlyPayoff','Adjustment','Refund','Other');not null;default:'Adjustment'" json:"reason"`
	Notes      string          `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCredit struct {
	FundingId  int          `json:"funding_id" binding:"required"`
	Amount     utils.Money  `json:"amount" binding:"required"`
	CreditDate string       `json:"credit_date"`
	Reason     CreditReason `json:"reason"`
	Notes      string       `json:"notes"`
}

func (c Credit) GetBusinessId() string {
	return c.BusinessId
}

func (c Credit) GetId() int {
	return c.ID
}

func (c Credit) GetCursor() string {
	return timeCursor(c.CreatedAt)
}

func (input *NewCredit) creditDate(ctx context.Context, businessId string) (time.Time, error) {
	if input.Reason == "" {
		input.Reason = CreditReasonAdjustment
	}
	if input.CreditDate == "" {
		return businessDate(ctx, businessId, time.Now().UTC())
	}
	d, err := parseBusinessDate(ctx, businessId, input.CreditDate)
	if err != nil {
		return time.Time{}, errors.New("invalid credit date")
	}
	return d, nil
}

func creditableFunding(funding *Funding) error {
	switch funding.Status {
	case FundingStatusFunded, FundingStatusDefaulted, FundingStatusPaidOff:
		return nil
	}
	return errors.New("credits require a funded funding")
}

func CreateCredit(ctx context.Context, input *NewCredit) (*Credit, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("amount", input.Amount.Decimal); err != nil {
		return nil, err
	}
	creditDate, err := input.creditDate(ctx, businessId)
	if err != nil {
		return nil, err
	}
	var credit Credit
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funding, err := lockFunding(tx, businessId, input.FundingId)
		if err != nil {
			return err
		}
		if err := creditableFunding(funding); err != nil {
			return err
		}
		credit = Credit{
			BusinessId: businessId,
			FundingId:  funding.ID,
			Amount:     input.Amount.Decimal,
			CreditDate: creditDate,
			Reason:     input.Reason,
			Notes:      input.Notes,
		}
		if err := tx.Create(&credit).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, credit.CreditDate, credit.ID, OutboxReferenceTypeCredit, credit, nil, PubSubMessageActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &credit, nil
}

func UpdateCredit(ctx context.Context, id int, input *NewCredit) (*Credit, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	oldCredit, err := utils.FetchModel[Credit](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if input.FundingId != oldCredit.FundingId {
		return nil, errors.New("credit cannot move to another funding")
	}
	if err := requirePositive("amount", input.Amount.Decimal); err != nil {
		return nil, err
	}
	creditDate, err := input.creditDate(ctx, businessId)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockFunding(tx, businessId, oldCredit.FundingId); err != nil {
			return err
		}
		if err := tx.Model(oldCredit).Updates(map[string]interface{}{
			"Amount":     input.Amount.Decimal,
			"CreditDate": creditDate,
			"Reason":     input.Reason,
			"Notes":      input.Notes,
		}).Error; err != nil {
			return err
		}
		var credit Credit
		if err := tx.First(&credit, id).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, credit.CreditDate, id, OutboxReferenceTypeCredit, credit, oldCredit, PubSubMessageActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Credit](ctx, businessId, id)
}

func DeleteCredit(ctx context.Context, id int) (*Credit, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	credit, err := utils.FetchModel[Credit](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(credit).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, credit.CreditDate, id, OutboxReferenceTypeCredit, nil, credit, PubSubMessageActionDelete)
	})
	if err != nil {
		return nil, err
	}
	return credit, nil
}

func GetCredit(ctx context.Context, id int) (*Credit, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Credit](ctx, businessId, id)
}

func PaginateCredits(ctx context.Context, limit *int, after *string, fundingId *int) (*Connection[Credit], error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Model(&Credit{}).Where("business_id = ?", businessId)
	if fundingId != nil && *fundingId > 0 {
		dbCtx = dbCtx.Where("funding_id = ?", *fundingId)
	}
	return Paginate[Credit](dbCtx, limit, after)
}
