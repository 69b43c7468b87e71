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

type Syndication struct {
	ID                   int               `gorm:"primary_key" json:"id"`
	BusinessId           string            `gorm:"index;not null;index:uniq_syndication,unique,priority:1" json:"business_id"`
	FundingId            int               `gorm:"not null;index:uniq_syndication,unique,priority:2" json:"funding_id"`
	SyndicatorId         int               `gorm:"not null;index;index:uniq_syndication,unique,priority:3" json:"syndicator_id"`
	ParticipationAmount  decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"participation_amount"`
	ParticipationPercent decimal.Decimal   `gorm:"type:decimal(9,4);not null" json:"participation_percent"`
	ManagementFeePercent decimal.Decimal   `gorm:"type:decimal(7,4);default:0" json:"management_fee_percent"`
	Status               SyndicationStatus `gorm:"type:enum('Active','Withdrawn');not null;default:'Active'" json:"status"`
	Notes                string            `gorm:"type:text" json:"notes"`
	CreatedAt            time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSyndication struct {
	FundingId            int               `json:"funding_id" binding:"required"`
	SyndicatorId         int               `json:"syndicator_id" binding:"required"`
	ParticipationAmount  utils.Money       `json:"participation_amount" binding:"required"`
	ManagementFeePercent utils.Money       `json:"management_fee_percent"`
	Status               SyndicationStatus `json:"status"`
	Notes                string            `json:"notes"`
}

func (s Syndication) GetBusinessId() string {
	return s.BusinessId
}

func (s Syndication) GetId() int {
	return s.ID
}

func (s Syndication) GetCursor() string {
	return timeCursor(s.CreatedAt)
}

// ParticipationPercent is amount / advance × 100 at four decimal places.
func ParticipationPercent(amount, advance decimal.Decimal) decimal.Decimal {
	if !advance.IsPositive() {
		return decimal.Zero
	}
	return amount.Div(advance).Mul(decimal.NewFromInt(100)).Round(4)
}

// CheckParticipationCapacity keeps the active participations within the advance.
func CheckParticipationCapacity(advance, otherActive, amount decimal.Decimal) error {
	if otherActive.Add(amount).GreaterThan(advance) {
		return errors.New("participation exceeds advance amount")
	}
	return nil
}

func activeParticipation(tx *gorm.DB, businessId string, fundingId int, exceptId int) (decimal.Decimal, error) {
	var row sumRow
	err := tx.Model(&Syndication{}).
		Select("COALESCE(SUM(participation_amount), 0) AS total").
		Where("business_id = ? AND funding_id = ? AND status = ? AND NOT id = ?", businessId, fundingId, SyndicationStatusActive, exceptId).
		Scan(&row).Error
	return row.Total, err
}

func (input *NewSyndication) validate(ctx context.Context, businessId string) error {
	if err := validateAccountOfType(ctx, businessId, input.SyndicatorId, AccountTypeSyndicator); err != nil {
		return err
	}
	if err := requirePositive("participation amount", input.ParticipationAmount.Decimal); err != nil {
		return err
	}
	fee := input.ManagementFeePercent.Decimal
	if fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("management fee percent must be between 0 and 100")
	}
	if input.Status == "" {
		input.Status = SyndicationStatusActive
	}
	return nil
}

func CreateSyndication(ctx context.Context, input *NewSyndication) (*Syndication, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}
	count, err := utils.ResourceCountWhere[Syndication](ctx, businessId, "funding_id = ? AND syndicator_id = ?", input.FundingId, input.SyndicatorId)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("syndicator already participates in this funding")
	}

	var syndication Syndication
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funding, err := lockFunding(tx, businessId, input.FundingId)
		if err != nil {
			return err
		}
		if funding.Status == FundingStatusCancelled {
			return errors.New("funding is Cancelled")
		}
		if input.Status == SyndicationStatusActive {
			other, err := activeParticipation(tx, businessId, funding.ID, 0)
			if err != nil {
				return err
			}
			if err := CheckParticipationCapacity(funding.AdvanceAmount, other, input.ParticipationAmount.Decimal); err != nil {
				return err
			}
		}
		syndication = Syndication{
			BusinessId:           businessId,
			FundingId:            funding.ID,
			SyndicatorId:         input.SyndicatorId,
			ParticipationAmount:  input.ParticipationAmount.Decimal,
			ParticipationPercent: ParticipationPercent(input.ParticipationAmount.Decimal, funding.AdvanceAmount),
			ManagementFeePercent: input.ManagementFeePercent.Decimal,
			Status:               input.Status,
			Notes:                input.Notes,
		}
		if err := tx.Create(&syndication).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, funding.FundedDate, syndication.ID, OutboxReferenceTypeSyndication, syndication, nil, PubSubMessageActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &syndication, nil
}

func UpdateSyndication(ctx context.Context, id int, input *NewSyndication) (*Syndication, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	oldSyndication, err := utils.FetchModel[Syndication](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if input.FundingId != oldSyndication.FundingId || input.SyndicatorId != oldSyndication.SyndicatorId {
		return nil, errors.New("funding and syndicator cannot be changed")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funding, err := lockFunding(tx, businessId, oldSyndication.FundingId)
		if err != nil {
			return err
		}
		if input.Status == SyndicationStatusActive {
			other, err := activeParticipation(tx, businessId, funding.ID, id)
			if err != nil {
				return err
			}
			if err := CheckParticipationCapacity(funding.AdvanceAmount, other, input.ParticipationAmount.Decimal); err != nil {
				return err
			}
		}
		if err := tx.Model(oldSyndication).Updates(map[string]interface{}{
			"ParticipationAmount":  input.ParticipationAmount.Decimal,
			"ParticipationPercent": ParticipationPercent(input.ParticipationAmount.Decimal, funding.AdvanceAmount),
			"ManagementFeePercent": input.ManagementFeePercent.Decimal,
			"Status":               input.Status,
			"Notes":                input.Notes,
		}).Error; err != nil {
			return err
		}
		var syndication Syndication
		if err := tx.First(&syndication, id).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, funding.FundedDate, id, OutboxReferenceTypeSyndication, syndication, oldSyndication, PubSubMessageActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Syndication](ctx, businessId, id)
}

func DeleteSyndication(ctx context.Context, id int) (*Syndication, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	syndication, err := utils.FetchModel[Syndication](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(syndication).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, syndication.CreatedAt, id, OutboxReferenceTypeSyndication, nil, syndication, PubSubMessageActionDelete)
	})
	if err != nil {
		return nil, err
	}
	return syndication, nil
}

// rescaleParticipation keeps percents in step with a changed advance.
func rescaleParticipation(tx *gorm.DB, businessId string, fundingId int, advance decimal.Decimal) error {
	var rows []Syndication
	if err := tx.Where("business_id = ? AND funding_id = ?", businessId, fundingId).Find(&rows).Error; err != nil {
		return err
	}
	for _, s := range rows {
		if err := tx.Model(&Syndication{}).Where("id = ?", s.ID).
			UpdateColumn("participation_percent", ParticipationPercent(s.ParticipationAmount, advance)).Error; err != nil {
			return err
		}
	}
	return nil
}

func GetSyndication(ctx context.Context, id int) (*Syndication, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Syndication](ctx, businessId, id)
}

func PaginateSyndications(ctx context.Context, limit *int, after *string, fundingId *int, syndicatorId *int) (*Connection[Syndication], error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Model(&Syndication{}).Where("business_id = ?", businessId)
	if fundingId != nil && *fundingId > 0 {
		dbCtx = dbCtx.Where("funding_id = ?", *fundingId)
	}
	if syndicatorId != nil && *syndicatorId > 0 {
		dbCtx = dbCtx.Where("syndicator_id = ?", *syndicatorId)
	}
	return Paginate[Syndication](dbCtx, limit, after)
}
