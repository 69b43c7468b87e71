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

// BusinessDetail holds underwriting facts about a merchant.
type BusinessDetail struct {
	ID                int             `gorm:"primary_key" json:"id"`
	BusinessId        string          `gorm:"index;not null" json:"business_id"`
	AccountId         int             `gorm:"not null;uniqueIndex" json:"account_id"`
	LegalName         string          `gorm:"size:255" json:"legal_name"`
	DbaName           string          `gorm:"size:255" json:"dba_name"`
	EntityType        EntityType      `gorm:"type:enum('LLC','Corporation','SoleProprietorship','Partnership','Other');default:'Other'" json:"entity_type"`
	Industry          string          `gorm:"size:100" json:"industry"`
	Ein               string          `gorm:"size:20" json:"ein"`
	BusinessStartDate *time.Time      `json:"business_start_date"`
	MonthlyRevenue    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"monthly_revenue"`
	Website           string          `gorm:"size:255" json:"website"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusinessDetail struct {
	LegalName         string          `json:"legal_name"`
	DbaName           string          `json:"dba_name"`
	EntityType        EntityType      `json:"entity_type"`
	Industry          string          `json:"industry"`
	Ein               string          `json:"ein"`
	BusinessStartDate string          `json:"business_start_date"`
	MonthlyRevenue    decimal.Decimal `json:"monthly_revenue"`
	Website           string          `json:"website" binding:"omitempty,url"`
}

func (b BusinessDetail) GetBusinessId() string {
	return b.BusinessId
}

func GetBusinessDetail(ctx context.Context, accountId int) (*BusinessDetail, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var result BusinessDetail
	err = config.GetDB().WithContext(ctx).
		Where("business_id = ? AND account_id = ?", businessId, accountId).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveBusinessDetail creates or replaces the merchant's business detail.
func SaveBusinessDetail(ctx context.Context, accountId int, input *NewBusinessDetail) (*BusinessDetail, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateAccountOfType(ctx, businessId, accountId, AccountTypeMerchant); err != nil {
		return nil, err
	}
	if input.MonthlyRevenue.IsNegative() {
		return nil, errors.New("monthly revenue cannot be negative")
	}
	var startDate *time.Time
	if input.BusinessStartDate != "" {
		d, err := parseBusinessDate(ctx, businessId, input.BusinessStartDate)
		if err != nil {
			return nil, errors.New("invalid business start date")
		}
		startDate = &d
	}
	entityType := input.EntityType
	if entityType == "" {
		entityType = EntityTypeOther
	}

	detail := BusinessDetail{
		BusinessId:        businessId,
		AccountId:         accountId,
		LegalName:         input.LegalName,
		DbaName:           input.DbaName,
		EntityType:        entityType,
		Industry:          input.Industry,
		Ein:               input.Ein,
		BusinessStartDate: startDate,
		MonthlyRevenue:    input.MonthlyRevenue,
		Website:           input.Website,
	}

	db := config.GetDB()
	existing, err := GetBusinessDetail(ctx, accountId)
	switch {
	case err == nil:
		detail.ID = existing.ID
		detail.CreatedAt = existing.CreatedAt
		if err := db.WithContext(ctx).Save(&detail).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, utils.ErrorRecordNotFound):
		if err := db.WithContext(ctx).Create(&detail).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	if err := utils.RemoveRedisItem[Account](accountId); err != nil {
		return nil, err
	}
	return &detail, nil
}
