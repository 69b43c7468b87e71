package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/utils"
)

type Business struct {
	ID          uuid.UUID `gorm:"type:char(36);primary_key" json:"id"`
	Name        string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Email       string    `gorm:"size:255" json:"email"`
	Phone       string    `gorm:"size:20" json:"phone"`
	Timezone    string    `gorm:"size:50;not null;default:'America/New_York'" json:"timezone"`
	CountryCode string    `gorm:"size:2;not null;default:'US'" json:"country_code"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone"`
	Timezone    string `json:"timezone"`
	CountryCode string `json:"country_code"`
	// owner login
	OwnerUsername string `json:"owner_username"`
	OwnerPassword string `json:"owner_password"`
}

func (business *Business) StoreRedis() error {
	return config.SetRedisObject("Business:"+business.ID.String(), business, utils.GetCacheLifespan())
}

func (business *Business) RemoveRedis() error {
	return config.RemoveRedisKey("Business:" + business.ID.String())
}

func (input *NewBusiness) validate(ctx context.Context, id string) error {
	if err := utils.ValidateUnique[Business](ctx, "", "name", input.Name, id); err != nil {
		return err
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email address")
	}
	if input.Timezone != "" {
		if _, err := time.LoadLocation(input.Timezone); err != nil {
			return errors.New("invalid timezone")
		}
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, countryCodeOrDefault(input.CountryCode)); err != nil {
			return err
		}
	}
	return nil
}

func countryCodeOrDefault(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return utils.CountryCode
	}
	return code
}

// CreateBusiness creates the tenant and, when credentials are given, its owner user.
func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {
	if err := input.validate(ctx, ""); err != nil {
		return nil, err
	}
	timezone := input.Timezone
	if timezone == "" {
		timezone = utils.DefaultTimezone
	}

	business := Business{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.ToLower(input.Email),
		Phone:       input.Phone,
		Timezone:    timezone,
		CountryCode: countryCodeOrDefault(input.CountryCode),
		IsActive:    utils.NewTrue(),
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&business).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if input.OwnerUsername != "" {
		hashedPassword, err := utils.HashPassword(input.OwnerPassword)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		owner := User{
			BusinessId: business.ID.String(),
			Username:   strings.TrimSpace(input.OwnerUsername),
			Name:       business.Name,
			Email:      utils.NilIfEmpty(business.Email),
			Password:   string(hashedPassword),
			IsActive:   utils.NewTrue(),
			Role:       UserRoleOwner,
		}
		if err := tx.WithContext(ctx).Create(&owner).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func UpdateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var business Business
	if err := db.WithContext(ctx).Where("id = ?", businessId).First(&business).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	updates := map[string]interface{}{
		"Name":        strings.TrimSpace(input.Name),
		"Email":       strings.ToLower(input.Email),
		"Phone":       input.Phone,
		"CountryCode": countryCodeOrDefault(input.CountryCode),
	}
	// the timezone defines every stored calendar date, it only changes while the book is empty
	if input.Timezone != "" && input.Timezone != business.Timezone {
		var count int64
		if err := db.WithContext(ctx).Model(&Funding{}).Where("business_id = ?", businessId).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("not allowed to change timezone when fundings exist")
		}
		updates["Timezone"] = input.Timezone
	}
	if err := db.WithContext(ctx).Model(&business).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := business.RemoveRedis(); err != nil {
		return nil, err
	}
	return &business, nil
}

func GetBusinessById(ctx context.Context, id string) (*Business, error) {

	var result Business

	exists, err := config.GetRedisObject("Business:"+id, &result)
	if err != nil {
		return nil, err
	}

	if !exists {
		db := config.GetDB()
		err := db.WithContext(ctx).Where("id = ?", id).First(&result).Error
		if err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		if err := result.StoreRedis(); err != nil {
			return nil, err
		}
	}
	return &result, nil
}

func GetBusiness(ctx context.Context) (*Business, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return GetBusinessById(ctx, businessId)
}

// ListActiveBusinessIds is used by maintenance tools that sweep every tenant.
func ListActiveBusinessIds(ctx context.Context) ([]string, error) {
	var ids []string
	err := config.GetDB().WithContext(ctx).Model(&Business{}).
		Where("is_active = ?", true).
		Order("created_at").
		Pluck("id", &ids).Error
	return ids, err
}
