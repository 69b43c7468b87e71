package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/utils"
)

// Account is a counterparty of a funding: merchant, funder, ISO or syndicator.
type Account struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null;index:uniq_account_name,unique,priority:1" json:"business_id"`
	AccountType    AccountType     `gorm:"type:enum('M','F','I','S');not null;index;index:uniq_account_name,unique,priority:2" json:"account_type"`
	Name           string          `gorm:"size:150;not null;index:uniq_account_name,unique,priority:3" json:"name"`
	Email          string          `gorm:"size:255" json:"email"`
	Phone          string          `gorm:"size:20" json:"phone"`
	TaxId          string          `gorm:"size:50" json:"tax_id"`
	Notes          string          `gorm:"type:text" json:"notes"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	Addresses      []Address       `gorm:"foreignKey:AccountId" json:"addresses,omitempty"`
	BusinessDetail *BusinessDetail `gorm:"foreignKey:AccountId" json:"business_detail,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAccount struct {
	AccountType AccountType `json:"account_type" binding:"required"`
	Name        string      `json:"name" binding:"required,max=150"`
	Email       string      `json:"email" binding:"omitempty,email"`
	Phone       string      `json:"phone"`
	TaxId       string      `json:"tax_id"`
	Notes       string      `json:"notes"`
}

func (a Account) GetBusinessId() string {
	return a.BusinessId
}

func (a Account) GetCursor() string {
	return timeCursor(a.CreatedAt)
}

// validate input for both create & update. (id = 0 for create)
func (input *NewAccount) validate(ctx context.Context, businessId string, id int) error {
	if !input.AccountType.IsValid() {
		return errors.New("invalid account type")
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return errors.New("name is required")
	}
	count, err := utils.ResourceCountWhere[Account](ctx, businessId,
		"account_type = ? AND name = ? AND NOT id = ?", input.AccountType, input.Name, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate name")
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email address")
	}
	if input.Phone != "" {
		business, err := GetBusinessById(ctx, businessId)
		if err != nil {
			return err
		}
		phone, err := utils.FormatPhoneNumber(input.Phone, countryCodeOrDefault(business.CountryCode))
		if err != nil {
			return err
		}
		input.Phone = phone
	}
	return nil
}

func CreateAccount(ctx context.Context, input *NewAccount) (*Account, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	account := Account{
		BusinessId:  businessId,
		AccountType: input.AccountType,
		Name:        input.Name,
		Email:       strings.ToLower(input.Email),
		Phone:       input.Phone,
		TaxId:       input.TaxId,
		Notes:       input.Notes,
		IsActive:    utils.NewTrue(),
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	if err := account.RemoveAllRedis(); err != nil {
		return nil, err
	}
	return &account, nil
}

func UpdateAccount(ctx context.Context, id int, input *NewAccount) (*Account, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	oldAccount, err := utils.FetchModel[Account](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	// type is part of every funding reference, it cannot move after creation
	if input.AccountType != oldAccount.AccountType {
		return nil, errors.New("account type cannot be changed")
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(oldAccount).Updates(map[string]interface{}{
		"Name":  input.Name,
		"Email": strings.ToLower(input.Email),
		"Phone": input.Phone,
		"TaxId": input.TaxId,
		"Notes": input.Notes,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*oldAccount); err != nil {
		return nil, err
	}
	return GetAccount(ctx, id)
}

// accountInUse reports the first funding-side record referencing the account.
func accountInUse(ctx context.Context, businessId string, account *Account) (string, error) {
	checks := []struct {
		name  string
		count func() (int64, error)
	}{
		{"funding", func() (int64, error) {
			return utils.ResourceCountWhere[Funding](ctx, businessId, "merchant_id = ? OR funder_id = ? OR iso_id = ?", account.ID, account.ID, account.ID)
		}},
		{"syndication", func() (int64, error) {
			return utils.ResourceCountWhere[Syndication](ctx, businessId, "syndicator_id = ?", account.ID)
		}},
		{"commission intent", func() (int64, error) {
			return utils.ResourceCountWhere[CommissionIntent](ctx, businessId, "iso_id = ?", account.ID)
		}},
		{"disbursement", func() (int64, error) {
			return utils.ResourceCountWhere[Disbursement](ctx, businessId, "payee_account_id = ?", account.ID)
		}},
	}
	for _, c := range checks {
		count, err := c.count()
		if err != nil {
			return "", err
		}
		if count > 0 {
			return c.name, nil
		}
	}
	return "", nil
}

func DeleteAccount(ctx context.Context, id int) (*Account, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	result, err := utils.FetchModel[Account](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	used, err := accountInUse(ctx, businessId, result)
	if err != nil {
		return nil, err
	}
	if used != "" {
		return nil, errors.New("account is used by a " + used)
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("account_id = ?", id).Delete(&Address{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("account_id = ?", id).Delete(&BusinessDetail{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}
	return result, nil
}

func GetAccount(ctx context.Context, id int) (*Account, error) {
	return GetResource[Account](ctx, id)
}

// GetAccountWithDetails loads addresses and the business detail, bypassing the cache.
func GetAccountWithDetails(ctx context.Context, id int) (*Account, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Account](ctx, businessId, id, "Addresses", "BusinessDetail")
}

func MarkAccountActive(ctx context.Context, id int, isActive bool) (*Account, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return ToggleActiveModel[Account](ctx, businessId, id, isActive)
}

func PaginateAccounts(ctx context.Context, limit *int, after *string, accountType *AccountType, name *string, isActive *bool) (*Connection[Account], error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Model(&Account{}).Where("business_id = ?", businessId)
	if accountType != nil && *accountType != "" {
		dbCtx = dbCtx.Where("account_type = ?", *accountType)
	}
	if name != nil && *name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if isActive != nil {
		dbCtx = dbCtx.Where("is_active = ?", *isActive)
	}
	return Paginate[Account](dbCtx, limit, after)
}
