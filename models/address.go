package models

import (
	"context"
	"errors"
	"time"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/utils"
	"gorm.io/gorm"
)

type Address struct {
	ID          int         `gorm:"primary_key" json:"id"`
	BusinessId  string      `gorm:"index;not null" json:"business_id"`
	AccountId   int         `gorm:"index;not null" json:"account_id"`
	AddressType AddressType `gorm:"type:enum('Physical','Mailing','Billing');not null;default:'Physical'" json:"address_type"`
	Line1       string      `gorm:"size:255;not null" json:"line1"`
	Line2       string      `gorm:"size:255" json:"line2"`
	City        string      `gorm:"size:100" json:"city"`
	State       string      `gorm:"size:50" json:"state"`
	PostalCode  string      `gorm:"size:20" json:"postal_code"`
	Country     string      `gorm:"size:2;default:'US'" json:"country"`
	IsPrimary   *bool       `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAddress struct {
	AddressType AddressType `json:"address_type"`
	Line1       string      `json:"line1" binding:"required"`
	Line2       string      `json:"line2"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	PostalCode  string      `json:"postal_code"`
	Country     string      `json:"country"`
	IsPrimary   bool        `json:"is_primary"`
}

func (a Address) GetBusinessId() string {
	return a.BusinessId
}

func (a Address) GetId() int {
	return a.ID
}

func (a Address) GetReferenceId() int {
	return a.AccountId
}

// clear the primary flag on the other addresses of the account
func clearPrimaryAddress(tx *gorm.DB, businessId string, accountId int, exceptId int) error {
	return tx.Model(&Address{}).
		Where("business_id = ? AND account_id = ? AND NOT id = ?", businessId, accountId, exceptId).
		UpdateColumn("is_primary", false).Error
}

func (input *NewAddress) normalize() {
	if input.AddressType == "" {
		input.AddressType = AddressTypePhysical
	}
	input.Country = countryCodeOrDefault(input.Country)
}

func CreateAddress(ctx context.Context, accountId int, input *NewAddress) (*Address, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Account](ctx, businessId, accountId); err != nil {
		return nil, errors.New("account not found")
	}
	input.normalize()

	// the first address of an account is primary
	existing, err := utils.ResourceCountWhere[Address](ctx, businessId, "account_id = ?", accountId)
	if err != nil {
		return nil, err
	}
	isPrimary := input.IsPrimary || existing == 0

	address := Address{
		BusinessId:  businessId,
		AccountId:   accountId,
		AddressType: input.AddressType,
		Line1:       input.Line1,
		Line2:       input.Line2,
		City:        input.City,
		State:       input.State,
		PostalCode:  input.PostalCode,
		Country:     input.Country,
		IsPrimary:   &isPrimary,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&address).Error; err != nil {
			return err
		}
		if isPrimary {
			return clearPrimaryAddress(tx, businessId, accountId, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func UpdateAddress(ctx context.Context, id int, input *NewAddress) (*Address, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	address, err := utils.FetchModel[Address](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	input.normalize()

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(address).Updates(map[string]interface{}{
			"AddressType": input.AddressType,
			"Line1":       input.Line1,
			"Line2":       input.Line2,
			"City":        input.City,
			"State":       input.State,
			"PostalCode":  input.PostalCode,
			"Country":     input.Country,
			"IsPrimary":   input.IsPrimary,
		}).Error; err != nil {
			return err
		}
		if input.IsPrimary {
			return clearPrimaryAddress(tx, businessId, address.AccountId, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Address](ctx, businessId, id)
}

func DeleteAddress(ctx context.Context, id int) (*Address, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	address, err := utils.FetchModel[Address](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(address).Error; err != nil {
			return err
		}
		if address.IsPrimary == nil || !*address.IsPrimary {
			return nil
		}
		// promote the oldest remaining address
		var next Address
		err := tx.Where("business_id = ? AND account_id = ?", businessId, address.AccountId).Order("id").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).UpdateColumn("is_primary", true).Error
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func GetAddresses(ctx context.Context, accountId int) ([]*Address, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var results []*Address
	err = config.GetDB().WithContext(ctx).
		Where("business_id = ? AND account_id = ?", businessId, accountId).
		Order("is_primary DESC, id").
		Find(&results).Error
	return results, err
}
