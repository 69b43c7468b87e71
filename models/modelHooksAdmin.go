package models

import (
	"github.com/mcaservicing/mca_backend/utils"
	"gorm.io/gorm"
)

// written directly: owners are created with their business, where the context carries no tenant yet
func (u *User) AfterCreate(tx *gorm.DB) (err error) {
	if u.BusinessId == "" {
		return nil
	}
	history := History{
		BusinessId:    u.BusinessId,
		ActionType:    "REGISTER",
		ReferenceID:   u.ID,
		ReferenceType: "users",
		UserId:        u.ID,
		UserName:      u.Name,
		Description:   "created user " + u.Username,
	}
	ctx := tx.Statement.Context
	if userId, ok := userIdFromContext(ctx); ok {
		history.UserId = userId
		history.UserName, _ = utils.GetUserNameFromContext(ctx)
	}
	return tx.Create(&history).Error
}

// password hashes never go into history
func (u *User) BeforeUpdate(tx *gorm.DB) (err error) {
	ctx := tx.Statement.Context
	if _, ok := userIdFromContext(ctx); !ok {
		return nil
	}
	if businessId, ok := utils.GetBusinessIdFromContext(ctx); !ok || businessId != u.BusinessId {
		return nil
	}
	description := "Updated User"
	if tx.Statement.Changed("Password") {
		description = "Changed Password"
	}
	return createHistory(tx, "UPDATE", u.ID, "users", nil, nil, description)
}
