package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"

	"github.com/mcaservicing/mca_backend/models"
)

type accountReader struct {
	db *gorm.DB
}

func (r *accountReader) getAccounts(ctx context.Context, ids []int) []*dataloader.Result[*models.Account] {
	var results []models.Account

	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Account](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetAccount(ctx context.Context, id int) (*models.Account, error) {
	loaders := For(ctx)
	return loaders.AccountLoader.Load(ctx, id)()
}

func GetAccounts(ctx context.Context, ids []int) ([]*models.Account, []error) {
	loaders := For(ctx)
	return loaders.AccountLoader.LoadMany(ctx, ids)()
}

type addressReader struct {
	db *gorm.DB
}

func (r *addressReader) getAddresses(ctx context.Context, accountIds []int) []*dataloader.Result[[]*models.Address] {
	var results []models.Address

	err := r.db.WithContext(ctx).Where("account_id IN ?", accountIds).Order("is_primary DESC, id").Find(&results).Error
	if err != nil {
		return handleError[[]*models.Address](len(accountIds), err)
	}
	return generateLoaderArrayResults(results, accountIds)
}

func GetAccountAddresses(ctx context.Context, accountId int) ([]*models.Address, error) {
	loaders := For(ctx)
	return loaders.addressLoader.Load(ctx, accountId)()
}
