package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"

	"github.com/mcaservicing/mca_backend/models"
)

type fundingReader struct {
	db *gorm.DB
}

func (r *fundingReader) getFundings(ctx context.Context, ids []int) []*dataloader.Result[*models.Funding] {
	var results []models.Funding

	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Funding](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetFunding(ctx context.Context, id int) (*models.Funding, error) {
	loaders := For(ctx)
	return loaders.FundingLoader.Load(ctx, id)()
}
