package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mcaservicing/mca_backend/models"
	"gorm.io/gorm"
)

type documentReader struct {
	db            *gorm.DB
	referenceType models.DocumentReferenceType
}

func (r *documentReader) GetDocuments(ctx context.Context, referenceIds []int) []*dataloader.Result[[]*models.Document] {
	var results []models.Document
	err := r.db.WithContext(ctx).Where("reference_type = ? AND reference_id IN ?", r.referenceType, referenceIds).Find(&results).Error
	if err != nil {
		return handleError[[]*models.Document](len(referenceIds), err)
	}
	return generateLoaderArrayResults(results, referenceIds)
}

func GetFundingDocuments(ctx context.Context, fundingId int) ([]*models.Document, error) {
	loaders := For(ctx)
	return loaders.fundingDocumentLoader.Load(ctx, fundingId)()
}

func GetAccountDocuments(ctx context.Context, accountId int) ([]*models.Document, error) {
	loaders := For(ctx)
	return loaders.accountDocumentLoader.Load(ctx, accountId)()
}
