package utils

import (
	"context"
	"errors"

	"github.com/mcaservicing/mca_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db, scoped to businessId
// (may return RecordNotFound)
func FetchModel[T any](ctx context.Context, businessId string, id int, associations ...string) (*T, error) {
	return FetchModelTx[T](config.GetDB().WithContext(ctx), businessId, id, associations...)
}

// FetchModelTx is FetchModel inside an existing transaction.
func FetchModelTx[T any](tx *gorm.DB, businessId string, id int, associations ...string) (*T, error) {
	dbCtx := tx.Where("business_id = ?", businessId)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// FetchModelsByIds loads rows with id IN ids, scoped to businessId. Order is not guaranteed.
func FetchModelsByIds[T any](ctx context.Context, businessId string, ids []int) ([]*T, error) {
	var results []*T
	if len(ids) == 0 {
		return results, nil
	}
	err := config.GetDB().WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessId, UniqueSlice(ids)).
		Find(&results).Error
	return results, err
}
