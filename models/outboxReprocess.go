package models

import (
	"context"
	"time"

	"github.com/mcaservicing/mca_backend/config"
	"gorm.io/gorm"
)

// ReprocessOutbox puts every unprocessed row of a record back in the publish queue.
func ReprocessOutbox(ctx context.Context, referenceType OutboxReferenceType, referenceId int) (*OutboxStatus, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	db := config.GetDB()

	res := db.WithContext(ctx).
		Model(&PubSubMessageRecord{}).
		Where("business_id = ? AND reference_type = ? AND reference_id = ? AND is_processed = 0", businessId, referenceType, referenceId).
		Updates(map[string]interface{}{
			"locked_at":               nil,
			"locked_by":               nil,
			"publish_status":          OutboxPublishStatusPending,
			"publish_attempts":        0,
			"next_attempt_at":         nil,
			"processing_status":       OutboxProcessStatusPending,
			"next_process_attempt_at": &now,
			"last_process_error":      nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return GetOutboxStatus(ctx, referenceType, referenceId)
}

// ReplayDeadOutbox resets DEAD rows of a business (or all businesses when empty) to PENDING.
func ReplayDeadOutbox(ctx context.Context, businessId string, limit int) (int64, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	db := config.GetDB()
	var ids []int
	q := db.WithContext(ctx).Model(&PubSubMessageRecord{}).
		Where("is_processed = 0 AND (publish_status = ? OR processing_status = ?)", OutboxPublishStatusDead, OutboxProcessStatusDead)
	if businessId != "" {
		q = q.Where("business_id = ?", businessId)
	}
	if err := q.Order("id").Limit(limit).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Model(&PubSubMessageRecord{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"locked_at":               nil,
			"locked_by":               nil,
			"publish_status":          OutboxPublishStatusPending,
			"publish_attempts":        0,
			"next_attempt_at":         nil,
			"processing_status":       OutboxProcessStatusPending,
			"process_attempts":        0,
			"next_process_attempt_at": nil,
		})
	return res.RowsAffected, res.Error
}
