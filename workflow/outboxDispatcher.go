package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Publisher sends one outbox message and returns the broker message id.
type Publisher func(ctx context.Context, businessId string, msg config.PubSubMessage) (string, error)

type OutboxDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	DispatcherID string
	Publish      Publisher
	// OnDead runs after a row is moved to DEAD
	OnDead func(ctx context.Context, msg config.PubSubMessage)

	BatchSize    int
	PollInterval time.Duration
	LockTimeout  time.Duration
}

func NewOutboxDispatcher(db *gorm.DB, logger *logrus.Logger) *OutboxDispatcher {
	d := &OutboxDispatcher{
		DB:           db,
		Logger:       logger,
		DispatcherID: uuid.NewString(),
		Publish:      config.PublishFundingWorkflowWithResult,
		BatchSize:    50,
		PollInterval: 500 * time.Millisecond,
		LockTimeout:  30 * time.Second,
	}
	d.OnDead = func(ctx context.Context, msg config.PubSubMessage) {
		HandleDeadMessage(ctx, db, logger, msg)
	}
	return d
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.dispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

// claim locks a batch of due rows and marks them PROCESSING; rows past the attempt limit go DEAD.
func (d *OutboxDispatcher) claim(ctx context.Context, now time.Time) (claimed []models.PubSubMessageRecord, dead []models.PubSubMessageRecord, err error) {
	staleBefore := now.Add(-d.LockTimeout)
	err = d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// PENDING/FAILED that are due, or PROCESSING with a stale lock
		q := tx.
			Where("is_processed = ?", false).
			Where(`
				(
					publish_status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
				)
				OR
				(
					publish_status = ? AND locked_at IS NOT NULL AND locked_at <= ?
				)
			`, []string{models.OutboxPublishStatusPending, models.OutboxPublishStatusFailed}, now, models.OutboxPublishStatusProcessing, staleBefore).
			Order("id ASC").
			Limit(d.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		var rows []models.PubSubMessageRecord
		if err := q.Find(&rows).Error; err != nil {
			return err
		}
		for _, rec := range rows {
			if models.OutboxPublishExhausted(rec.PublishAttempts) {
				msg := fmt.Sprintf("max publish attempts exceeded (%d)", models.OutboxMaxPublishAttempts)
				if err := tx.Model(&models.PubSubMessageRecord{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
					"publish_status":     models.OutboxPublishStatusDead,
					"last_publish_error": &msg,
					"next_attempt_at":    nil,
					"locked_at":          nil,
					"locked_by":          nil,
				}).Error; err != nil {
					return err
				}
				dead = append(dead, rec)
				continue
			}
			if err := tx.Model(&models.PubSubMessageRecord{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusProcessing,
				"locked_at":          &now,
				"locked_by":          &d.DispatcherID,
				"publish_attempts":   gorm.Expr("publish_attempts + 1"),
				"last_publish_error": nil,
				"next_attempt_at":    nil,
			}).Error; err != nil {
				return err
			}
			rec.PublishAttempts++
			claimed = append(claimed, rec)
		}
		return nil
	})
	return claimed, dead, err
}

func (d *OutboxDispatcher) dispatchOnce(ctx context.Context) {
	if d.DB == nil {
		return
	}
	now := time.Now().UTC()
	claimed, dead, err := d.claim(ctx, now)
	if err != nil {
		if d.Logger != nil {
			d.Logger.WithFields(logrus.Fields{"field": "OutboxDispatcher"}).Error("claim outbox batch: " + err.Error())
		}
		return
	}
	for _, rec := range dead {
		d.dead(ctx, rec)
	}
	for _, rec := range claimed {
		msg := models.ConvertToPubSubMessage(rec)
		pubID, pubErr := d.Publish(ctx, rec.BusinessId, msg)
		if pubErr != nil {
			d.markPublishFailed(ctx, rec, pubErr)
			continue
		}
		d.markPublishSent(ctx, rec.ID, pubID, now)
	}
}

func (d *OutboxDispatcher) dead(ctx context.Context, rec models.PubSubMessageRecord) {
	if d.OnDead != nil {
		d.OnDead(ctx, models.ConvertToPubSubMessage(rec))
	}
}

func (d *OutboxDispatcher) markPublishSent(ctx context.Context, recordID int, pubsubMsgID string, now time.Time) {
	id := pubsubMsgID
	_ = d.DB.WithContext(ctx).Model(&models.PubSubMessageRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusSent,
			"published_at":       &now,
			"pub_sub_message_id": &id,
			"locked_at":          nil,
			"locked_by":          nil,
			"next_attempt_at":    nil,
		}).Error
}

// nextPublishAttempt returns the retry time for a failed attempt, or nil when the row is exhausted.
func nextPublishAttempt(now time.Time, attempt int) *time.Time {
	if models.OutboxPublishExhausted(attempt) {
		return nil
	}
	next := now.Add(models.OutboxBackoff(attempt))
	return &next
}

func (d *OutboxDispatcher) markPublishFailed(ctx context.Context, rec models.PubSubMessageRecord, err error) {
	db := d.DB.WithContext(ctx)
	now := time.Now().UTC()
	msg := err.Error()
	next := nextPublishAttempt(now, rec.PublishAttempts)

	if next == nil {
		_ = db.Model(&models.PubSubMessageRecord{}).
			Where("id = ?", rec.ID).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusDead,
				"last_publish_error": &msg,
				"next_attempt_at":    nil,
				"locked_at":          nil,
				"locked_by":          nil,
			}).Error
		if d.Logger != nil {
			d.Logger.WithFields(logrus.Fields{
				"field":       "OutboxDispatcher",
				"business_id": rec.BusinessId,
				"record_id":   rec.ID,
				"attempt":     rec.PublishAttempts,
			}).Error("outbox publish moved to DEAD after max attempts: " + msg)
		}
		d.dead(ctx, rec)
		return
	}

	_ = db.Model(&models.PubSubMessageRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusFailed,
			"last_publish_error": &msg,
			"next_attempt_at":    next,
			"locked_at":          nil,
			"locked_by":          nil,
		}).Error

	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{
			"field":           "OutboxDispatcher",
			"business_id":     rec.BusinessId,
			"record_id":       rec.ID,
			"attempt":         rec.PublishAttempts,
			"next_attempt_at": next.Format(time.RFC3339Nano),
		}).Error("outbox publish failed: " + msg)
	}
}
