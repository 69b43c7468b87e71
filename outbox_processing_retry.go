package main

import (
	"context"
	"time"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/sirupsen/logrus"
)

// processing retries are separate from publish retries: a message can be
// delivered fine and still fail to post, e.g. on a lock timeout.
type outboxProcessRetryConfig struct {
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func getOutboxProcessRetryConfig() outboxProcessRetryConfig {
	return outboxProcessRetryConfig{
		maxAttempts: envInt("OUTBOX_PROCESS_MAX_ATTEMPTS", 10),
		baseBackoff: time.Duration(envInt("OUTBOX_PROCESS_BASE_BACKOFF_SECONDS", 5)) * time.Second,
		maxBackoff:  time.Duration(envInt("OUTBOX_PROCESS_MAX_BACKOFF_SECONDS", 600)) * time.Second,
	}
}

// outboxProcessBackoff is base * 2^(attempt-1), capped.
func outboxProcessBackoff(attempt int, cfg outboxProcessRetryConfig) time.Duration {
	delay := cfg.baseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cfg.maxBackoff {
			return cfg.maxBackoff
		}
	}
	return delay
}

// nextProcessState decides the status after a failed attempt.
func nextProcessState(attempts int, now time.Time, cfg outboxProcessRetryConfig) (string, *time.Time) {
	if attempts >= cfg.maxAttempts {
		return models.OutboxProcessStatusDead, nil
	}
	t := now.Add(outboxProcessBackoff(attempts, cfg))
	return models.OutboxProcessStatusFailed, &t
}

func markOutboxProcessing(ctx context.Context, id int) {
	if id <= 0 {
		return
	}
	_ = config.GetDB().WithContext(ctx).
		Model(&models.PubSubMessageRecord{}).
		Where("id = ? AND processing_status <> ?", id, models.OutboxProcessStatusDead).
		UpdateColumn("processing_status", models.OutboxProcessStatusProcessing).Error
}

// markOutboxProcessFailure returns whether the record is now DEAD.
func markOutboxProcessFailure(ctx context.Context, logger *logrus.Logger, m config.PubSubMessage, err error) bool {
	if m.ID <= 0 {
		return false
	}
	cfg := getOutboxProcessRetryConfig()
	now := time.Now().UTC()
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	db := config.GetDB()

	var rec models.PubSubMessageRecord
	if qerr := db.WithContext(ctx).
		Select("id,business_id,reference_type,reference_id,process_attempts").
		Where("id = ?", m.ID).
		First(&rec).Error; qerr != nil {
		_ = db.WithContext(ctx).Model(&models.PubSubMessageRecord{}).
			Where("id = ?", m.ID).
			UpdateColumns(map[string]interface{}{
				"last_process_error": &errMsg,
				"locked_at":          nil,
				"locked_by":          nil,
				"processing_status":  models.OutboxProcessStatusFailed,
			}).Error
		return false
	}

	attempts := rec.ProcessAttempts + 1
	status, nextAttemptAt := nextProcessState(attempts, now, cfg)
	_ = db.WithContext(ctx).Model(&models.PubSubMessageRecord{}).
		Where("id = ?", m.ID).
		UpdateColumns(map[string]interface{}{
			"last_process_error":      &errMsg,
			"process_attempts":        attempts,
			"next_process_attempt_at": nextAttemptAt,
			"processing_status":       status,
			"locked_at":               nil,
			"locked_by":               nil,
		}).Error

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"field":             "OutboxProcessing",
			"business_id":       rec.BusinessId,
			"reference_type":    rec.ReferenceType,
			"reference_id":      rec.ReferenceId,
			"record_id":         rec.ID,
			"processing_status": status,
			"process_attempts":  attempts,
		}).Error("outbox processing failed: " + errMsg)
	}
	return status == models.OutboxProcessStatusDead
}

func markOutboxProcessSuccess(ctx context.Context, logger *logrus.Logger, m config.PubSubMessage) {
	if m.ID <= 0 {
		return
	}
	now := time.Now().UTC()
	// a replayed DEAD row stays DEAD until an operator resets it
	_ = config.GetDB().WithContext(ctx).Model(&models.PubSubMessageRecord{}).
		Where("id = ? AND processing_status <> ?", m.ID, models.OutboxProcessStatusDead).
		UpdateColumns(map[string]interface{}{
			"processing_status":       models.OutboxProcessStatusSucceeded,
			"processed_at":            &now,
			"next_process_attempt_at": nil,
			"last_process_error":      nil,
			"locked_at":               nil,
			"locked_by":               nil,
		}).Error

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"field":             "OutboxProcessing",
			"business_id":       m.BusinessId,
			"reference_type":    m.ReferenceType,
			"reference_id":      m.ReferenceId,
			"record_id":         m.ID,
			"processing_status": models.OutboxProcessStatusSucceeded,
		}).Info("outbox processed successfully")
	}
}
