package models

import "time"

// Outbox publish statuses for PubSubMessageRecord.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// Outbox processing statuses for PubSubMessageRecord.ProcessingStatus.
// These track worker-side handling, distinct from PublishStatus.
const (
	OutboxProcessStatusPending    = "PENDING"
	OutboxProcessStatusProcessing = "PROCESSING"
	OutboxProcessStatusSucceeded  = "SUCCEEDED"
	OutboxProcessStatusFailed     = "FAILED"
	OutboxProcessStatusDead       = "DEAD"
)

const (
	OutboxMaxPublishAttempts = 20
	OutboxBaseBackoff        = 5 * time.Second
	OutboxMaxBackoff         = 10 * time.Minute
)

// OutboxBackoff returns the wait before the given (1-based) attempt is retried:
// 5s, 10s, 20s, ... capped at 10 minutes.
func OutboxBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := OutboxBaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= OutboxMaxBackoff {
			return OutboxMaxBackoff
		}
	}
	return d
}

// OutboxPublishExhausted reports whether a row with this many attempts goes DEAD.
func OutboxPublishExhausted(attempts int) bool {
	return attempts >= OutboxMaxPublishAttempts
}
