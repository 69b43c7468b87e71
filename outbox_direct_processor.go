package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OutboxDirectProcessor posts outbox records straight from the table,
// without going through Pub/Sub.
type OutboxDirectProcessor struct {
	DB        *gorm.DB
	Logger    *logrus.Logger
	WorkerID  string
	BatchSize int
	Interval  time.Duration
	LockTTL   time.Duration
}

func NewOutboxDirectProcessor(db *gorm.DB, logger *logrus.Logger) *OutboxDirectProcessor {
	return &OutboxDirectProcessor{
		DB:        db,
		Logger:    logger,
		WorkerID:  "direct-" + time.Now().Format("20060102-150405.000"),
		BatchSize: envInt("OUTBOX_DIRECT_BATCH_SIZE", 50),
		Interval:  2 * time.Second,
		LockTTL:   30 * time.Second,
	}
}

// shouldRunDirectOutboxProcessor defaults to on; set OUTBOX_DIRECT_PROCESSING=false
// when the Pub/Sub subscriber is the only consumer.
func shouldRunDirectOutboxProcessor() bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv("OUTBOX_DIRECT_PROCESSING")))
	return val != "false"
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (p *OutboxDirectProcessor) Run(ctx context.Context) {
	if p == nil || p.DB == nil {
		return
	}
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		p.processOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *OutboxDirectProcessor) claim(ctx context.Context, now time.Time) ([]models.PubSubMessageRecord, error) {
	staleBefore := now.Add(-p.LockTTL)
	var claimed []models.PubSubMessageRecord
	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("is_processed = 0").
			Where("processing_status <> ?", models.OutboxProcessStatusDead).
			Where("(next_process_attempt_at IS NULL OR next_process_attempt_at <= ?)", now).
			Where("(locked_at IS NULL OR locked_at <= ?)", staleBefore).
			Order("id ASC").
			Limit(p.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Find(&claimed).Error
		if err != nil || len(claimed) == 0 {
			return err
		}
		ids := make([]int, len(claimed))
		for i, rec := range claimed {
			ids[i] = rec.ID
		}
		return tx.Model(&models.PubSubMessageRecord{}).
			Where("id IN ?", ids).
			UpdateColumns(map[string]interface{}{
				"locked_at": now,
				"locked_by": p.WorkerID,
			}).Error
	})
	return claimed, err
}

func (p *OutboxDirectProcessor) processOnce(ctx context.Context) {
	claimed, err := p.claim(ctx, time.Now().UTC())
	if err != nil {
		if p.Logger != nil {
			p.Logger.WithField("field", "OutboxDirectProcessor").Error("claim failed: " + err.Error())
		}
		return
	}

	for _, rec := range claimed {
		msg := models.ConvertToPubSubMessage(rec)
		unlock := businessLocks.Lock(rec.BusinessId)
		procCtx := utils.SystemContext(ctx, rec.BusinessId)
		procCtx = utils.SetCorrelationIdInContext(procCtx, rec.CorrelationId)
		err := processOutboxMessage(procCtx, p.Logger, msg)
		unlock()
		if err != nil && p.Logger != nil {
			p.Logger.WithFields(logrus.Fields{
				"field":          "OutboxDirectProcessor",
				"business_id":    rec.BusinessId,
				"reference_type": rec.ReferenceType,
				"reference_id":   rec.ReferenceId,
				"record_id":      rec.ID,
			}).Warn("direct processing will retry: " + err.Error())
		}
	}
}
