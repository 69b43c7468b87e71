package workflow

import (
	"context"
	"strconv"

	"github.com/mcaservicing/mca_backend/archive"
	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("github.com/mcaservicing/mca_backend/workflow")

// ProcessMessage posts one outbox message: it takes the business posting lock,
// skips messages already handled and recomputes the funding ledger in one transaction.
// The funding statement is projected after commit.
func ProcessMessage(ctx context.Context, logger *logrus.Logger, m config.PubSubMessage) error {
	ctx, span := tracer.Start(ctx, "workflow.ProcessMessage", trace.WithAttributes(
		attribute.String("business_id", m.BusinessId),
		attribute.String("reference_type", m.ReferenceType),
		attribute.Int("reference_id", m.ReferenceId),
		attribute.Int("message_id", m.ID),
	))
	defer span.End()

	if m.CorrelationId != "" {
		ctx = utils.SetCorrelationIdInContext(ctx, m.CorrelationId)
	}

	var result *PostingResult
	err := config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireBusinessPostingLock(tx, m.BusinessId); err != nil {
			return err
		}
		defer ReleaseBusinessPostingLock(tx, m.BusinessId)

		name := handlerName(m.ReferenceType)
		messageId := strconv.Itoa(m.ID)
		skip, err := BeginIdempotency(tx, m.BusinessId, name, messageId)
		if err != nil {
			return err
		}
		if skip {
			span.SetAttributes(attribute.Bool("duplicate", true))
			return nil
		}

		result, err = ProcessWorkflow(tx, logger, m)
		if err != nil {
			_ = MarkIdempotencyFailed(tx, m.BusinessId, name, messageId, err)
			return err
		}
		if m.ID > 0 {
			if err := tx.Model(&models.PubSubMessageRecord{}).Where("id = ?", m.ID).
				UpdateColumn("is_processed", true).Error; err != nil {
				return err
			}
		}
		return MarkIdempotencySucceeded(tx, m.BusinessId, name, messageId)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if result != nil {
		ProjectStatement(ctx, archive.DefaultStatementStore(), logger, result)
	}
	return nil
}
