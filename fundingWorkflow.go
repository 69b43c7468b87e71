package main

import (
	"context"
	"encoding/json"
	"os"

	"cloud.google.com/go/pubsub"
	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/mcaservicing/mca_backend/workflow"
	"github.com/sirupsen/logrus"
)

var businessLocks = workflow.NewBusinessLocker()

// RunFundingWorkflow starts the pull subscriber. Receive runs until ctx is cancelled.
func RunFundingWorkflow(ctx context.Context) error {
	logger := config.GetLogger()
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}
	topic, err := config.CreateTopicIfNotExists(client, os.Getenv("PUBSUB_TOPIC"))
	if err != nil {
		return err
	}
	sub, err := config.CreateSubscriptionIfNotExists(client, os.Getenv("PUBSUB_SUBSCRIPTION"), topic)
	if err != nil {
		return err
	}
	sub.ReceiveSettings.MaxOutstandingMessages = 10

	callback := func(ctx context.Context, msg *pubsub.Message) {
		m := config.PubSubMessage{}
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			config.LogError(logger, "fundingWorkflow.go", "RunFundingWorkflow", "Unmarshaling pubsub message", msg.Data, err)
			// poisoned payload, redelivery cannot fix it
			msg.Ack()
			return
		}
		if m.BusinessId == "" || m.ReferenceType == "" {
			config.LogError(logger, "fundingWorkflow.go", "RunFundingWorkflow", "Invalid pubsub message", m, errMissingFields)
			msg.Ack()
			return
		}

		unlock := businessLocks.Lock(m.BusinessId)
		defer unlock()

		correlationId := m.CorrelationId
		if correlationId == "" {
			correlationId = msg.ID
		}
		ctx = utils.SystemContext(ctx, m.BusinessId)
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		if err := processOutboxMessage(ctx, logger, m); err != nil {
			logger.WithFields(logrus.Fields{
				"field":          "FundingWorkflow",
				"business_id":    m.BusinessId,
				"reference_type": m.ReferenceType,
				"reference_id":   m.ReferenceId,
				"message_id":     msg.ID,
			}).Error("pubsub processing failed: " + err.Error())
			msg.Nack()
			return
		}
		msg.Ack()
	}

	go func() {
		if err := sub.Receive(ctx, callback); err != nil {
			config.LogError(logger, "fundingWorkflow.go", "RunFundingWorkflow", "Failed to receive messages", nil, err)
		}
	}()
	return nil
}

// processOutboxMessage runs the posting and keeps the record's processing bookkeeping.
// A message that has exhausted its attempts is acked by returning nil.
func processOutboxMessage(ctx context.Context, logger *logrus.Logger, m config.PubSubMessage) error {
	markOutboxProcessing(ctx, m.ID)
	if err := workflow.ProcessMessage(ctx, logger, m); err != nil {
		if dead := markOutboxProcessFailure(ctx, logger, m, err); dead {
			onOutboxDead(ctx, logger, m)
			return nil
		}
		return err
	}
	markOutboxProcessSuccess(ctx, logger, m)
	return nil
}
