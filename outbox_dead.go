package main

import (
	"context"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/mcaservicing/mca_backend/workflow"
	"github.com/sirupsen/logrus"
)

func ensureBusinessContext(ctx context.Context, businessId string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if businessId == "" {
		return ctx
	}
	if _, ok := utils.GetBusinessIdFromContext(ctx); !ok {
		ctx = utils.SystemContext(ctx, businessId)
	}
	return ctx
}

// onOutboxDead runs when a message stops being retried by the workers.
func onOutboxDead(ctx context.Context, logger *logrus.Logger, msg config.PubSubMessage) {
	ctx = ensureBusinessContext(ctx, msg.BusinessId)
	workflow.HandleDeadMessage(ctx, config.GetDB(), logger, msg)
}
