package workflow

import (
	"context"
	"encoding/json"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// deadDisbursementId returns the disbursement of a dead DB create message that came from an approved intent.
func deadDisbursementId(msg config.PubSubMessage) (int, bool) {
	if models.OutboxReferenceType(msg.ReferenceType) != models.OutboxReferenceTypeDisbursement ||
		msg.Action != string(models.PubSubMessageActionCreate) || len(msg.NewObj) == 0 {
		return 0, false
	}
	var d models.Disbursement
	if err := json.Unmarshal(msg.NewObj, &d); err != nil {
		return 0, false
	}
	if d.DisbursementIntentId <= 0 {
		return 0, false
	}
	return msg.ReferenceId, true
}

// HandleDeadMessage flags the approved disbursement intent behind a disbursement whose posting went DEAD.
func HandleDeadMessage(ctx context.Context, db *gorm.DB, logger *logrus.Logger, msg config.PubSubMessage) {
	if logger != nil {
		logger.WithFields(logrus.Fields{
			"field":          "OutboxDead",
			"business_id":    msg.BusinessId,
			"reference_type": msg.ReferenceType,
			"reference_id":   msg.ReferenceId,
			"message_id":     msg.ID,
		}).Error("outbox message is DEAD")
	}
	disbursementId, ok := deadDisbursementId(msg)
	if !ok || db == nil {
		return
	}
	ctx = utils.SystemContext(ctx, msg.BusinessId)
	if err := models.FlagDisbursementForReview(db.WithContext(ctx), msg.BusinessId, disbursementId); err != nil {
		config.LogError(logger, "deadLetter.go", "HandleDeadMessage", "FlagDisbursementForReview", disbursementId, err)
	}
}
