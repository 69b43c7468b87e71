package workflow

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PostingResult names the funding a message touched.
type PostingResult struct {
	BusinessId     string
	FundingId      int
	FundingDeleted bool
}

// fundingRef is the part of every posted record the ledger needs.
type fundingRef struct {
	ID        int `json:"id"`
	FundingId int `json:"funding_id"`
}

// referencedFunding returns the funding id a message posts to.
func referencedFunding(msg config.PubSubMessage) (int, error) {
	if models.OutboxReferenceType(msg.ReferenceType) == models.OutboxReferenceTypeFunding {
		if msg.ReferenceId <= 0 {
			return 0, errors.New("funding message without reference id")
		}
		return msg.ReferenceId, nil
	}
	for _, raw := range [][]byte{msg.NewObj, msg.OldObj} {
		if len(raw) == 0 {
			continue
		}
		var ref fundingRef
		if err := json.Unmarshal(raw, &ref); err != nil {
			return 0, fmt.Errorf("decode %s payload: %w", msg.ReferenceType, err)
		}
		if ref.FundingId > 0 {
			return ref.FundingId, nil
		}
	}
	return 0, fmt.Errorf("%s message %d carries no funding_id", msg.ReferenceType, msg.ID)
}

// refreshesPlanDates reports whether the message can move the plan's next payback date.
func refreshesPlanDates(referenceType string) bool {
	switch models.OutboxReferenceType(referenceType) {
	case models.OutboxReferenceTypePaybackPlan, models.OutboxReferenceTypePayback:
		return true
	}
	return false
}

func handlerName(referenceType string) string {
	return "ledger:" + referenceType
}

// ProcessWorkflow recomputes the ledger of the funding behind msg.
func ProcessWorkflow(tx *gorm.DB, logger *logrus.Logger, msg config.PubSubMessage) (*PostingResult, error) {
	if !models.OutboxReferenceType(msg.ReferenceType).IsValid() {
		logger.WithFields(logrus.Fields{
			"field":          "LedgerWorkflow",
			"business_id":    msg.BusinessId,
			"reference_type": msg.ReferenceType,
		}).Warn("unknown reference type; message skipped")
		return nil, nil
	}
	result := &PostingResult{BusinessId: msg.BusinessId}

	fundingId, err := referencedFunding(msg)
	if err != nil {
		config.LogError(logger, "ledgerWorkflow.go", "ProcessWorkflow", "referencedFunding", msg.ID, err)
		return nil, err
	}
	result.FundingId = fundingId

	if models.OutboxReferenceType(msg.ReferenceType) == models.OutboxReferenceTypeFunding &&
		msg.Action == string(models.PubSubMessageActionDelete) {
		result.FundingDeleted = true
		return result, nil
	}

	funding, err := models.RecalculateFundingLedger(tx, msg.BusinessId, fundingId)
	if errors.Is(err, models.ErrFundingNotFound) {
		// funding deleted after the message was written
		logger.WithFields(logrus.Fields{
			"field":          "LedgerWorkflow",
			"business_id":    msg.BusinessId,
			"funding_id":     fundingId,
			"reference_type": msg.ReferenceType,
		}).Warn("ledger posting skipped: funding not found")
		result.FundingDeleted = true
		return result, nil
	}
	if err != nil {
		config.LogError(logger, "ledgerWorkflow.go", "ProcessWorkflow", "RecalculateFundingLedger", fundingId, err)
		return nil, err
	}

	if refreshesPlanDates(msg.ReferenceType) && funding.Status != models.FundingStatusPaidOff {
		today := models.BusinessToday(tx.Statement.Context, msg.BusinessId)
		if _, err := models.RefreshPaybackPlanDates(tx, msg.BusinessId, fundingId, today); err != nil {
			config.LogError(logger, "ledgerWorkflow.go", "ProcessWorkflow", "RefreshPaybackPlanDates", fundingId, err)
			return nil, err
		}
	}
	return result, nil
}
