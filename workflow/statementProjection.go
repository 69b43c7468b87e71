package workflow

import (
	"context"

	"github.com/mcaservicing/mca_backend/archive"
	"github.com/sirupsen/logrus"
)

// ProjectStatement refreshes the stored funding statement. Failures are logged only;
// reads fall back to a live statement.
func ProjectStatement(ctx context.Context, store *archive.StatementStore, logger *logrus.Logger, result *PostingResult) {
	if store == nil || result == nil || result.FundingId <= 0 {
		return
	}
	var err error
	if result.FundingDeleted {
		err = store.Delete(ctx, result.BusinessId, result.FundingId)
	} else {
		err = archive.Project(ctx, store, result.BusinessId, result.FundingId)
	}
	if err != nil && logger != nil {
		logger.WithFields(logrus.Fields{
			"field":       "StatementProjection",
			"business_id": result.BusinessId,
			"funding_id":  result.FundingId,
		}).Warn("statement projection failed: " + err.Error())
	}
}
