// refresh-payback-dates recomputes next_payback_date and scheduled_end_date
// of every Active payback plan. Run it once a day after midnight in the
// businesses' timezones.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	businessId := flag.String("business", "", "only refresh this business")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall timeout")
	flag.Parse()

	logger := config.GetLogger()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized. Set DB_* env vars.")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ids := []string{*businessId}
	if *businessId == "" {
		var err error
		sweepCtx := utils.SetSkipTenantScopeInContext(ctx, true)
		if ids, err = models.ListActiveBusinessIds(sweepCtx); err != nil {
			config.LogError(logger, "refresh-payback-dates", "main", "ListActiveBusinessIds", nil, err)
			os.Exit(1)
		}
	}

	failed := 0
	total := 0
	for _, id := range ids {
		n, err := models.RefreshBusinessPaybackPlanDates(utils.SystemContext(ctx, id), id)
		total += n
		if err != nil {
			failed++
			config.LogError(logger, "refresh-payback-dates", "main", "RefreshBusinessPaybackPlanDates", id, err)
			continue
		}
		logger.WithFields(logrus.Fields{
			"business_id": id,
			"fundings":    n,
		}).Info("payback dates refreshed")
	}
	fmt.Printf("refreshed %d fundings across %d businesses (%d failed)\n", total, len(ids), failed)
	if failed > 0 {
		os.Exit(1)
	}
}
