package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/models/reports"
)

func portfolioReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := reports.GetPortfolioSummary(c.Request.Context())
		if err != nil {
			respondError(c, "portfolioReportHandler", err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func syndicatorReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := reports.GetSyndicatorReport(c.Request.Context())
		if err != nil {
			respondError(c, "syndicatorReportHandler", err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
