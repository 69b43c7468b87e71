package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/models/reports"
)

func listPaybackPlansHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, after := pageParams(c)
		conn, err := models.PaginatePaybackPlans(c.Request.Context(), limit, after,
			queryInt(c, "funding_id"), queryEnum[models.PaybackPlanStatus](c, "status"))
		if err != nil {
			respondError(c, "listPaybackPlansHandler", err)
			return
		}
		c.JSON(http.StatusOK, conn)
	}
}

// previewPaybackPlanHandler always answers 200 for incomplete input; the dates are just empty.
func previewPaybackPlanHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.PreviewPaybackPlan
		if !bindJSON(c, &input) {
			return
		}
		preview, err := models.PreviewSchedule(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "previewPaybackPlanHandler", err)
			return
		}
		c.JSON(http.StatusOK, preview)
	}
}

func exportPlanScheduleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		buf, filename, err := reports.ExportPlanSchedule(c.Request.Context(), id)
		if err != nil {
			respondError(c, "exportPlanScheduleHandler", err)
			return
		}
		sendXlsx(c, filename, buf.Bytes())
	}
}

func listPaybacksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, after := pageParams(c)
		filter := models.PaybackFilter{
			FundingId:     queryInt(c, "funding_id"),
			PaybackPlanId: queryInt(c, "payback_plan_id"),
			Status:        queryEnum[models.PaybackStatus](c, "status"),
			FromDate:      queryDate(c, "from_date"),
			ToDate:        queryDate(c, "to_date"),
		}
		conn, err := models.PaginatePaybacks(c.Request.Context(), limit, after, filter)
		if err != nil {
			respondError(c, "listPaybacksHandler", err)
			return
		}
		c.JSON(http.StatusOK, conn)
	}
}
