package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/models"
)

func intentFilterOf(c *gin.Context) models.IntentFilter {
	return models.IntentFilter{
		FundingId: queryInt(c, "funding_id"),
		Status:    queryEnum[models.IntentStatus](c, "status"),
	}
}

func listDisbursementIntentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, after := pageParams(c)
		conn, err := models.PaginateDisbursementIntents(c.Request.Context(), limit, after, intentFilterOf(c), queryBool(c, "needs_review"))
		if err != nil {
			respondError(c, "listDisbursementIntentsHandler", err)
			return
		}
		c.JSON(http.StatusOK, conn)
	}
}

func listDisbursementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, after := pageParams(c)
		conn, err := models.PaginateDisbursements(c.Request.Context(), limit, after,
			queryInt(c, "funding_id"), queryEnum[models.DisbursementStatus](c, "status"))
		if err != nil {
			respondError(c, "listDisbursementsHandler", err)
			return
		}
		c.JSON(http.StatusOK, conn)
	}
}

func listCommissionIntentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, after := pageParams(c)
		conn, err := models.PaginateCommissionIntents(c.Request.Context(), limit, after, intentFilterOf(c))
		if err != nil {
			respondError(c, "listCommissionIntentsHandler", err)
			return
		}
		c.JSON(http.StatusOK, conn)
	}
}

func listCommissionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, after := pageParams(c)
		conn, err := models.PaginateCommissions(c.Request.Context(), limit, after, queryInt(c, "funding_id"), queryInt(c, "iso_id"))
		if err != nil {
			respondError(c, "listCommissionsHandler", err)
			return
		}
		c.JSON(http.StatusOK, conn)
	}
}

type clawbackRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

func clawbackCommissionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req clawbackRequest
		// the body is optional
		if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
			return
		}
		commission, err := models.ClawbackCommission(c.Request.Context(), id, req.Reason)
		if err != nil {
			respondError(c, "clawbackCommissionHandler", err)
			return
		}
		c.JSON(http.StatusOK, commission)
	}
}
