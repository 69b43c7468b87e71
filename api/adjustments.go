package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/models"
)

func listFeesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, after := pageParams(c)
		conn, err := models.PaginateFees(c.Request.Context(), limit, after, queryInt(c, "funding_id"), queryEnum[models.FeeType](c, "fee_type"))
		if err != nil {
			respondError(c, "listFeesHandler", err)
			return
		}
		c.JSON(http.StatusOK, conn)
	}
}

func listCreditsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, after := pageParams(c)
		conn, err := models.PaginateCredits(c.Request.Context(), limit, after, queryInt(c, "funding_id"))
		if err != nil {
			respondError(c, "listCreditsHandler", err)
			return
		}
		c.JSON(http.StatusOK, conn)
	}
}

func listSyndicationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, after := pageParams(c)
		conn, err := models.PaginateSyndications(c.Request.Context(), limit, after, queryInt(c, "funding_id"), queryInt(c, "syndicator_id"))
		if err != nil {
			respondError(c, "listSyndicationsHandler", err)
			return
		}
		c.JSON(http.StatusOK, conn)
	}
}
