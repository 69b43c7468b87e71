package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/models"
)

var errInvalidOutboxReference = errors.New("invalid outbox reference")

func outboxReferenceOf(c *gin.Context) (models.OutboxReferenceType, int, error) {
	refType := models.OutboxReferenceType(c.Param("type"))
	refId, err := strconv.Atoi(c.Param("id"))
	if !refType.IsValid() || err != nil || refId <= 0 {
		return "", 0, errInvalidOutboxReference
	}
	return refType, refId, nil
}

// outboxStatusHandler reports whether the ledger posting of a record went through.
func outboxStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		refType, refId, err := outboxReferenceOf(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status, err := models.GetOutboxStatus(c.Request.Context(), refType, refId)
		if err != nil {
			respondError(c, "outboxStatus", err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func reprocessOutboxHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		refType, refId, err := outboxReferenceOf(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status, err := models.ReprocessOutbox(c.Request.Context(), refType, refId)
		if err != nil {
			respondError(c, "reprocessOutbox", err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
