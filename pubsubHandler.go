package main

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/sirupsen/logrus"
)

// pushEnvelope is the body Pub/Sub POSTs to a push endpoint.
type pushEnvelope struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// decodePushMessage fails only for payloads that redelivery cannot fix.
func decodePushMessage(body []byte) (env pushEnvelope, m config.PubSubMessage, err error) {
	if err = json.Unmarshal(body, &env); err != nil {
		return
	}
	if err = json.Unmarshal(env.Message.Data, &m); err != nil {
		return
	}
	if m.BusinessId == "" || m.ReferenceType == "" {
		err = errMissingFields
	}
	return
}

// fundingPubSubHandler acks with 204 and asks for redelivery with 500.
func fundingPubSubHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "pubsubHandler.go", "fundingPubSubHandler", "io.ReadAll", nil, err)
			c.Status(http.StatusNoContent)
			return
		}
		env, m, err := decodePushMessage(body)
		if err != nil {
			config.LogError(logger, "pubsubHandler.go", "fundingPubSubHandler", "decode push message", string(body), err)
			c.Status(http.StatusNoContent)
			return
		}

		correlationId := m.CorrelationId
		if correlationId == "" {
			correlationId = env.Message.ID
		}
		fields := logrus.Fields{
			"field":          "fundingPubSubHandler",
			"business_id":    m.BusinessId,
			"reference_type": m.ReferenceType,
			"reference_id":   m.ReferenceId,
			"message_id":     env.Message.ID,
			"correlation_id": correlationId,
		}

		// redis lock is best effort; the in-process business lock still serializes
		var lock *redislock.Lock
		if locker := config.GetRedisLock(); locker != nil {
			lock, err = locker.Obtain(c.Request.Context(), "lock:"+m.BusinessId, 30*time.Second, nil)
			if err != nil {
				logger.WithFields(fields).Warn("proceeding without redis lock: " + err.Error())
				lock = nil
			}
		}
		defer func() {
			if lock == nil {
				return
			}
			if releaseErr := lock.Release(c.Request.Context()); releaseErr != nil && releaseErr != redislock.ErrLockNotHeld {
				logger.WithFields(fields).Warn("failed to release redis lock: " + releaseErr.Error())
			}
		}()

		unlock := businessLocks.Lock(m.BusinessId)
		defer unlock()

		ctx := utils.SystemContext(c.Request.Context(), m.BusinessId)
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		if err := processOutboxMessage(ctx, logger, m); err != nil {
			logger.WithFields(fields).Error("pubsub processing failed: " + err.Error())
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
