package main

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOutboxProcessBackoff(t *testing.T) {
	cfg := outboxProcessRetryConfig{maxAttempts: 4, baseBackoff: 5 * time.Second, maxBackoff: 30 * time.Second}

	assert.Equal(t, 5*time.Second, outboxProcessBackoff(1, cfg))
	assert.Equal(t, 10*time.Second, outboxProcessBackoff(2, cfg))
	assert.Equal(t, 20*time.Second, outboxProcessBackoff(3, cfg))
	assert.Equal(t, 30*time.Second, outboxProcessBackoff(4, cfg))
	assert.Equal(t, 30*time.Second, outboxProcessBackoff(12, cfg))
}

func TestNextProcessState(t *testing.T) {
	cfg := outboxProcessRetryConfig{maxAttempts: 3, baseBackoff: time.Second, maxBackoff: time.Minute}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	status, next := nextProcessState(2, now, cfg)
	assert.Equal(t, models.OutboxProcessStatusFailed, status)
	require.NotNil(t, next)
	assert.Equal(t, now.Add(2*time.Second), *next)

	status, next = nextProcessState(3, now, cfg)
	assert.Equal(t, models.OutboxProcessStatusDead, status)
	assert.Nil(t, next)
}

func TestRetryConfigFromEnv(t *testing.T) {
	t.Setenv("OUTBOX_PROCESS_MAX_ATTEMPTS", "3")
	t.Setenv("OUTBOX_PROCESS_BASE_BACKOFF_SECONDS", "oops")
	cfg := getOutboxProcessRetryConfig()
	assert.Equal(t, 3, cfg.maxAttempts)
	assert.Equal(t, 5*time.Second, cfg.baseBackoff)
	assert.Equal(t, 10*time.Minute, cfg.maxBackoff)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim("  "))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitAndTrim(" https://a.example, ,https://b.example "))
}

func TestDirectProcessorToggle(t *testing.T) {
	t.Setenv("OUTBOX_DIRECT_PROCESSING", "")
	assert.True(t, shouldRunDirectOutboxProcessor())
	t.Setenv("OUTBOX_DIRECT_PROCESSING", "FALSE")
	assert.False(t, shouldRunDirectOutboxProcessor())
}

func TestDecodePushMessage(t *testing.T) {
	wrap := func(data string) []byte {
		return []byte(`{"message":{"id":"m-1","data":"` + base64.StdEncoding.EncodeToString([]byte(data)) + `"},"subscription":"s"}`)
	}

	env, m, err := decodePushMessage(wrap(`{"id":7,"business_id":"biz-1","reference_type":"PB","reference_id":3,"action":"C"}`))
	require.NoError(t, err)
	assert.Equal(t, "m-1", env.Message.ID)
	assert.Equal(t, 7, m.ID)
	assert.Equal(t, "PB", m.ReferenceType)

	_, _, err = decodePushMessage(wrap(`{"reference_type":"PB"}`))
	assert.ErrorIs(t, err, errMissingFields)

	_, _, err = decodePushMessage([]byte("not json"))
	assert.Error(t, err)
}

func TestPubSubHandlerAcksPoisonedMessages(t *testing.T) {
	r := gin.New()
	r.POST("/pubsub", fundingPubSubHandler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pubsub", bytes.NewBufferString(`{"message":{"data":"e30="}}`)))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestReadinessGate(t *testing.T) {
	r := gin.New()
	r.Use(readinessGate())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/fundings", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/fundings", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCorrelationMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(correlationMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-correlation-id", "cid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "cid-1", w.Header().Get("x-correlation-id"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get("x-correlation-id"))
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	r.Use(NewRateLimiter(func() *redis.Client { return client }, 2, time.Minute).RateLimitMiddleware)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	mr.FastForward(2 * time.Minute)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOwnsObjectKey(t *testing.T) {
	assert.True(t, ownsObjectKey("biz-1", "biz-1/fundings/3/a.pdf"))
	assert.False(t, ownsObjectKey("biz-1", "biz-2/fundings/3/a.pdf"))
	assert.False(t, ownsObjectKey("biz-1", "biz-1/../biz-2/a.pdf"))
	assert.False(t, ownsObjectKey("", "biz-1/a.pdf"))
}
