package reports

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/sirupsen/logrus"
)

func reportCacheEnabled() bool {
	return config.BoolFromEnv("ENABLE_REPORT_CACHE")
}

func reportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func reportSlowMs() int64 {
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

func logSlowReport(ctx context.Context, name string, started time.Time) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	biz, _ := utils.GetBusinessIdFromContext(ctx)
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"report":         name,
		"ms":             d.Milliseconds(),
		"business_id":    biz,
		"correlation_id": cid,
	}).Warn("slow report")
}

func reportCacheKey(name, businessId string) string {
	return "report:" + name + ":" + businessId
}

// cached serves a report from redis when ENABLE_REPORT_CACHE is set.
// Cache failures fall through to the query.
func cached[T any](ctx context.Context, name, businessId string, build func() (*T, error)) (*T, error) {
	started := time.Now()
	defer logSlowReport(ctx, name, started)

	key := reportCacheKey(name, businessId)
	if reportCacheEnabled() {
		var hit T
		if ok, err := config.GetRedisObject(key, &hit); err == nil && ok {
			return &hit, nil
		}
	}
	result, err := build()
	if err != nil {
		return nil, err
	}
	if reportCacheEnabled() {
		if err := config.SetRedisObject(key, result, reportCacheTTL()); err != nil {
			config.LogError(config.GetLogger(), "reports", "cached", name, businessId, err)
		}
	}
	return result, nil
}

func businessIdOf(ctx context.Context) (string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return "", utils.ErrorBusinessIdRequired
	}
	return businessId, nil
}
