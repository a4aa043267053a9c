package op

import (
	"context"
	"fmt"
	"time"

	"github.com/AbdelzaherMuhammed/hypervel/internal/rdb"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
)

const metricsTTL = 7 * 24 * time.Hour

// Usage metrics are best-effort: failures are logged and never surfaced
// to the request path. Callers submit these through the async sink.

func MetricsRecordSuccess(vendorID int) {
	client := rdb.GetClient()
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	now := time.Now().In(quotaLocation())
	dayKey := "auth_success:" + now.Format("2006-01-02")
	hourKey := fmt.Sprintf("api_usage:%d:%s", vendorID, now.Format("2006-01-02-15"))

	for _, key := range []string{dayKey, hourKey} {
		if err := client.Incr(ctx, key).Err(); err != nil {
			log.Warnf("usage metric incr failed for %s: %v", key, err)
			continue
		}
		if err := client.Expire(ctx, key, metricsTTL).Err(); err != nil {
			log.Warnf("usage metric expire failed for %s: %v", key, err)
		}
	}
}

func MetricsRecordFailedAuth() {
	client := rdb.GetClient()
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	key := "failed_auth:" + time.Now().In(quotaLocation()).Format("2006-01-02-15")
	if err := client.Incr(ctx, key).Err(); err != nil {
		log.Warnf("failed auth counter incr failed: %v", err)
		return
	}
	if err := client.Expire(ctx, key, time.Hour).Err(); err != nil {
		log.Warnf("failed auth counter expire failed: %v", err)
	}
}
