package op

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/AbdelzaherMuhammed/hypervel/internal/conf"
	"github.com/AbdelzaherMuhammed/hypervel/internal/model"
	"github.com/AbdelzaherMuhammed/hypervel/internal/rdb"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
)

var (
	quotaLoc     *time.Location
	quotaLocOnce sync.Once
)

func quotaLocation() *time.Location {
	quotaLocOnce.Do(func() {
		loc, err := time.LoadLocation(conf.AppConfig.Quota.Timezone)
		if err != nil {
			log.Warnf("invalid quota timezone %q, falling back to UTC: %v",
				conf.AppConfig.Quota.Timezone, err)
			loc = time.UTC
		}
		quotaLoc = loc
	})
	return quotaLoc
}

// QuotaApplies reports whether the key is on the fixed allow-list subject
// to daily quota. All other keys bypass the ledger entirely.
func QuotaApplies(apiKey string) bool {
	for _, k := range conf.AppConfig.Quota.Keys {
		if k == apiKey {
			return true
		}
	}
	return false
}

func quotaCap(vendor model.Vendor) int {
	if cap, ok := conf.AppConfig.Quota.Caps[vendor.Name]; ok {
		return cap
	}
	return conf.AppConfig.Quota.Default
}

func quotaKey(apiKey string, day string) string {
	return fmt.Sprintf("api_limit:%s:%s", apiKey, day)
}

// QuotaConsume applies the daily ledger: read today's counter, deny when
// at the vendor's cap, otherwise increment and align expiry to local
// midnight. Check-then-increment is deliberately not atomic; concurrent
// requests may overshoot the cap slightly, which is accepted over paying
// for a distributed lock.
func QuotaConsume(ctx context.Context, apiKey string, vendor model.Vendor) error {
	client := rdb.GetClient()
	if client == nil {
		return nil
	}

	loc := quotaLocation()
	now := time.Now().In(loc)
	key := quotaKey(apiKey, now.Format("2006-01-02"))

	count := 0
	val, err := client.Get(ctx, key).Result()
	if err == nil {
		count, _ = strconv.Atoi(val)
	} else if !rdb.IsNil(err) {
		return err
	}

	if count >= quotaCap(vendor) {
		return ErrQuotaExceeded
	}

	if err := client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	if err := client.Expire(ctx, key, midnight.Sub(now)).Err(); err != nil {
		log.Warnf("failed to set quota expiry for %s: %v", key, err)
	}
	return nil
}
