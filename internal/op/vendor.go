package op

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AbdelzaherMuhammed/hypervel/internal/async"
	"github.com/AbdelzaherMuhammed/hypervel/internal/db"
	"github.com/AbdelzaherMuhammed/hypervel/internal/model"
	"github.com/AbdelzaherMuhammed/hypervel/internal/rdb"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/cache"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/digest"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
	"gorm.io/gorm"
)

const vendorTokenTTL = time.Hour

// Process-local tier, keyed by a fast digest of the token. Entries live
// for the process lifetime; the shared tier and the store re-validate.
var vendorCache = cache.New[uint64, model.Vendor](16)

func vendorTokenKey(token string) string {
	return "vendor:token:" + digest.Shared(token)
}

// VendorGetByKey resolves an API key to an active vendor through the
// tiered read path: local map, shared cache store, backing store. A
// backing-store hit re-populates the upper tiers out of band. Shared-tier
// failures degrade silently to the store; only a store miss or store
// failure is surfaced.
func VendorGetByKey(ctx context.Context, token string) (model.Vendor, error) {
	localKey := digest.Fast(token)
	if vendor, ok := vendorCache.Get(localKey); ok {
		return vendor, nil
	}

	sharedKey := vendorTokenKey(token)
	if client := rdb.GetClient(); client != nil {
		cached, err := client.Get(ctx, sharedKey).Result()
		if err == nil {
			var vendor model.Vendor
			if err := json.Unmarshal([]byte(cached), &vendor); err == nil {
				vendorCache.Set(localKey, vendor)
				return vendor, nil
			}
			log.Warnf("failed to unmarshal cached vendor: %v", err)
		} else if !rdb.IsNil(err) {
			log.Warnf("vendor cache store read failed: %v", err)
		}
	}

	var vendor model.Vendor
	err := authPool.Do(ctx, func() error {
		return db.GetDB().WithContext(ctx).
			Where("api_key = ? AND status = ?", token, model.VendorStatusActive).
			First(&vendor).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return model.Vendor{}, ErrNotFound
		}
		return model.Vendor{}, err
	}

	// Write-back so concurrent readers do not pay the lookup twice.
	async.Submit(func() {
		vendorCache.Set(localKey, vendor)
		vendorWarmShared(sharedKey, vendor)
	})
	return vendor, nil
}

func vendorWarmShared(sharedKey string, vendor model.Vendor) {
	client := rdb.GetClient()
	if client == nil {
		return
	}
	payload, err := json.Marshal(vendor)
	if err != nil {
		log.Warnf("failed to marshal vendor for cache: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Set(ctx, sharedKey, payload, vendorTokenTTL).Err(); err != nil {
		log.Warnf("failed to warm vendor cache: %v", err)
	}
}

func vendorRefreshCache(ctx context.Context) error {
	var vendors []model.Vendor
	err := authPool.Do(ctx, func() error {
		return db.GetDB().WithContext(ctx).
			Where("status = ?", model.VendorStatusActive).
			Find(&vendors).Error
	})
	if err != nil {
		return err
	}
	for _, vendor := range vendors {
		vendorCache.Set(digest.Fast(vendor.APIKey), vendor)
	}
	return nil
}

// VendorRefreshCacheTask re-warms the local vendor tier so key rotations
// and deactivations converge without a restart.
func VendorRefreshCacheTask() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	vendorCache.Clear()
	if err := vendorRefreshCache(ctx); err != nil {
		log.Warnf("vendor cache refresh failed: %v", err)
	}
}
