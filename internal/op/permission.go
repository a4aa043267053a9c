package op

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AbdelzaherMuhammed/hypervel/internal/async"
	"github.com/AbdelzaherMuhammed/hypervel/internal/db"
	"github.com/AbdelzaherMuhammed/hypervel/internal/model"
	"github.com/AbdelzaherMuhammed/hypervel/internal/rdb"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
	"gorm.io/gorm"
)

const permissionTTL = 24 * time.Hour

// Friendly endpoint names mapped to permission flag names. Endpoints not
// listed here use their literal name as the permission key.
var permissionAlias = map[string]string{
	"decode": "vin_decode",
	"vin":    "vin_decode",
}

func PermissionFlag(endpoint string) string {
	if flag, ok := permissionAlias[endpoint]; ok {
		return flag
	}
	return endpoint
}

func permissionKey(vendorID int) string {
	return fmt.Sprintf("vendor:permissions:%d", vendorID)
}

// PermissionCheck reports whether the vendor holds the flag for the given
// endpoint. The permission map is read from the shared cache store when
// present, otherwise from the backing store with a lazy-expiry write-back.
// Absence of the flag, or any value other than an explicit true, denies.
func PermissionCheck(ctx context.Context, vendorID int, endpoint string) (bool, error) {
	flag := PermissionFlag(endpoint)

	perms, cached := permissionsFromShared(ctx, vendorID)
	if !cached {
		var vendor model.Vendor
		err := authPool.Do(ctx, func() error {
			return db.GetDB().WithContext(ctx).First(&vendor, vendorID).Error
		})
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return false, ErrNotFound
			}
			return false, err
		}
		perms = vendor.Permissions
		async.Submit(func() { permissionsWarmShared(vendorID, perms) })
	}

	return perms[flag], nil
}

func permissionsFromShared(ctx context.Context, vendorID int) (map[string]bool, bool) {
	client := rdb.GetClient()
	if client == nil {
		return nil, false
	}
	cached, err := client.Get(ctx, permissionKey(vendorID)).Result()
	if err != nil {
		if !rdb.IsNil(err) {
			log.Warnf("permission cache store read failed: %v", err)
		}
		return nil, false
	}
	var perms map[string]bool
	if err := json.Unmarshal([]byte(cached), &perms); err != nil {
		log.Warnf("failed to unmarshal cached permissions: %v", err)
		return nil, false
	}
	return perms, true
}

func permissionsWarmShared(vendorID int, perms map[string]bool) {
	client := rdb.GetClient()
	if client == nil {
		return
	}
	payload, err := json.Marshal(perms)
	if err != nil {
		log.Warnf("failed to marshal permissions for cache: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Set(ctx, permissionKey(vendorID), payload, permissionTTL).Err(); err != nil {
		log.Warnf("failed to warm permission cache: %v", err)
	}
}
