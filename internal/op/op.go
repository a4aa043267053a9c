package op

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/workpool"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// Separate pools so a burst of VIN scans cannot starve authentication
// lookups of backing-store slots, and vice versa.
var (
	authPool *workpool.Pool
	vinPool  *workpool.Pool
)

func Init(authConcurrency, vinConcurrency int64) {
	authPool = workpool.New(authConcurrency)
	vinPool = workpool.New(vinConcurrency)
}

// InitCache warms the process-local caches from the backing store.
func InitCache() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := vendorRefreshCache(ctx); err != nil {
		return fmt.Errorf("vendor refresh cache error: %v", err)
	}
	return nil
}
