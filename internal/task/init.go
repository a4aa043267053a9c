package task

import (
	"context"
	"time"

	"github.com/AbdelzaherMuhammed/hypervel/internal/op"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
)

const (
	TaskVendorRefresh = "vendor_cache_refresh"
	TaskAuditLogSave  = "audit_log_save"
)

func Init() {
	// Re-warm the local vendor tier so key rotations converge without a
	// restart.
	Register(TaskVendorRefresh, 10*time.Minute, false, op.VendorRefreshCacheTask)

	Register(TaskAuditLogSave, 10*time.Minute, false, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := op.AuditLogSaveDBTask(ctx); err != nil {
			log.Warnf("audit log save db task failed: %v", err)
		}
	})
}
