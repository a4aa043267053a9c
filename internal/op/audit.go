package op

import (
	"context"
	"sync"
	"time"

	"github.com/AbdelzaherMuhammed/hypervel/internal/async"
	"github.com/AbdelzaherMuhammed/hypervel/internal/db"
	"github.com/AbdelzaherMuhammed/hypervel/internal/model"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
)

const auditLogMaxSize = 20

var auditLogCache = make([]model.APICallLog, 0, auditLogMaxSize)
var auditLogCacheLock sync.Mutex

var auditLogFlushLock sync.Mutex

func auditLogFlushToDB(ctx context.Context) error {
	auditLogFlushLock.Lock()
	defer auditLogFlushLock.Unlock()

	auditLogCacheLock.Lock()
	if len(auditLogCache) == 0 {
		auditLogCacheLock.Unlock()
		return nil
	}
	batch := make([]model.APICallLog, len(auditLogCache))
	copy(batch, auditLogCache)
	flushedUpto := len(batch)
	auditLogCacheLock.Unlock()

	result := db.GetDB().WithContext(ctx).Create(&batch)
	if result.Error != nil {
		return result.Error
	}

	auditLogCacheLock.Lock()
	if len(auditLogCache) >= flushedUpto {
		auditLogCache = auditLogCache[flushedUpto:]
	} else {
		auditLogCache = auditLogCache[:0]
	}
	if len(auditLogCache) == 0 {
		auditLogCache = make([]model.APICallLog, 0, auditLogMaxSize)
	}
	auditLogCacheLock.Unlock()

	return nil
}

// AuditLogAdd buffers one success audit row. The buffer flushes to the
// backing store when full, on the periodic task, and at shutdown.
func AuditLogAdd(entry model.APICallLog) {
	auditLogCacheLock.Lock()
	auditLogCache = append(auditLogCache, entry)
	full := len(auditLogCache) >= auditLogMaxSize
	auditLogCacheLock.Unlock()

	if full {
		async.Submit(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := auditLogFlushToDB(ctx); err != nil {
				log.Errorf("audit log flush failed: %v", err)
			}
		})
	}
}

// AuditLogSaveDBTask is registered with the task runner and as a shutdown
// hook.
func AuditLogSaveDBTask(ctx context.Context) error {
	log.Debugf("audit log save db task started")
	startTime := time.Now()
	defer func() {
		log.Debugf("audit log save db task finished, save time: %s", time.Since(startTime))
	}()
	return auditLogFlushToDB(ctx)
}

// AuditLogFlush is the shutdown hook draining whatever is still
// buffered.
func AuditLogFlush() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return auditLogFlushToDB(ctx)
}

// AuthAttemptAdd records a denied authentication out of band, together
// with the hourly failed-auth counter.
func AuthAttemptAdd(attempt model.AuthAttempt) {
	async.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := authPool.Do(ctx, func() error {
			return db.GetDB().WithContext(ctx).Create(&attempt).Error
		})
		if err != nil {
			log.Errorf("failed to record auth attempt: %v", err)
		}
	})
	async.Submit(MetricsRecordFailedAuth)
}
