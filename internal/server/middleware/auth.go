package middleware

import (
	"errors"
	"net/http"

	"github.com/AbdelzaherMuhammed/hypervel/internal/async"
	"github.com/AbdelzaherMuhammed/hypervel/internal/conf"
	"github.com/AbdelzaherMuhammed/hypervel/internal/model"
	"github.com/AbdelzaherMuhammed/hypervel/internal/op"
	"github.com/AbdelzaherMuhammed/hypervel/internal/server/reqinfo"
	"github.com/AbdelzaherMuhammed/hypervel/internal/server/resp"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Request-scope keys set once the pipeline authorizes a call.
const (
	CtxVendor  = "vendor"
	CtxPayload = "log_payload"
)

// APIKeyAuth is the authentication pipeline: key extraction, vendor
// resolution, permission check, usage metrics and audit recording. Vendor
// resolution runs concurrently with building the request log payload; the
// permission check runs concurrently with the metrics update. Denials and
// failed attempts are recorded out of band and never delay the response.
func APIKeyAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(conf.AppConfig.Auth.Header)
		if apiKey == "" {
			resp.Error(c, http.StatusUnauthorized, resp.CodeMissingKey, resp.ErrMissingKey)
			return
		}

		var vendor model.Vendor
		var vendorErr error
		var payload reqinfo.Payload

		g := errgroup.Group{}
		g.Go(func() error {
			vendor, vendorErr = op.VendorGetByKey(c.Request.Context(), apiKey)
			return nil
		})
		g.Go(func() error {
			payload = reqinfo.Build(c)
			return nil
		})
		g.Wait()

		if vendorErr != nil {
			op.AuthAttemptAdd(model.AuthAttempt{
				APIKey:   apiKey,
				Endpoint: payload.Endpoint,
				ClientIP: payload.ClientIP,
				Reason:   resp.ErrInvalidKey,
			})
			if errors.Is(vendorErr, op.ErrNotFound) {
				resp.Error(c, http.StatusUnauthorized, resp.CodeInvalidKey, resp.ErrInvalidKey)
				return
			}
			log.Errorf("vendor resolution failed: %v", vendorErr)
			resp.Error(c, http.StatusInternalServerError, resp.CodeInternal, resp.ErrInternalServer)
			return
		}

		var allowed bool
		var permErr error

		g = errgroup.Group{}
		g.Go(func() error {
			allowed, permErr = op.PermissionCheck(c.Request.Context(), vendor.ID, payload.Endpoint)
			return nil
		})
		g.Go(func() error {
			// Best-effort: metric failures are logged inside, never surfaced.
			async.Submit(func() { op.MetricsRecordSuccess(vendor.ID) })
			return nil
		})
		g.Wait()

		if permErr != nil {
			log.Errorf("permission check failed for vendor %d: %v", vendor.ID, permErr)
			resp.Error(c, http.StatusInternalServerError, resp.CodeInternal, resp.ErrInternalServer)
			return
		}
		if !allowed {
			op.AuthAttemptAdd(model.AuthAttempt{
				APIKey:   apiKey,
				Endpoint: payload.Endpoint,
				ClientIP: payload.ClientIP,
				Reason:   resp.ErrNoPermission,
			})
			resp.Error(c, http.StatusUnauthorized, resp.CodeDenied, resp.ErrNoPermission)
			return
		}

		c.Set(CtxVendor, vendor)
		c.Set(CtxPayload, payload)
		c.Next()
	}
}

// QuotaGuard runs after authorization for keys on the fixed allow-list.
// All other keys bypass the ledger entirely.
func QuotaGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(conf.AppConfig.Auth.Header)
		if !op.QuotaApplies(apiKey) {
			c.Next()
			return
		}

		vendor := c.MustGet(CtxVendor).(model.Vendor)
		if err := op.QuotaConsume(c.Request.Context(), apiKey, vendor); err != nil {
			if errors.Is(err, op.ErrQuotaExceeded) {
				resp.Error(c, http.StatusTooManyRequests, resp.CodeDenied, resp.ErrQuotaExceeded)
				return
			}
			log.Errorf("quota check failed for vendor %d: %v", vendor.ID, err)
			resp.Error(c, http.StatusInternalServerError, resp.CodeInternal, resp.ErrInternalServer)
			return
		}
		c.Next()
	}
}
