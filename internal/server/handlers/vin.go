package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/AbdelzaherMuhammed/hypervel/internal/conf"
	"github.com/AbdelzaherMuhammed/hypervel/internal/model"
	"github.com/AbdelzaherMuhammed/hypervel/internal/op"
	"github.com/AbdelzaherMuhammed/hypervel/internal/server/middleware"
	"github.com/AbdelzaherMuhammed/hypervel/internal/server/reqinfo"
	"github.com/AbdelzaherMuhammed/hypervel/internal/server/resp"
	"github.com/AbdelzaherMuhammed/hypervel/internal/server/router"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
	"github.com/AbdelzaherMuhammed/hypervel/internal/vin"
	"github.com/gin-gonic/gin"
)

func init() {
	router.NewGroupRouter("/api/v1").
		Use(middleware.APIKeyAuth()).
		Use(middleware.QuotaGuard()).
		Use(middleware.RequireJSON()).
		AddRoute(
			router.NewRoute("/vin/decode", http.MethodPost).
				Handle(decode),
		)
}

var (
	resolver     *vin.Resolver
	resolverOnce sync.Once
)

// getResolver builds the resolver lazily so config is loaded by the time
// route handlers run.
func getResolver() *vin.Resolver {
	resolverOnce.Do(func() {
		cfg := conf.AppConfig.Vin
		fallback := vin.NewFallback(
			cfg.FallbackEnabled,
			cfg.FallbackURL,
			time.Duration(cfg.FallbackTimeout)*time.Second,
		)
		resolver = vin.NewResolver(cfg.MatchThreshold, cfg.ScanLimit, fallback)
	})
	return resolver
}

type decodeRequest struct {
	Vin string `json:"vin" form:"vin"`
}

func decode(c *gin.Context) {
	start := time.Now()
	vendor := c.MustGet(middleware.CtxVendor).(model.Vendor)
	payload := c.MustGet(middleware.CtxPayload).(reqinfo.Payload)

	// A bind failure means the body itself could not be parsed; a parsable
	// body with a missing or bad vin falls through to field validation.
	var req decodeRequest
	if err := c.ShouldBind(&req); err != nil {
		resp.ValidationError(c, map[string][]string{
			"body": {"The request body could not be parsed."},
		})
		return
	}
	if errs, ok := vin.Validate(req.Vin); !ok {
		audit(vendor, payload, `{"error":"validation failed"}`, start)
		resp.ValidationError(c, errs)
		return
	}

	result, err := getResolver().Resolve(c.Request.Context(), req.Vin, vendor)
	if err != nil {
		log.Errorf("vin resolution failed for %s: %v", req.Vin, err)
		resp.Error(c, http.StatusInternalServerError, resp.CodeInternal, resp.ErrInternalServer)
		return
	}

	audit(vendor, payload, responseJSON(result), start)
	resp.Success(c, result.Message, result.Data)
}

func responseJSON(result vin.Result) string {
	raw, err := json.Marshal(result.Data)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func audit(vendor model.Vendor, payload reqinfo.Payload, response string, start time.Time) {
	op.AuditLogAdd(model.APICallLog{
		VendorID:        vendor.ID,
		Endpoint:        payload.Endpoint,
		RequestPayload:  payload.JSON(),
		ResponsePayload: response,
		ClientIP:        payload.ClientIP,
		UserAgent:       payload.UserAgent,
		DurationMs:      int(time.Since(start).Milliseconds()),
	})
}
