package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/AbdelzaherMuhammed/hypervel/internal/conf"
	"github.com/AbdelzaherMuhammed/hypervel/internal/db"
	"github.com/AbdelzaherMuhammed/hypervel/internal/model"
	"github.com/AbdelzaherMuhammed/hypervel/internal/op"
	"github.com/AbdelzaherMuhammed/hypervel/internal/rdb"
	"github.com/AbdelzaherMuhammed/hypervel/internal/server/resp"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	conf.AppConfig.Auth = conf.Auth{Header: "x-api-key", DBConcurrency: 5}
	conf.AppConfig.Quota = conf.Quota{Timezone: "UTC", Default: 1000}
	conf.AppConfig.Vin = conf.Vin{MatchThreshold: 10, ScanLimit: 1000, DBConcurrency: 10}
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	db.SetDB(gdb)

	mr := miniredis.RunT(t)
	rdb.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	op.Init(conf.AppConfig.Auth.DBConcurrency, conf.AppConfig.Vin.DBConcurrency)
	return NewEngine(), mr
}

func seedVendor(t *testing.T, vendor model.Vendor) {
	t.Helper()
	require.NoError(t, db.GetDB().Create(&vendor).Error)
}

func decodeVin(t *testing.T, r *gin.Engine, apiKey, vin string) (*httptest.ResponseRecorder, resp.ResponseStruct) {
	t.Helper()

	body, err := json.Marshal(map[string]string{"vin": vin})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vin/decode", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var envelope resp.ResponseStruct
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func TestDecode_MissingKey(t *testing.T) {
	r, _ := newTestServer(t)

	w, envelope := decodeVin(t, r, "", "MR2B19F33H1007504")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, envelope.Success)
	assert.Equal(t, resp.CodeMissingKey, envelope.Code)
}

func TestDecode_UnknownKey(t *testing.T) {
	r, _ := newTestServer(t)

	w, envelope := decodeVin(t, r, "no-such-key-e2e", "MR2B19F33H1007504")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, resp.CodeInvalidKey, envelope.Code)
}

func TestDecode_NoPermission(t *testing.T) {
	r, _ := newTestServer(t)
	seedVendor(t, model.Vendor{
		ID:          1,
		Name:        "NoPerm",
		APIKey:      "key-noperm-e2e",
		Status:      model.VendorStatusActive,
		Permissions: map[string]bool{"reports": true},
	})

	w, envelope := decodeVin(t, r, "key-noperm-e2e", "MR2B19F33H1007504")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, resp.CodeDenied, envelope.Code)
}

func TestDecode_InvalidVin(t *testing.T) {
	r, _ := newTestServer(t)
	seedVendor(t, model.Vendor{
		ID:          1,
		Name:        "Acme",
		APIKey:      "key-badvin-e2e",
		Status:      model.VendorStatusActive,
		Permissions: map[string]bool{"vin_decode": true},
	})

	// Contains the excluded letter O and is too short.
	w, envelope := decodeVin(t, r, "key-badvin-e2e", "MR2B19FOOH10")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, envelope.Success)
	assert.NotNil(t, envelope.Errors)
}

func TestDecode_MalformedBody(t *testing.T) {
	r, _ := newTestServer(t)
	seedVendor(t, model.Vendor{
		ID:          1,
		Name:        "Acme",
		APIKey:      "key-badbody-e2e",
		Status:      model.VendorStatusActive,
		Permissions: map[string]bool{"vin_decode": true},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vin/decode", strings.NewReader(`{"vin":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", "key-badbody-e2e")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var envelope resp.ResponseStruct
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, envelope.Success)

	errs, ok := envelope.Errors.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "body")
}

func seedFullMatch(t *testing.T) {
	t.Helper()
	gdb := db.GetDB()
	require.NoError(t, gdb.Create(&model.CarMake{ID: 1, Name: "Toyota"}).Error)
	require.NoError(t, gdb.Create(&model.CarModel{ID: 2, MakeID: 1, Name: "Corolla"}).Error)
	require.NoError(t, gdb.Create(&model.CarYear{ID: 3, Year: 2017}).Error)
	require.NoError(t, gdb.Create(&model.CarTrim{ID: 4, ModelID: 2, Name: "XLE", BasePrice: 21000}).Error)

	makeID, modelID, yearID, trimID := 1, 2, 3, 4
	require.NoError(t, gdb.Create(&model.VinLog{
		Vin:        "MR2B19F33H1007500",
		TrimVin:    "MR2B19F33H",
		MakeID:     &makeID,
		ModelID:    &modelID,
		YearID:     &yearID,
		TrimID:     &trimID,
		LinkStatus: model.VinLinkTrim,
		Source:     "seed",
	}).Error)
}

func TestDecode_FullMatch(t *testing.T) {
	r, _ := newTestServer(t)
	seedVendor(t, model.Vendor{
		ID:          1,
		Name:        "Acme",
		APIKey:      "key-match-e2e",
		Status:      model.VendorStatusActive,
		Permissions: map[string]bool{"vin_decode": true},
	})
	seedFullMatch(t)

	w, envelope := decodeVin(t, r, "key-match-e2e", "MR2B19F33H1007504")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, envelope.Success)
	assert.Equal(t, "Data exists!", envelope.Message)

	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Toyota", data["manufacturer"])
	assert.Equal(t, "Corolla", data["model"])
	assert.Equal(t, float64(2017), data["year"])
	assert.Equal(t, "XLE", data["trim"])

	// Each resolution appends a new record, never rewrites the match.
	require.Eventually(t, func() bool {
		var count int64
		if err := db.GetDB().Model(&model.VinLog{}).Where("vin = ?", "MR2B19F33H1007504").Count(&count).Error; err != nil {
			return false
		}
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)

	var row model.VinLog
	require.NoError(t, db.GetDB().Where("vin = ?", "MR2B19F33H1007504").First(&row).Error)
	assert.Equal(t, "Acme_api", row.Source)
	assert.Equal(t, model.VinLinkTrim, row.LinkStatus)
}

func TestDecode_Idempotent(t *testing.T) {
	r, _ := newTestServer(t)
	seedVendor(t, model.Vendor{
		ID:          1,
		Name:        "Acme",
		APIKey:      "key-idem-e2e",
		Status:      model.VendorStatusActive,
		Permissions: map[string]bool{"vin_decode": true},
	})
	seedFullMatch(t)

	_, first := decodeVin(t, r, "key-idem-e2e", "MR2B19F33H1007504")
	_, second := decodeVin(t, r, "key-idem-e2e", "MR2B19F33H1007504")

	assert.Equal(t, "Data exists!", first.Message)
	assert.Equal(t, first.Data, second.Data)
}

func TestDecode_NoMatchIsPartial(t *testing.T) {
	r, _ := newTestServer(t)
	seedVendor(t, model.Vendor{
		ID:          1,
		Name:        "Acme",
		APIKey:      "key-nomatch-e2e",
		Status:      model.VendorStatusActive,
		Permissions: map[string]bool{"vin_decode": true},
	})

	w, envelope := decodeVin(t, r, "key-nomatch-e2e", "WVWZZZ1JZ3W000001")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, envelope.Success)
	assert.Equal(t, "Could not get the full response for this VIN!", envelope.Message)
}

func TestDecode_QuotaExhausted(t *testing.T) {
	r, _ := newTestServer(t)
	seedVendor(t, model.Vendor{
		ID:          1,
		Name:        "Metered",
		APIKey:      "key-quota-e2e",
		Status:      model.VendorStatusActive,
		Permissions: map[string]bool{"vin_decode": true},
	})
	seedFullMatch(t)

	conf.AppConfig.Quota.Keys = []string{"key-quota-e2e"}
	conf.AppConfig.Quota.Caps = map[string]int{"Metered": 1}
	t.Cleanup(func() {
		conf.AppConfig.Quota.Keys = nil
		conf.AppConfig.Quota.Caps = nil
	})

	w, _ := decodeVin(t, r, "key-quota-e2e", "MR2B19F33H1007504")
	require.Equal(t, http.StatusOK, w.Code)

	w, envelope := decodeVin(t, r, "key-quota-e2e", "MR2B19F33H1007504")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, resp.CodeDenied, envelope.Code)
}

func TestHealth(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
