package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richardliu001/store-credit-service/internal/config"
	"github.com/richardliu001/store-credit-service/internal/integration"
	"github.com/richardliu001/store-credit-service/internal/logger"
	"github.com/richardliu001/store-credit-service/internal/model"
	"github.com/richardliu001/store-credit-service/internal/repo"
	"github.com/richardliu001/store-credit-service/internal/service"
	"github.com/richardliu001/store-credit-service/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T, integrations []string) (*gin.Engine, *repo.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.Option{}, &model.Affiliate{}, &model.CreditBalance{}, &model.OutboxEvent{}))

	ctx := context.Background()
	log := logger.NewNop()
	cfg := config.Default()
	cfg.StoreCredit.EnabledIntegrations = integrations
	cfg.StoreCredit.ChangePaymentMethod = true

	r := repo.NewRepository(db, nil, log)
	require.NoError(t, r.EnsureLedgerSchema(ctx))
	require.NoError(t, r.SeedSettings(ctx, cfg.StoreCredit))
	require.NoError(t, r.CreateAffiliate(ctx, &model.Affiliate{AffiliateID: 3, UserID: 7}))

	sel := integration.NewSelector(wallet.NewTableAdapter(db, false), nil, r, log)
	svc := service.NewCreditService(r, r, sel, r, cfg.StoreCredit, log)
	cfg.Auth.JWTSecret = testSecret
	return NewRouter(svc, config.RateLimitConfig{RPS: 1000, Burst: 1000}, cfg.Auth, log), r
}

func token(t *testing.T, userID uint64, caps ...string) string {
	tok, err := IssueToken(testSecret, userID, caps, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(router http.Handler, method, path, tok string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	out := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestAdjustAndRead(t *testing.T) {
	router, _ := newTestRouter(t, []string{integration.WooCommerce})
	admin := token(t, 1, CapManageAffiliates)

	w, out := do(router, http.MethodPost, "/v1/affiliates/3/store-credit/adjustments", admin,
		map[string]string{"movement": "increase", "amount": "25.00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "$25.00", out["balance"])

	w, out = do(router, http.MethodGet, "/v1/affiliates/3/store-credit/balance", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["available"])
	assert.Equal(t, "$25.00", out["balance"])

	// the affiliate may read its own history
	w, out = do(router, http.MethodGet, "/v1/affiliates/3/store-credit/transactions", token(t, 7), nil)
	require.Equal(t, http.StatusOK, w.Code)
	txs := out["transactions"].([]interface{})
	require.Len(t, txs, 1)
	tx := txs[0].(map[string]interface{})
	assert.Equal(t, "manual", tx["type"])
	assert.Equal(t, "increase", tx["movement"])
	assert.EqualValues(t, 1, tx["by_user_id"])

	w, _ = do(router, http.MethodGet, "/v1/affiliates/3/store-credit/transactions", token(t, 8), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdjust_Failures(t *testing.T) {
	router, _ := newTestRouter(t, []string{integration.WooCommerce})
	admin := token(t, 1, CapManageAffiliates)

	w, _ := do(router, http.MethodPost, "/v1/affiliates/3/store-credit/adjustments", "",
		map[string]string{"movement": "increase", "amount": "1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(router, http.MethodPost, "/v1/affiliates/3/store-credit/adjustments", token(t, 7),
		map[string]string{"movement": "increase", "amount": "1"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, out := do(router, http.MethodPost, "/v1/affiliates/3/store-credit/adjustments", admin,
		map[string]string{"movement": "sideways", "amount": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgRejected, out["error"])

	w, _ = do(router, http.MethodPost, "/v1/affiliates/3/store-credit/adjustments", admin,
		map[string]string{"movement": "increase", "amount": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, amt := range []string{"1e20", "0.000000001"} {
		w, out = do(router, http.MethodPost, "/v1/affiliates/3/store-credit/adjustments", admin,
			map[string]string{"movement": "increase", "amount": amt})
		assert.Equal(t, http.StatusBadRequest, w.Code, amt)
		assert.Equal(t, msgRejected, out["error"], amt)
	}

	w, out = do(router, http.MethodPost, "/v1/affiliates/3/store-credit/adjustments", admin,
		map[string]string{"movement": "decrease", "amount": "5"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, msgRetryLater, out["error"])
}

func TestBalance_Unavailable(t *testing.T) {
	router, r := newTestRouter(t, nil)
	admin := token(t, 1, CapManageAffiliates)

	w, out := do(router, http.MethodGet, "/v1/affiliates/3/store-credit/balance", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, out["available"])
	assert.Nil(t, out["balance"])

	require.NoError(t, r.SetEnabledIntegrations(context.Background(), []string{integration.WooCommerce}))
	w, out = do(router, http.MethodGet, "/v1/affiliates/3/store-credit/balance?formatted=false", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["available"])
	assert.Equal(t, "0", out["balance"])

	w, _ = do(router, http.MethodGet, "/v1/affiliates/99/store-credit/balance", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPayoutMethodAndOptIn(t *testing.T) {
	router, _ := newTestRouter(t, []string{integration.WooCommerce})
	self := token(t, 7)

	w, out := do(router, http.MethodGet, "/v1/affiliates/3/store-credit/payout-method", self, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cash", out["payout_method"])

	w, _ = do(router, http.MethodPut, "/v1/affiliates/3/store-credit/opt-in", self, map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, out = do(router, http.MethodGet, "/v1/affiliates/3/store-credit/payout-method", self, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "store_credit", out["payout_method"])

	w, _ = do(router, http.MethodPut, "/v1/affiliates/3/store-credit/opt-in", token(t, 8), map[string]bool{"enabled": false})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	router, _ := newTestRouter(t, []string{integration.WooCommerce})

	forged, err := IssueToken("other-secret", 1, []string{CapManageAffiliates}, time.Hour)
	require.NoError(t, err)
	w, _ := do(router, http.MethodGet, "/v1/affiliates/3/store-credit/balance", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := IssueToken(testSecret, 1, []string{CapManageAffiliates}, -time.Minute)
	require.NoError(t, err)
	w, _ = do(router, http.MethodGet, "/v1/affiliates/3/store-credit/balance", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
