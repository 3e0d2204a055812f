package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/config"
	"github.com/qs3c/resume_go_server/internal/catalog"
	"github.com/qs3c/resume_go_server/internal/pkg/jwt"
	"github.com/qs3c/resume_go_server/internal/pkg/response"
	"github.com/qs3c/resume_go_server/internal/repository"
	"github.com/qs3c/resume_go_server/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testJWTSecret = "test-secret-key"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT: config.JWTConfig{
			Secret:      testJWTSecret,
			ExpireHours: 24,
		},
		Razorpay: config.RazorpayConfig{
			KeyID:     "rzp_test_key",
			KeySecret: "rzp_test_secret",
			Currency:  "INR",
		},
		Billing: config.BillingConfig{
			Plans: []config.PlanConfig{
				{ID: "lite_check", Name: "体验评分", Price: 9900, DurationDays: 30, ScoreChecks: 3},
				{
					ID: "pro_monthly", Name: "专业版月付", Price: 49900, DurationDays: 30,
					Optimizations: 10, ScoreChecks: 10, LinkedinMessages: 10, GuidedBuilds: 3,
				},
			},
			AddOns: []config.AddOnConfig{
				{ID: "opt_pack_5", Name: "优化加油包", Price: 19900, Kind: "optimization", Quantity: 5, ExpireDays: 90},
			},
			Coupons: []config.CouponConfig{
				{Code: "FIRST100", PlanIDs: []string{"lite_check"}, Type: "free"},
			},
		},
	}
}

func newTestCatalog() *catalog.Catalog {
	return catalog.New(testConfig())
}

func newBillingServices(db *gorm.DB) (*service.PricingService, *service.OrderService, *service.CreditService) {
	cfg := testConfig()
	cat := catalog.New(cfg)
	userRepo := repository.NewUserRepository(db)
	txRepo := repository.NewTransactionRepository(db)

	credits := service.NewCreditService(cat,
		repository.NewSubscriptionRepository(db),
		repository.NewAddOnCreditRepository(db))
	pricing := service.NewPricingService(cat, userRepo, txRepo)
	orders := service.NewOrderService(
		db, cat, pricing, credits, txRepo, userRepo,
		repository.NewWalletRepository(db),
		nil, &cfg.Razorpay, nil, nil,
	)
	return pricing, orders, credits
}

func authToken(t *testing.T, userID int64) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, testJWTSecret, 24)
	require.NoError(t, err)
	return token
}

func performRequest(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// parseData 把 data 字段再解到具体类型
func parseData(t *testing.T, resp response.Response, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}
