package handler

import (
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/internal/api/middleware"
	"github.com/qs3c/resume_go_server/internal/model"
	"github.com/qs3c/resume_go_server/internal/model/dto"
	"github.com/qs3c/resume_go_server/internal/pkg/razorpay"
	"github.com/qs3c/resume_go_server/internal/pkg/response"
	"github.com/qs3c/resume_go_server/internal/repository"
	"github.com/qs3c/resume_go_server/internal/service"
	"github.com/qs3c/resume_go_server/internal/testutil"
)

func setupBillingRouter(t *testing.T) (*gin.Engine, *gorm.DB, *service.CreditService, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	pricing, orders, credits := newBillingServices(db)
	h := NewBillingHandler(pricing, orders)

	router := gin.New()
	router.GET("/billing/catalog", h.GetCatalog)

	authed := router.Group("")
	authed.Use(middleware.Auth(testJWTSecret))
	{
		authed.POST("/billing/quote", h.Quote)
		authed.POST("/billing/orders", h.CreateOrder)
		authed.GET("/billing/orders", h.ListOrders)
		authed.GET("/billing/orders/:id", h.GetOrder)
		authed.POST("/billing/orders/:id/cancel", h.CancelOrder)
		authed.POST("/billing/orders/verify", h.VerifyPayment)
	}

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}
	return router, db, credits, cleanup
}

func TestBillingHandler_GetCatalog_Public(t *testing.T) {
	router, _, _, cleanup := setupBillingRouter(t)
	defer cleanup()

	w := performRequest(router, "GET", "/billing/catalog", nil, "")
	resp := parseResponse(t, w)

	require.Equal(t, response.CodeSuccess, resp.Code)

	var cat dto.CatalogResponse
	parseData(t, resp, &cat)
	assert.Equal(t, "INR", cat.Currency)
	require.Len(t, cat.Plans, 2)
	// 按价格升序
	assert.Equal(t, "lite_check", cat.Plans[0].ID)
	assert.Equal(t, "pro_monthly", cat.Plans[1].ID)
	require.Len(t, cat.AddOns, 1)
}

func TestBillingHandler_Quote_RequiresAuth(t *testing.T) {
	router, _, _, cleanup := setupBillingRouter(t)
	defer cleanup()

	w := performRequest(router, "POST", "/billing/quote", dto.QuoteRequest{PlanID: "lite_check"}, "")
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestBillingHandler_Quote_FreeCoupon(t *testing.T) {
	router, db, _, cleanup := setupBillingRouter(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	token := authToken(t, user.ID)

	w := performRequest(router, "POST", "/billing/quote", dto.QuoteRequest{
		PlanID:     "lite_check",
		CouponCode: "FIRST100",
	}, token)
	resp := parseResponse(t, w)

	require.Equal(t, response.CodeSuccess, resp.Code)

	var quote dto.QuoteResponse
	parseData(t, resp, &quote)
	assert.Equal(t, int64(9900), quote.OriginalAmount)
	assert.Equal(t, int64(9900), quote.DiscountAmount)
	assert.Equal(t, int64(0), quote.FinalAmount)
}

func TestBillingHandler_Quote_UnknownPlan(t *testing.T) {
	router, db, _, cleanup := setupBillingRouter(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	w := performRequest(router, "POST", "/billing/quote", dto.QuoteRequest{
		PlanID: "nonexistent",
	}, authToken(t, user.ID))
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestBillingHandler_CreateOrder_ZeroAmountSettlesInline(t *testing.T) {
	router, db, credits, cleanup := setupBillingRouter(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	token := authToken(t, user.ID)

	w := performRequest(router, "POST", "/billing/orders", dto.CreateOrderRequest{
		PlanID:     "lite_check",
		CouponCode: "FIRST100",
		Amount:     0,
	}, token)
	resp := parseResponse(t, w)

	require.Equal(t, response.CodeSuccess, resp.Code)

	var order dto.CreateOrderResponse
	parseData(t, resp, &order)
	assert.True(t, order.Settled)
	assert.Empty(t, order.OrderID)

	// 免支付订单当场发放额度
	balance, err := credits.GetBalance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, balance.Kinds[model.KindScoreCheck].Remaining)
}

func TestBillingHandler_CreateOrder_PriceMismatch(t *testing.T) {
	router, db, _, cleanup := setupBillingRouter(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	w := performRequest(router, "POST", "/billing/orders", dto.CreateOrderRequest{
		PlanID: "lite_check",
		Amount: 100, // 服务端重算是 9900
	}, authToken(t, user.ID))
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeParamError, resp.Code)
	assert.Equal(t, service.ErrPriceMismatch.Error(), resp.Message)
}

func TestBillingHandler_VerifyPayment_Settles(t *testing.T) {
	router, db, credits, cleanup := setupBillingRouter(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	token := authToken(t, user.ID)

	tx := testutil.TestTransaction(t, db, user.ID)
	txRepo := repository.NewTransactionRepository(db)
	require.NoError(t, txRepo.UpdateProviderOrderID(tx.ID, "order_test_1"))

	req := dto.VerifyPaymentRequest{
		TransactionID:     tx.ID,
		ProviderOrderID:   "order_test_1",
		ProviderPaymentID: "pay_test_1",
		ProviderSignature: razorpay.Sign("order_test_1", "pay_test_1", "rzp_test_secret"),
	}

	w := performRequest(router, "POST", "/billing/orders/verify", req, token)
	resp := parseResponse(t, w)

	require.Equal(t, response.CodeSuccess, resp.Code)

	var verify dto.VerifyPaymentResponse
	parseData(t, resp, &verify)
	assert.True(t, verify.Success)
	assert.Equal(t, 10, verify.CreditsGranted[model.KindOptimization])

	balance, err := credits.GetBalance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance.Kinds[model.KindOptimization].Remaining)
}

func TestBillingHandler_VerifyPayment_BadSignature(t *testing.T) {
	router, db, _, cleanup := setupBillingRouter(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	tx := testutil.TestTransaction(t, db, user.ID)
	txRepo := repository.NewTransactionRepository(db)
	require.NoError(t, txRepo.UpdateProviderOrderID(tx.ID, "order_test_2"))

	w := performRequest(router, "POST", "/billing/orders/verify", dto.VerifyPaymentRequest{
		TransactionID:     tx.ID,
		ProviderOrderID:   "order_test_2",
		ProviderPaymentID: "pay_test_2",
		ProviderSignature: "deadbeef",
	}, authToken(t, user.ID))
	resp := parseResponse(t, w)

	// 签名失败统一返回支付校验失败，不暴露细节
	assert.Equal(t, response.CodePaymentFailed, resp.Code)

	got, err := txRepo.GetByID(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxStatusFailed, got.Status)
}

func TestBillingHandler_VerifyPayment_WrongUser(t *testing.T) {
	router, db, _, cleanup := setupBillingRouter(t)
	defer cleanup()

	owner := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	tx := testutil.TestTransaction(t, db, owner.ID)

	w := performRequest(router, "POST", "/billing/orders/verify", dto.VerifyPaymentRequest{
		TransactionID:     tx.ID,
		ProviderOrderID:   "order_x",
		ProviderPaymentID: "pay_x",
		ProviderSignature: "sig",
	}, authToken(t, other.ID))
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodePermissionDenied, resp.Code)
}

func TestBillingHandler_CancelOrder(t *testing.T) {
	router, db, _, cleanup := setupBillingRouter(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	token := authToken(t, user.ID)
	tx := testutil.TestTransaction(t, db, user.ID)

	path := fmt.Sprintf("/billing/orders/%d/cancel", tx.ID)

	w := performRequest(router, "POST", path, nil, token)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	// 再取消是重复操作
	w = performRequest(router, "POST", path, nil, token)
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeDuplicateAction, resp.Code)
}

func TestBillingHandler_ListOrders(t *testing.T) {
	router, db, _, cleanup := setupBillingRouter(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	testutil.TestTransaction(t, db, user.ID)
	testutil.TestTransaction(t, db, user.ID, testutil.WithTxStatus(model.TxStatusSuccess))

	w := performRequest(router, "GET", "/billing/orders?page=1&page_size=10", nil, authToken(t, user.ID))
	resp := parseResponse(t, w)

	require.Equal(t, response.CodeSuccess, resp.Code)

	var page response.PageData
	parseData(t, resp, &page)
	assert.Equal(t, int64(2), page.Total)
}

func TestBillingHandler_GetOrder_NotFound(t *testing.T) {
	router, db, _, cleanup := setupBillingRouter(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	w := performRequest(router, "GET", "/billing/orders/99999", nil, authToken(t, user.ID))
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}
