package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/resume_go_server/internal/api/middleware"
	"github.com/qs3c/resume_go_server/internal/model/dto"
	"github.com/qs3c/resume_go_server/internal/pkg/razorpay"
	"github.com/qs3c/resume_go_server/internal/pkg/response"
	"github.com/qs3c/resume_go_server/internal/service"
)

type BillingHandler struct {
	pricingService *service.PricingService
	orderService   *service.OrderService
}

func NewBillingHandler(pricingService *service.PricingService, orderService *service.OrderService) *BillingHandler {
	return &BillingHandler{
		pricingService: pricingService,
		orderService:   orderService,
	}
}

// GetCatalog 套餐与加油包目录
// GET /api/v1/billing/catalog
func (h *BillingHandler) GetCatalog(c *gin.Context) {
	response.Success(c, h.pricingService.GetCatalog())
}

// Quote 询价
// POST /api/v1/billing/quote
func (h *BillingHandler) Quote(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	quote, err := h.pricingService.GetQuote(userID, &req)
	if err != nil {
		h.writePricingError(c, err)
		return
	}

	response.Success(c, h.pricingService.ToResponse(quote))
}

// CreateOrder 下单
// POST /api/v1/billing/orders
func (h *BillingHandler) CreateOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.orderService.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPriceMismatch):
			response.ParamError(c, err.Error())
		case errors.Is(err, razorpay.ErrGatewayUnavailable):
			response.ServerError(c, "支付网关暂时不可用，请稍后重试")
		default:
			h.writePricingError(c, err)
		}
		return
	}

	response.Success(c, resp)
}

// VerifyPayment 支付回传校验与结算
// POST /api/v1/billing/orders/verify
func (h *BillingHandler) VerifyPayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.orderService.VerifyAndSettle(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrTransactionDenied):
			response.PermissionError(c, err.Error())
		case errors.Is(err, service.ErrCouponAlreadyUsed):
			response.DuplicateError(c, err.Error())
		case errors.Is(err, service.ErrInvalidSignature),
			errors.Is(err, service.ErrOrderMismatch),
			errors.Is(err, service.ErrAmountMismatch),
			errors.Is(err, service.ErrTransactionClosed):
			// 细节不外泄，统一返回支付校验失败
			response.PaymentError(c, "")
		case errors.Is(err, razorpay.ErrGatewayUnavailable):
			response.ServerError(c, "支付网关暂时不可用，请稍后重试")
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "支付成功", resp)
}

// CancelOrder 取消未支付订单
// POST /api/v1/billing/orders/:id/cancel
func (h *BillingHandler) CancelOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	transactionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的交易 ID")
		return
	}

	if err := h.orderService.Cancel(userID, transactionID); err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrTransactionDenied):
			response.PermissionError(c, err.Error())
		case errors.Is(err, service.ErrTransactionClosed):
			response.DuplicateError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "订单已取消", nil)
}

// ListOrders 交易记录
// GET /api/v1/billing/orders
func (h *BillingHandler) ListOrders(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	txs, total, err := h.orderService.ListTransactions(userID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, txs)
}

// GetOrder 单笔交易详情
// GET /api/v1/billing/orders/:id
func (h *BillingHandler) GetOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	transactionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的交易 ID")
		return
	}

	tx, err := h.orderService.GetTransaction(userID, transactionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrTransactionDenied):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, tx)
}

// writePricingError 询价/下单共用的错误映射
func (h *BillingHandler) writePricingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrAddOnNotFound),
		errors.Is(err, service.ErrCouponNotFound),
		errors.Is(err, service.ErrCouponNotApplicable),
		errors.Is(err, service.ErrCouponAlreadyUsed),
		errors.Is(err, service.ErrCouponLimitReached):
		response.ParamError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
