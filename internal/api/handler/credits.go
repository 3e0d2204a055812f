package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/resume_go_server/internal/api/middleware"
	"github.com/qs3c/resume_go_server/internal/pkg/response"
	"github.com/qs3c/resume_go_server/internal/service"
)

type CreditsHandler struct {
	creditService *service.CreditService
}

func NewCreditsHandler(creditService *service.CreditService) *CreditsHandler {
	return &CreditsHandler{
		creditService: creditService,
	}
}

// GetBalance 账户额度汇总
// GET /api/v1/credits/balance
func (h *CreditsHandler) GetBalance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	balance, err := h.creditService.GetBalance(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, balance)
}
