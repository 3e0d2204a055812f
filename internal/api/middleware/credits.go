package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/resume_go_server/internal/pkg/response"
	"github.com/qs3c/resume_go_server/internal/service"
)

// CreditCheck 额度预检中间件：指定资源没有剩余额度时直接拒绝
// 真正的扣减在服务层做条件更新，这里只是挡掉明显没额度的请求
func CreditCheck(creditService *service.CreditService, kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		remaining, err := creditService.Remaining(userID, kind)
		if err != nil {
			response.ServerError(c, "额度检查失败")
			c.Abort()
			return
		}

		if remaining <= 0 {
			response.QuotaError(c, "")
			c.Abort()
			return
		}

		c.Next()
	}
}
