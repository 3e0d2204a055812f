package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/resume_go_server/internal/api/middleware"
	"github.com/qs3c/resume_go_server/internal/model"
	"github.com/qs3c/resume_go_server/internal/model/dto"
	"github.com/qs3c/resume_go_server/internal/pkg/response"
	"github.com/qs3c/resume_go_server/internal/service"
)

type OptimizeHandler struct {
	optimizeService *service.OptimizeService
}

func NewOptimizeHandler(optimizeService *service.OptimizeService) *OptimizeHandler {
	return &OptimizeHandler{
		optimizeService: optimizeService,
	}
}

// Optimize JD 优化
// POST /api/v1/optimize
func (h *OptimizeHandler) Optimize(c *gin.Context) {
	h.createJob(c, model.KindOptimization)
}

// ScoreCheck 简历评分
// POST /api/v1/score-check
func (h *OptimizeHandler) ScoreCheck(c *gin.Context) {
	h.createJob(c, model.KindScoreCheck)
}

// LinkedinMessage LinkedIn 私信生成
// POST /api/v1/linkedin-message
func (h *OptimizeHandler) LinkedinMessage(c *gin.Context) {
	h.createJob(c, model.KindLinkedinMessage)
}

// GuidedBuild 引导式简历创建
// POST /api/v1/guided-build
func (h *OptimizeHandler) GuidedBuild(c *gin.Context) {
	h.createJob(c, model.KindGuidedBuild)
}

func (h *OptimizeHandler) createJob(c *gin.Context, kind string) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.optimizeService.CreateJob(c.Request.Context(), userID, kind, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoCredits):
			response.QuotaError(c, "")
		case errors.Is(err, service.ErrResumeNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrResumePermission):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}

// GetJob 任务详情
// GET /api/v1/jobs/:id
func (h *OptimizeHandler) GetJob(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	jobID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的任务 ID")
		return
	}

	detail, err := h.optimizeService.GetJob(userID, jobID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJobNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrJobPermission):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, detail)
}

// ListJobs 任务列表
// GET /api/v1/jobs
func (h *OptimizeHandler) ListJobs(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	jobs, total, err := h.optimizeService.ListJobs(userID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, jobs)
}
