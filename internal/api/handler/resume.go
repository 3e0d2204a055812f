package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/resume_go_server/internal/api/middleware"
	"github.com/qs3c/resume_go_server/internal/pkg/response"
	"github.com/qs3c/resume_go_server/internal/service"
)

type ResumeHandler struct {
	resumeService *service.ResumeService
}

func NewResumeHandler(resumeService *service.ResumeService) *ResumeHandler {
	return &ResumeHandler{
		resumeService: resumeService,
	}
}

// Upload 上传简历
// POST /api/v1/resumes
func (h *ResumeHandler) Upload(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "请上传文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ServerError(c, "")
		return
	}
	defer file.Close()

	item, err := h.resumeService.Upload(userID, file, fileHeader.Filename, fileHeader.Size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrFileTypeDenied):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "上传成功", item)
}

// List 简历列表
// GET /api/v1/resumes
func (h *ResumeHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	items, err := h.resumeService.List(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, items)
}

// Get 简历详情
// GET /api/v1/resumes/:id
func (h *ResumeHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	resumeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的简历 ID")
		return
	}

	item, err := h.resumeService.Get(userID, resumeID)
	if err != nil {
		h.writeResumeError(c, err)
		return
	}

	response.Success(c, item)
}

// Delete 删除简历
// DELETE /api/v1/resumes/:id
func (h *ResumeHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	resumeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的简历 ID")
		return
	}

	if err := h.resumeService.Delete(userID, resumeID); err != nil {
		h.writeResumeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

func (h *ResumeHandler) writeResumeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrResumeNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrResumePermission):
		response.PermissionError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
