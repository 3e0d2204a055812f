package dto

// OptimizeRequest 优化类任务请求（四种资源类型共用）
type OptimizeRequest struct {
	ResumeID  int64  `json:"resume_id" binding:"omitempty,min=1"`
	InputText string `json:"input_text" binding:"required,max=20000"` // JD 原文/目标岗位描述等
}

// OptimizeResponse 创建任务响应
type OptimizeResponse struct {
	JobID     int64 `json:"job_id"`
	Remaining int   `json:"remaining"` // 扣减后该资源剩余额度
}

// JobDetail 任务详情
type JobDetail struct {
	ID             int64  `json:"id"`
	Kind           string `json:"kind"`
	Status         string `json:"status"`
	ResultText     string `json:"result_text,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds,omitempty"`
	CreatedAt      string `json:"created_at"`
	CompletedAt    string `json:"completed_at,omitempty"`
}
