package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/internal/model"
	"github.com/qs3c/resume_go_server/internal/model/dto"
	"github.com/qs3c/resume_go_server/internal/pkg/queue"
	"github.com/qs3c/resume_go_server/internal/repository"
)

var (
	ErrJobNotFound   = errors.New("任务不存在")
	ErrJobPermission = errors.New("无权查看此任务")
)

// OptimizeService 优化类任务：先扣额度再建任务入队
// 入队失败回补额度，保证不白扣
type OptimizeService struct {
	jobRepo    *repository.JobRepository
	resumeRepo *repository.ResumeRepository
	credits    *CreditService
	queue      *queue.Queue
}

func NewOptimizeService(jobRepo *repository.JobRepository, resumeRepo *repository.ResumeRepository, credits *CreditService, q *queue.Queue) *OptimizeService {
	return &OptimizeService{
		jobRepo:    jobRepo,
		resumeRepo: resumeRepo,
		credits:    credits,
		queue:      q,
	}
}

// CreateJob 扣一次指定资源的额度并创建异步任务
func (s *OptimizeService) CreateJob(ctx context.Context, userID int64, kind string, req *dto.OptimizeRequest) (*dto.OptimizeResponse, error) {
	if !model.IsValidKind(kind) {
		return nil, ErrInvalidKind
	}

	// 简历归属校验
	if req.ResumeID > 0 {
		resume, err := s.resumeRepo.GetByID(req.ResumeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrResumeNotFound
			}
			return nil, err
		}
		if resume.UserID != userID {
			return nil, ErrResumePermission
		}
	}

	// 先扣额度，失败直接拒绝
	lot, err := s.credits.Consume(userID, kind)
	if err != nil {
		return nil, err
	}

	job := &model.OptimizeJob{
		UserID:    userID,
		ResumeID:  req.ResumeID,
		Kind:      kind,
		InputText: req.InputText,
		Status:    "queued",
	}
	if err := s.jobRepo.Create(job); err != nil {
		s.refund(lot, kind)
		return nil, err
	}

	if err := s.queue.Push(ctx, &queue.JobMessage{
		JobID:     job.ID,
		UserID:    userID,
		ResumeID:  req.ResumeID,
		Kind:      kind,
		InputText: req.InputText,
	}); err != nil {
		s.refund(lot, kind)
		if markErr := s.jobRepo.MarkFailed(job.ID, "入队失败"); markErr != nil {
			log.Printf("Failed to mark job %d failed: %v", job.ID, markErr)
		}
		return nil, err
	}

	remaining, err := s.credits.Remaining(userID, kind)
	if err != nil {
		// 扣减已成功，剩余量查不到不影响任务创建
		log.Printf("Failed to read remaining credits for user %d: %v", userID, err)
		remaining = 0
	}

	return &dto.OptimizeResponse{
		JobID:     job.ID,
		Remaining: remaining,
	}, nil
}

// GetJob 查询任务详情
func (s *OptimizeService) GetJob(userID, jobID int64) (*dto.JobDetail, error) {
	job, err := s.jobRepo.GetByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.UserID != userID {
		return nil, ErrJobPermission
	}
	return buildJobDetail(job), nil
}

// ListJobs 任务列表
func (s *OptimizeService) ListJobs(userID int64, page, pageSize int) ([]dto.JobDetail, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	jobs, total, err := s.jobRepo.ListByUser(userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	details := make([]dto.JobDetail, 0, len(jobs))
	for i := range jobs {
		details = append(details, *buildJobDetail(&jobs[i]))
	}
	return details, total, nil
}

func (s *OptimizeService) refund(lot *ConsumedLot, kind string) {
	if err := s.credits.Refund(lot, kind); err != nil {
		log.Printf("Failed to refund credit lot %+v: %v", lot, err)
	}
}

func buildJobDetail(job *model.OptimizeJob) *dto.JobDetail {
	detail := &dto.JobDetail{
		ID:             job.ID,
		Kind:           job.Kind,
		Status:         job.Status,
		ResultText:     job.ResultText,
		ErrorMessage:   job.ErrorMessage,
		ElapsedSeconds: job.ElapsedSeconds,
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
	}
	if job.CompletedAt != nil {
		detail.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	return detail
}
