package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/internal/model"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(job *model.OptimizeJob) error {
	return r.db.Create(job).Error
}

func (r *JobRepository) GetByID(id int64) (*model.OptimizeJob, error) {
	var job model.OptimizeJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) ListByUser(userID int64, page, pageSize int) ([]model.OptimizeJob, int64, error) {
	var jobs []model.OptimizeJob
	var total int64

	query := r.db.Model(&model.OptimizeJob{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&jobs).Error
	if err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

func (r *JobRepository) Update(job *model.OptimizeJob) error {
	return r.db.Save(job).Error
}

// MarkProcessing 置为处理中并记录开始时间
func (r *JobRepository) MarkProcessing(id int64) error {
	now := time.Now()
	return r.db.Model(&model.OptimizeJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     "processing",
			"started_at": now,
		}).Error
}

// MarkCompleted 写入结果并置为完成
func (r *JobRepository) MarkCompleted(id int64, resultText string, elapsedSeconds int) error {
	now := time.Now()
	return r.db.Model(&model.OptimizeJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          "completed",
			"result_text":     resultText,
			"completed_at":    now,
			"elapsed_seconds": elapsedSeconds,
		}).Error
}

// MarkFailed 记录错误并置为失败
func (r *JobRepository) MarkFailed(id int64, errMsg string) error {
	now := time.Now()
	return r.db.Model(&model.OptimizeJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        "failed",
			"error_message": errMsg,
			"completed_at":  now,
		}).Error
}

// GetStuckJobs 长时间停留在 processing 的任务，清理工具使用
func (r *JobRepository) GetStuckJobs(olderThan time.Duration) ([]model.OptimizeJob, error) {
	cutoff := time.Now().Add(-olderThan)
	var jobs []model.OptimizeJob
	err := r.db.Where("status = ? AND started_at < ?", "processing", cutoff).
		Find(&jobs).Error
	return jobs, err
}
