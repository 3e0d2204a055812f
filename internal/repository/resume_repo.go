package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/internal/model"
)

type ResumeRepository struct {
	db *gorm.DB
}

func NewResumeRepository(db *gorm.DB) *ResumeRepository {
	return &ResumeRepository{db: db}
}

func (r *ResumeRepository) Create(resume *model.Resume) error {
	return r.db.Create(resume).Error
}

func (r *ResumeRepository) GetByID(id int64) (*model.Resume, error) {
	var resume model.Resume
	err := r.db.Where("id = ?", id).First(&resume).Error
	if err != nil {
		return nil, err
	}
	return &resume, nil
}

func (r *ResumeRepository) ListByUser(userID int64) ([]model.Resume, error) {
	var resumes []model.Resume
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&resumes).Error
	return resumes, err
}

func (r *ResumeRepository) Update(resume *model.Resume) error {
	return r.db.Save(resume).Error
}

func (r *ResumeRepository) Delete(id int64) error {
	return r.db.Delete(&model.Resume{}, id).Error
}
