package service

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/config"
	"github.com/qs3c/resume_go_server/internal/model"
	"github.com/qs3c/resume_go_server/internal/model/dto"
	"github.com/qs3c/resume_go_server/internal/pkg/oss"
	"github.com/qs3c/resume_go_server/internal/repository"
)

var (
	ErrResumeNotFound   = errors.New("简历不存在")
	ErrResumePermission = errors.New("无权操作此简历")
	ErrFileTooLarge     = errors.New("文件大小超过限制")
	ErrFileTypeDenied   = errors.New("不支持的文件类型")
)

type ResumeService struct {
	resumeRepo *repository.ResumeRepository
	ossClient  *oss.Client
	cfg        *config.Config
}

func NewResumeService(resumeRepo *repository.ResumeRepository, ossClient *oss.Client, cfg *config.Config) *ResumeService {
	return &ResumeService{
		resumeRepo: resumeRepo,
		ossClient:  ossClient,
		cfg:        cfg,
	}
}

// Upload 上传简历文件到 OSS 并落库
func (s *ResumeService) Upload(userID int64, file io.Reader, filename string, size int64) (*dto.ResumeItem, error) {
	if s.ossClient == nil {
		return nil, errors.New("OSS 客户端未配置")
	}

	if s.cfg.Upload.MaxSize > 0 && size > s.cfg.Upload.MaxSize {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !s.extensionAllowed(ext) {
		return nil, ErrFileTypeDenied
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	fileURL, err := s.ossClient.UploadResume(userID, data, ext)
	if err != nil {
		return nil, err
	}

	resume := &model.Resume{
		UserID:   userID,
		Title:    strings.TrimSuffix(filename, ext),
		FileName: filename,
		FileURL:  fileURL,
		FileSize: int64(len(data)),
	}
	if err := s.resumeRepo.Create(resume); err != nil {
		return nil, err
	}

	return buildResumeItem(resume), nil
}

// List 用户简历列表
func (s *ResumeService) List(userID int64) ([]dto.ResumeItem, error) {
	resumes, err := s.resumeRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ResumeItem, 0, len(resumes))
	for i := range resumes {
		items = append(items, *buildResumeItem(&resumes[i]))
	}
	return items, nil
}

// Get 简历详情
func (s *ResumeService) Get(userID, resumeID int64) (*dto.ResumeItem, error) {
	resume, err := s.getOwned(userID, resumeID)
	if err != nil {
		return nil, err
	}
	return buildResumeItem(resume), nil
}

// Delete 删除简历，OSS 上的文件一并清理
func (s *ResumeService) Delete(userID, resumeID int64) error {
	resume, err := s.getOwned(userID, resumeID)
	if err != nil {
		return err
	}

	if err := s.resumeRepo.Delete(resume.ID); err != nil {
		return err
	}

	// OSS 删除失败不回滚，库里已无引用
	if s.ossClient != nil && resume.FileURL != "" {
		if key := objectKeyFromURL(resume.FileURL); key != "" {
			_ = s.ossClient.Delete(key)
		}
	}

	return nil
}

func (s *ResumeService) getOwned(userID, resumeID int64) (*model.Resume, error) {
	resume, err := s.resumeRepo.GetByID(resumeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResumeNotFound
		}
		return nil, err
	}
	if resume.UserID != userID {
		return nil, ErrResumePermission
	}
	return resume, nil
}

func (s *ResumeService) extensionAllowed(ext string) bool {
	allowed := s.cfg.Upload.AllowedExtensions
	if len(allowed) == 0 {
		allowed = []string{".pdf", ".doc", ".docx"}
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

// objectKeyFromURL 从访问 URL 还原 OSS object key
func objectKeyFromURL(fileURL string) string {
	idx := strings.Index(fileURL, "/resumes/")
	if idx < 0 {
		return ""
	}
	return fileURL[idx+1:]
}

func buildResumeItem(r *model.Resume) *dto.ResumeItem {
	return &dto.ResumeItem{
		ID:        r.ID,
		Title:     r.Title,
		FileName:  r.FileName,
		FileURL:   r.FileURL,
		FileSize:  r.FileSize,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}
