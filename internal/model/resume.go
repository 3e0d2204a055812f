package model

import (
	"time"
)

// Resume 用户上传的简历文件，正文解析由外部服务完成
type Resume struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	FileName  string    `gorm:"size:255" json:"file_name"`
	FileURL   string    `gorm:"size:500" json:"file_url"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Resume) TableName() string {
	return "resumes"
}
