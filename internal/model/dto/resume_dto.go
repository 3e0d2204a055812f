package dto

// ResumeItem 简历列表项
type ResumeItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	FileName  string `json:"file_name"`
	FileURL   string `json:"file_url"`
	FileSize  int64  `json:"file_size"`
	CreatedAt string `json:"created_at"`
}
