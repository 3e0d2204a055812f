package model

import (
	"time"
)

const (
	SubStatusActive    = "active"
	SubStatusExpired   = "expired"
	SubStatusCancelled = "cancelled"
)

// Subscription 套餐额度批次：一次套餐购买产生一行
// 各资源的 used 只能通过 CreditService.Consume 的条件更新递增，used <= total 恒成立
type Subscription struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	UserID        int64     `gorm:"not null;index" json:"user_id"`
	PlanID        string    `gorm:"size:50;not null" json:"plan_id"`
	TransactionID int64     `gorm:"index" json:"transaction_id"`
	Status        string    `gorm:"size:20;default:active;index" json:"status"` // active, expired, cancelled
	StartedAt     time.Time `gorm:"not null" json:"started_at"`
	ExpiresAt     time.Time `gorm:"not null;index" json:"expires_at"`

	UsedOptimizations     int `gorm:"default:0" json:"used_optimizations"`
	TotalOptimizations    int `gorm:"default:0" json:"total_optimizations"`
	UsedScoreChecks       int `gorm:"default:0" json:"used_score_checks"`
	TotalScoreChecks      int `gorm:"default:0" json:"total_score_checks"`
	UsedLinkedinMessages  int `gorm:"default:0" json:"used_linkedin_messages"`
	TotalLinkedinMessages int `gorm:"default:0" json:"total_linkedin_messages"`
	UsedGuidedBuilds      int `gorm:"default:0" json:"used_guided_builds"`
	TotalGuidedBuilds     int `gorm:"default:0" json:"total_guided_builds"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Used 指定资源已用量
func (s *Subscription) Used(kind string) int {
	switch kind {
	case KindOptimization:
		return s.UsedOptimizations
	case KindScoreCheck:
		return s.UsedScoreChecks
	case KindLinkedinMessage:
		return s.UsedLinkedinMessages
	case KindGuidedBuild:
		return s.UsedGuidedBuilds
	}
	return 0
}

// Total 指定资源总量
func (s *Subscription) Total(kind string) int {
	switch kind {
	case KindOptimization:
		return s.TotalOptimizations
	case KindScoreCheck:
		return s.TotalScoreChecks
	case KindLinkedinMessage:
		return s.TotalLinkedinMessages
	case KindGuidedBuild:
		return s.TotalGuidedBuilds
	}
	return 0
}

// Remaining 指定资源剩余量
func (s *Subscription) Remaining(kind string) int {
	return s.Total(kind) - s.Used(kind)
}

// SubKindColumns 资源类型到 used/total 列名的映射，条件更新时使用
// 列名固定枚举，禁止从请求参数拼接
var SubKindColumns = map[string][2]string{
	KindOptimization:    {"used_optimizations", "total_optimizations"},
	KindScoreCheck:      {"used_score_checks", "total_score_checks"},
	KindLinkedinMessage: {"used_linkedin_messages", "total_linkedin_messages"},
	KindGuidedBuild:     {"used_guided_builds", "total_guided_builds"},
}
