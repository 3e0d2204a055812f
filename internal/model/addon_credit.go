package model

import (
	"time"
)

// AddOnCredit 加油包额度批次：一次加油包购买的一个品类产生一行
// remaining 只减不增，remaining <= purchased 恒成立
type AddOnCredit struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	UserID        int64      `gorm:"not null;index" json:"user_id"`
	AddOnID       string     `gorm:"size:50;not null" json:"addon_id"`
	Kind          string     `gorm:"size:30;not null;index" json:"kind"`
	Purchased     int        `gorm:"not null" json:"purchased"`
	Remaining     int        `gorm:"not null" json:"remaining"`
	ExpiresAt     *time.Time `gorm:"index" json:"expires_at,omitempty"` // 为空表示永不过期
	TransactionID int64      `gorm:"not null;index" json:"transaction_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (AddOnCredit) TableName() string {
	return "addon_credits"
}
