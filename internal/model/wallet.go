package model

import (
	"time"
)

const (
	WalletTxStatusSuccess = "success"
	WalletTxStatusFailed  = "failed"
)

// WalletTransaction 钱包流水：正数入账，负数出账
// 仅用于下单时抵扣套餐金额，不直接发放资源额度
type WalletTransaction struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	UserID        int64     `gorm:"not null;index" json:"user_id"`
	Amount        int64     `gorm:"not null" json:"amount"` // 单位：派萨，带符号
	Status        string    `gorm:"size:20;default:success" json:"status"`
	Remark        string    `gorm:"size:255" json:"remark,omitempty"`
	TransactionID int64     `gorm:"index" json:"transaction_id,omitempty"` // 关联的订单交易
	CreatedAt     time.Time `json:"created_at"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
