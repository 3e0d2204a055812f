package model

import (
	"time"
)

// 交易状态机：pending -> success | failed
// success 和 failed 为终态，终态后除一次性写入的关联字段外不可再修改
const (
	TxStatusPending = "pending"
	TxStatusSuccess = "success"
	TxStatusFailed  = "failed"
)

type Transaction struct {
	ID     int64  `gorm:"primaryKey" json:"id"`
	UserID int64  `gorm:"not null;index;index:idx_user_coupon,priority:1" json:"user_id"`
	PlanID string `gorm:"size:50" json:"plan_id,omitempty"` // 纯加油包订单为空
	Status string `gorm:"size:20;default:pending;index" json:"status"`

	// 金额拆解，单位：派萨。服务端重算后写入，客户端数值仅用于比对
	OriginalAmount int64 `gorm:"not null" json:"original_amount"`
	DiscountAmount int64 `gorm:"default:0" json:"discount_amount"`
	WalletApplied  int64 `gorm:"default:0" json:"wallet_applied"`
	AddOnsAmount   int64 `gorm:"default:0" json:"addons_amount"`
	FinalAmount    int64 `gorm:"not null" json:"final_amount"`

	CouponCode string `gorm:"size:50;index:idx_user_coupon,priority:2" json:"coupon_code,omitempty"`
	// AddOnItems 记录下单时各加油包的数量，格式 "id:qty,id:qty"，结算时据此发放
	AddOnItems string `gorm:"size:500" json:"addon_items,omitempty"`

	Receipt           string `gorm:"size:64;uniqueIndex" json:"receipt"`
	ProviderOrderID   string `gorm:"size:100;index" json:"provider_order_id,omitempty"`
	ProviderPaymentID string `gorm:"size:100" json:"provider_payment_id,omitempty"`
	FailReason        string `gorm:"size:255" json:"fail_reason,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// IsTerminal 是否已到终态
func (t *Transaction) IsTerminal() bool {
	return t.Status == TxStatusSuccess || t.Status == TxStatusFailed
}
