package dto

// KindBalance 单一资源类型的额度汇总
type KindBalance struct {
	Used      int `json:"used"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

// BalanceInfo 账户额度汇总：订阅批次 + 加油包批次的合并视图
type BalanceInfo struct {
	Active bool                   `json:"active"` // 任一资源有剩余即为 true
	Kinds  map[string]KindBalance `json:"kinds"`
}

// ConsumeResult 额度扣减结果
type ConsumeResult struct {
	Success   bool `json:"success"`
	Remaining int  `json:"remaining"` // 扣减后该资源的剩余总量
}
