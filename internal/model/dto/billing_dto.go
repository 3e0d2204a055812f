package dto

// QuoteRequest 询价请求
// 价格一律以服务端目录为准，这里只传 id 和数量
type QuoteRequest struct {
	PlanID     string         `json:"plan_id" binding:"omitempty,max=50"`
	CouponCode string         `json:"coupon_code" binding:"omitempty,max=50"`
	UseWallet  bool           `json:"use_wallet"`
	AddOns     map[string]int `json:"addons" binding:"omitempty"` // addon_id -> 数量
}

// QuoteResponse 询价响应（金额单位：派萨）
type QuoteResponse struct {
	PlanID         string `json:"plan_id,omitempty"`
	OriginalAmount int64  `json:"original_amount"`
	DiscountAmount int64  `json:"discount_amount"`
	WalletApplied  int64  `json:"wallet_applied"`
	AddOnsAmount   int64  `json:"addons_amount"`
	FinalAmount    int64  `json:"final_amount"`
	Currency       string `json:"currency"`
}

// CreateOrderRequest 下单请求
// Amount 是客户端此前展示给用户的总价，服务端重算后必须与其一致
type CreateOrderRequest struct {
	PlanID     string         `json:"plan_id" binding:"omitempty,max=50"`
	CouponCode string         `json:"coupon_code" binding:"omitempty,max=50"`
	UseWallet  bool           `json:"use_wallet"`
	AddOns     map[string]int `json:"addons" binding:"omitempty"`
	Amount     int64          `json:"amount" binding:"min=0"`
}

// CreateOrderResponse 下单响应
type CreateOrderResponse struct {
	TransactionID int64  `json:"transaction_id"`
	OrderID       string `json:"order_id,omitempty"` // 支付网关订单号，免支付订单为空
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	KeyID         string `json:"key_id,omitempty"` // 前端拉起收银台用
	// 免支付订单在下单时即完成结算
	Settled bool `json:"settled"`
}

// VerifyPaymentRequest 支付回调校验请求
type VerifyPaymentRequest struct {
	TransactionID     int64  `json:"transaction_id" binding:"required"`
	ProviderOrderID   string `json:"razorpay_order_id" binding:"required"`
	ProviderPaymentID string `json:"razorpay_payment_id" binding:"required"`
	ProviderSignature string `json:"razorpay_signature" binding:"required"`
}

// VerifyPaymentResponse 支付校验响应
type VerifyPaymentResponse struct {
	Success        bool           `json:"success"`
	CreditsGranted map[string]int `json:"credits_granted,omitempty"` // 资源类型 -> 新增额度
	Balance        *BalanceInfo   `json:"balance,omitempty"`
}

// PlanItem 套餐目录项（对外安全子集）
type PlanItem struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	DurationDays     int    `json:"duration_days"`
	Optimizations    int    `json:"optimizations"`
	ScoreChecks      int    `json:"score_checks"`
	LinkedinMessages int    `json:"linkedin_messages"`
	GuidedBuilds     int    `json:"guided_builds"`
}

// AddOnItem 加油包目录项
type AddOnItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Kind     string `json:"kind"`
	Quantity int    `json:"quantity"`
}

// CatalogResponse 目录响应
type CatalogResponse struct {
	Currency string      `json:"currency"`
	Plans    []PlanItem  `json:"plans"`
	AddOns   []AddOnItem `json:"addons"`
}
