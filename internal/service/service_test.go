package service

import (
	"github.com/qs3c/resume_go_server/config"
	"github.com/qs3c/resume_go_server/internal/catalog"
)

// testCatalog 测试用定价目录
// lite_check 配 FIRST100 免费券是典型的 0 元订单场景
func testCatalog() *catalog.Catalog {
	cfg := &config.Config{
		Razorpay: config.RazorpayConfig{
			KeyID:     "rzp_test_key",
			KeySecret: "rzp_test_secret",
			Currency:  "INR",
		},
		Billing: config.BillingConfig{
			FreePlan: "free",
			Plans: []config.PlanConfig{
				{
					ID: "free", Name: "免费版", Price: 0, DurationDays: 365,
					Optimizations: 1, ScoreChecks: 1,
				},
				{
					ID: "lite_check", Name: "体验评分", Price: 9900, DurationDays: 30,
					ScoreChecks: 3,
				},
				{
					ID: "pro_monthly", Name: "专业版月付", Price: 49900, DurationDays: 30,
					Optimizations: 10, ScoreChecks: 10, LinkedinMessages: 10, GuidedBuilds: 3,
				},
			},
			AddOns: []config.AddOnConfig{
				{ID: "opt_pack_5", Name: "优化加油包", Price: 19900, Kind: "optimization", Quantity: 5, ExpireDays: 90},
				{ID: "msg_pack_10", Name: "私信加油包", Price: 9900, Kind: "linkedin_message", Quantity: 10},
			},
			Coupons: []config.CouponConfig{
				{Code: "FIRST100", PlanIDs: []string{"lite_check"}, Type: "free"},
				{Code: "SAVE20", Type: "percent", Percent: 20},
				{Code: "LIMITED", Type: "percent", Percent: 50, MaxUses: 1},
			},
		},
	}
	return catalog.New(cfg)
}
