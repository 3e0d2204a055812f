package catalog

import (
	"time"

	"github.com/qs3c/resume_go_server/config"
	"github.com/qs3c/resume_go_server/internal/model"
)

// Catalog 启动时从配置构建的定价目录，运行时只读
// 所有金额计算只使用这里的价格，客户端传入的价格仅用于比对
type Catalog struct {
	currency string
	freePlan string
	plans    map[string]config.PlanConfig
	addons   map[string]config.AddOnConfig
	coupons  map[string]config.CouponConfig
}

// New 构建目录
func New(cfg *config.Config) *Catalog {
	c := &Catalog{
		currency: cfg.Razorpay.Currency,
		freePlan: cfg.Billing.FreePlan,
		plans:    make(map[string]config.PlanConfig),
		addons:   make(map[string]config.AddOnConfig),
		coupons:  make(map[string]config.CouponConfig),
	}
	for _, p := range cfg.Billing.Plans {
		c.plans[p.ID] = p
	}
	for _, a := range cfg.Billing.AddOns {
		c.addons[a.ID] = a
	}
	for _, cp := range cfg.Billing.Coupons {
		c.coupons[cp.Code] = cp
	}
	if c.currency == "" {
		c.currency = "INR"
	}
	return c
}

// Currency 结算货币
func (c *Catalog) Currency() string {
	return c.currency
}

// FreePlanID 注册赠送的套餐 id，可能为空
func (c *Catalog) FreePlanID() string {
	return c.freePlan
}

// Plan 查询套餐
func (c *Catalog) Plan(id string) (config.PlanConfig, bool) {
	p, ok := c.plans[id]
	return p, ok
}

// AddOn 查询加油包
func (c *Catalog) AddOn(id string) (config.AddOnConfig, bool) {
	a, ok := c.addons[id]
	return a, ok
}

// Coupon 查询优惠券
func (c *Catalog) Coupon(code string) (config.CouponConfig, bool) {
	cp, ok := c.coupons[code]
	return cp, ok
}

// Plans 全部套餐
func (c *Catalog) Plans() []config.PlanConfig {
	out := make([]config.PlanConfig, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	return out
}

// AddOns 全部加油包
func (c *Catalog) AddOns() []config.AddOnConfig {
	out := make([]config.AddOnConfig, 0, len(c.addons))
	for _, a := range c.addons {
		out = append(out, a)
	}
	return out
}

// CouponApplicable 优惠券是否适用于该套餐
func CouponApplicable(cp config.CouponConfig, planID string) bool {
	if planID == "" {
		return false
	}
	if len(cp.PlanIDs) == 0 {
		return true
	}
	for _, id := range cp.PlanIDs {
		if id == planID {
			return true
		}
	}
	return false
}

// CouponDiscount 计算折扣金额（向下取整，不超过原价）
func CouponDiscount(cp config.CouponConfig, planPrice int64) int64 {
	switch cp.Type {
	case "free":
		return planPrice
	case "percent":
		d := planPrice * int64(cp.Percent) / 100
		if d > planPrice {
			return planPrice
		}
		return d
	}
	return 0
}

// PlanQuantities 套餐包含的各资源额度
func PlanQuantities(p config.PlanConfig) map[string]int {
	return map[string]int{
		model.KindOptimization:    p.Optimizations,
		model.KindScoreCheck:      p.ScoreChecks,
		model.KindLinkedinMessage: p.LinkedinMessages,
		model.KindGuidedBuild:     p.GuidedBuilds,
	}
}

// AddOnExpiry 加油包额度的过期时间，nil 表示永不过期
func AddOnExpiry(a config.AddOnConfig, from time.Time) *time.Time {
	if a.ExpireDays <= 0 {
		return nil
	}
	t := from.AddDate(0, 0, a.ExpireDays)
	return &t
}
