package service

import (
	"errors"
	"sort"

	"github.com/qs3c/resume_go_server/internal/catalog"
	"github.com/qs3c/resume_go_server/internal/model/dto"
	"github.com/qs3c/resume_go_server/internal/repository"
)

var (
	ErrPlanNotFound        = errors.New("套餐不存在")
	ErrAddOnNotFound       = errors.New("加油包不存在")
	ErrEmptyOrder          = errors.New("订单不能为空")
	ErrCouponNotFound      = errors.New("优惠券不存在")
	ErrCouponNotApplicable = errors.New("优惠券不适用于该套餐")
	ErrCouponAlreadyUsed   = errors.New("优惠券已使用过")
	ErrCouponLimitReached  = errors.New("优惠券已被领完")
)

// PricingService 服务端询价：所有金额只从目录取，客户端价格仅用于比对
type PricingService struct {
	catalog  *catalog.Catalog
	userRepo *repository.UserRepository
	txRepo   *repository.TransactionRepository
}

func NewPricingService(cat *catalog.Catalog, userRepo *repository.UserRepository, txRepo *repository.TransactionRepository) *PricingService {
	return &PricingService{
		catalog:  cat,
		userRepo: userRepo,
		txRepo:   txRepo,
	}
}

// Quote 金额拆解的内部表示，下单与询价共用
type Quote struct {
	PlanID         string
	CouponCode     string
	AddOns         map[string]int
	OriginalAmount int64
	DiscountAmount int64
	WalletApplied  int64
	AddOnsAmount   int64
	FinalAmount    int64
}

// GetQuote 计算一笔订单的金额拆解
// 优惠券只作用于套餐，钱包只抵扣折后套餐金额，均不触碰加油包
func (s *PricingService) GetQuote(userID int64, req *dto.QuoteRequest) (*Quote, error) {
	if req.PlanID == "" && len(req.AddOns) == 0 {
		return nil, ErrEmptyOrder
	}

	quote := &Quote{
		PlanID:     req.PlanID,
		CouponCode: req.CouponCode,
		AddOns:     req.AddOns,
	}

	// 套餐原价
	if req.PlanID != "" {
		plan, ok := s.catalog.Plan(req.PlanID)
		if !ok {
			return nil, ErrPlanNotFound
		}
		quote.OriginalAmount = plan.Price
	}

	// 优惠券折扣，仅对套餐生效
	if req.CouponCode != "" {
		discount, err := s.resolveCoupon(userID, req.CouponCode, req.PlanID, quote.OriginalAmount)
		if err != nil {
			return nil, err
		}
		quote.DiscountAmount = discount
	}

	// 加油包金额，固定顺序累加
	ids := make([]string, 0, len(req.AddOns))
	for id := range req.AddOns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		qty := req.AddOns[id]
		if qty <= 0 {
			return nil, ErrAddOnNotFound
		}
		addon, ok := s.catalog.AddOn(id)
		if !ok {
			return nil, ErrAddOnNotFound
		}
		quote.AddOnsAmount += addon.Price * int64(qty)
	}

	planAfterDiscount := quote.OriginalAmount - quote.DiscountAmount

	// 钱包只抵扣折后套餐金额
	if req.UseWallet && planAfterDiscount > 0 {
		user, err := s.userRepo.GetByID(userID)
		if err != nil {
			return nil, err
		}
		applied := user.WalletBalance
		if applied > planAfterDiscount {
			applied = planAfterDiscount
		}
		if applied > 0 {
			quote.WalletApplied = applied
		}
	}

	quote.FinalAmount = planAfterDiscount - quote.WalletApplied + quote.AddOnsAmount

	return quote, nil
}

// resolveCoupon 校验优惠券并返回折扣金额
func (s *PricingService) resolveCoupon(userID int64, code, planID string, planPrice int64) (int64, error) {
	cp, ok := s.catalog.Coupon(code)
	if !ok {
		return 0, ErrCouponNotFound
	}

	// 单人单次：pending 不占用，终态订单计入
	used, err := s.txRepo.CountCouponUseByUser(userID, code)
	if err != nil {
		return 0, err
	}
	if used > 0 {
		return 0, ErrCouponAlreadyUsed
	}

	// 优惠券只随套餐使用
	if !catalog.CouponApplicable(cp, planID) {
		return 0, ErrCouponNotApplicable
	}

	// 全局上限：pending 也占位，防止超发
	if cp.MaxUses > 0 {
		global, err := s.txRepo.CountCouponUseGlobal(code)
		if err != nil {
			return 0, err
		}
		if global >= int64(cp.MaxUses) {
			return 0, ErrCouponLimitReached
		}
	}

	return catalog.CouponDiscount(cp, planPrice), nil
}

// ToResponse 转为对外询价响应
func (s *PricingService) ToResponse(q *Quote) *dto.QuoteResponse {
	return &dto.QuoteResponse{
		PlanID:         q.PlanID,
		OriginalAmount: q.OriginalAmount,
		DiscountAmount: q.DiscountAmount,
		WalletApplied:  q.WalletApplied,
		AddOnsAmount:   q.AddOnsAmount,
		FinalAmount:    q.FinalAmount,
		Currency:       s.catalog.Currency(),
	}
}

// GetCatalog 对外目录
func (s *PricingService) GetCatalog() *dto.CatalogResponse {
	plans := s.catalog.Plans()
	sort.Slice(plans, func(i, j int) bool { return plans[i].Price < plans[j].Price })

	addons := s.catalog.AddOns()
	sort.Slice(addons, func(i, j int) bool { return addons[i].ID < addons[j].ID })

	resp := &dto.CatalogResponse{
		Currency: s.catalog.Currency(),
		Plans:    make([]dto.PlanItem, 0, len(plans)),
		AddOns:   make([]dto.AddOnItem, 0, len(addons)),
	}
	for _, p := range plans {
		resp.Plans = append(resp.Plans, dto.PlanItem{
			ID:               p.ID,
			Name:             p.Name,
			Price:            p.Price,
			DurationDays:     p.DurationDays,
			Optimizations:    p.Optimizations,
			ScoreChecks:      p.ScoreChecks,
			LinkedinMessages: p.LinkedinMessages,
			GuidedBuilds:     p.GuidedBuilds,
		})
	}
	for _, a := range addons {
		resp.AddOns = append(resp.AddOns, dto.AddOnItem{
			ID:       a.ID,
			Name:     a.Name,
			Price:    a.Price,
			Kind:     a.Kind,
			Quantity: a.Quantity,
		})
	}
	return resp
}
