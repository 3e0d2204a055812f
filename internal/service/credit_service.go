package service

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/internal/catalog"
	"github.com/qs3c/resume_go_server/internal/model"
	"github.com/qs3c/resume_go_server/internal/model/dto"
	"github.com/qs3c/resume_go_server/internal/repository"
)

var (
	ErrNoCredits   = errors.New("额度不足")
	ErrInvalidKind = errors.New("未知的资源类型")
)

// 扣减来源，补偿回补时定位批次用
const (
	LotSubscription = "subscription"
	LotAddOn        = "addon"
)

// ConsumedLot 一次成功扣减的来源批次
type ConsumedLot struct {
	Source string // subscription / addon
	LotID  int64
}

// CreditService 额度的发放、汇总与扣减
type CreditService struct {
	catalog   *catalog.Catalog
	subRepo   *repository.SubscriptionRepository
	addonRepo *repository.AddOnCreditRepository
}

func NewCreditService(cat *catalog.Catalog, subRepo *repository.SubscriptionRepository, addonRepo *repository.AddOnCreditRepository) *CreditService {
	return &CreditService{
		catalog:   cat,
		subRepo:   subRepo,
		addonRepo: addonRepo,
	}
}

// GrantPlan 发放一个套餐批次，dbtx 为空时直接用仓库默认连接
// 返回各资源新增额度
func (s *CreditService) GrantPlan(dbtx *gorm.DB, userID int64, planID string, transactionID int64) (map[string]int, error) {
	plan, ok := s.catalog.Plan(planID)
	if !ok {
		return nil, ErrPlanNotFound
	}

	now := time.Now()
	sub := &model.Subscription{
		UserID:                userID,
		PlanID:                plan.ID,
		TransactionID:         transactionID,
		Status:                model.SubStatusActive,
		StartedAt:             now,
		ExpiresAt:             now.AddDate(0, 0, plan.DurationDays),
		TotalOptimizations:    plan.Optimizations,
		TotalScoreChecks:      plan.ScoreChecks,
		TotalLinkedinMessages: plan.LinkedinMessages,
		TotalGuidedBuilds:     plan.GuidedBuilds,
	}

	var err error
	if dbtx != nil {
		err = s.subRepo.CreateTx(dbtx, sub)
	} else {
		err = s.subRepo.Create(sub)
	}
	if err != nil {
		return nil, err
	}

	return catalog.PlanQuantities(plan), nil
}

// GrantAddOns 按 "id:qty,id:qty" 编码发放加油包批次
// 返回各资源新增额度
func (s *CreditService) GrantAddOns(dbtx *gorm.DB, userID int64, encoded string, transactionID int64) (map[string]int, error) {
	granted := make(map[string]int)
	if encoded == "" {
		return granted, nil
	}

	now := time.Now()
	for _, item := range strings.Split(encoded, ",") {
		parts := strings.SplitN(item, ":", 2)
		if len(parts) != 2 {
			continue
		}
		addonID := parts[0]
		qty, err := strconv.Atoi(parts[1])
		if err != nil || qty <= 0 {
			continue
		}

		addon, ok := s.catalog.AddOn(addonID)
		if !ok {
			return nil, ErrAddOnNotFound
		}

		credit := &model.AddOnCredit{
			UserID:        userID,
			AddOnID:       addon.ID,
			Kind:          addon.Kind,
			Purchased:     addon.Quantity * qty,
			Remaining:     addon.Quantity * qty,
			ExpiresAt:     catalog.AddOnExpiry(addon, now),
			TransactionID: transactionID,
		}

		if dbtx != nil {
			err = s.addonRepo.CreateTx(dbtx, credit)
		} else {
			err = s.addonRepo.Create(credit)
		}
		if err != nil {
			return nil, err
		}

		granted[addon.Kind] += credit.Purchased
	}

	return granted, nil
}

// EncodeAddOns 把下单时的加油包数量编码成 "id:qty,id:qty"，结算时据此发放
func EncodeAddOns(addons map[string]int) string {
	if len(addons) == 0 {
		return ""
	}
	items := make([]string, 0, len(addons))
	for id, qty := range addons {
		items = append(items, id+":"+strconv.Itoa(qty))
	}
	// map 遍历无序，编码前排序保证可重复
	sort.Strings(items)
	return strings.Join(items, ",")
}

// GetBalance 聚合全部可用批次的额度视图
// 套餐到期不作废额度，只有取消的批次被排除；过期的加油包批次不计入
func (s *CreditService) GetBalance(userID int64) (*dto.BalanceInfo, error) {
	info := &dto.BalanceInfo{
		Kinds: make(map[string]dto.KindBalance),
	}
	for _, kind := range model.ResourceKinds {
		info.Kinds[kind] = dto.KindBalance{}
	}

	subs, err := s.subRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		for _, kind := range model.ResourceKinds {
			kb := info.Kinds[kind]
			kb.Used += sub.Used(kind)
			kb.Total += sub.Total(kind)
			info.Kinds[kind] = kb
		}
	}

	credits, err := s.addonRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, credit := range credits {
		if credit.ExpiresAt != nil && credit.ExpiresAt.Before(now) {
			continue
		}
		kb := info.Kinds[credit.Kind]
		kb.Used += credit.Purchased - credit.Remaining
		kb.Total += credit.Purchased
		info.Kinds[credit.Kind] = kb
	}

	for kind, kb := range info.Kinds {
		kb.Remaining = kb.Total - kb.Used
		info.Kinds[kind] = kb
		if kb.Remaining > 0 {
			info.Active = true
		}
	}

	return info, nil
}

// Consume 扣减一个指定资源的额度
// 顺序：先加油包（先过期的优先，永不过期的最后），再套餐（先到期的优先）
// 每个候选批次用条件更新试扣，并发下被别人抢掉就换下一个
func (s *CreditService) Consume(userID int64, kind string) (*ConsumedLot, error) {
	if !model.IsValidKind(kind) {
		return nil, ErrInvalidKind
	}

	credits, err := s.addonRepo.ListConsumable(userID, kind)
	if err != nil {
		return nil, err
	}
	for _, credit := range credits {
		ok, err := s.addonRepo.ConsumeOne(credit.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			return &ConsumedLot{Source: LotAddOn, LotID: credit.ID}, nil
		}
	}

	subs, err := s.subRepo.ListConsumable(userID, kind)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		ok, err := s.subRepo.ConsumeOne(sub.ID, kind)
		if err != nil {
			return nil, err
		}
		if ok {
			return &ConsumedLot{Source: LotSubscription, LotID: sub.ID}, nil
		}
	}

	return nil, ErrNoCredits
}

// Refund 回补一次扣减，功能执行失败时的补偿
func (s *CreditService) Refund(lot *ConsumedLot, kind string) error {
	if lot == nil {
		return nil
	}
	switch lot.Source {
	case LotAddOn:
		return s.addonRepo.RefundOne(lot.LotID)
	case LotSubscription:
		return s.subRepo.RefundOne(lot.LotID, kind)
	}
	return nil
}

// Remaining 指定资源当前剩余总量
func (s *CreditService) Remaining(userID int64, kind string) (int, error) {
	balance, err := s.GetBalance(userID)
	if err != nil {
		return 0, err
	}
	return balance.Kinds[kind].Remaining, nil
}
