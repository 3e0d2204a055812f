package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/config"
	"github.com/qs3c/resume_go_server/internal/catalog"
	"github.com/qs3c/resume_go_server/internal/model"
	"github.com/qs3c/resume_go_server/internal/model/dto"
	"github.com/qs3c/resume_go_server/internal/pkg/email"
	"github.com/qs3c/resume_go_server/internal/pkg/pubsub"
	"github.com/qs3c/resume_go_server/internal/pkg/razorpay"
	"github.com/qs3c/resume_go_server/internal/repository"
)

var (
	ErrTransactionNotFound  = errors.New("交易不存在")
	ErrTransactionClosed    = errors.New("交易已关闭")
	ErrTransactionDenied    = errors.New("无权操作此交易")
	ErrPriceMismatch        = errors.New("价格已变动，请刷新后重试")
	ErrInvalidSignature     = errors.New("支付签名校验失败")
	ErrOrderMismatch        = errors.New("支付订单不匹配")
	ErrAmountMismatch       = errors.New("支付金额不匹配")
	ErrWalletBalanceChanged = errors.New("钱包余额不足，请重新下单")
)

// 网关结算方式：金额为 0 的订单不走网关，下单时直接结算
type gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error)
	FetchOrder(ctx context.Context, orderID string) (*razorpay.Order, error)
}

// OrderService 订单生命周期：pending -> success | failed
// 终态只写一次，结算路径幂等
type OrderService struct {
	db         *gorm.DB
	catalog    *catalog.Catalog
	pricing    *PricingService
	credits    *CreditService
	txRepo     *repository.TransactionRepository
	userRepo   *repository.UserRepository
	walletRepo *repository.WalletRepository
	gateway    gateway
	rzpCfg     *config.RazorpayConfig
	publisher  *pubsub.Publisher
	mailer     *email.Service
}

func NewOrderService(
	db *gorm.DB,
	cat *catalog.Catalog,
	pricing *PricingService,
	credits *CreditService,
	txRepo *repository.TransactionRepository,
	userRepo *repository.UserRepository,
	walletRepo *repository.WalletRepository,
	gw *razorpay.Client,
	rzpCfg *config.RazorpayConfig,
	publisher *pubsub.Publisher,
	mailer *email.Service,
) *OrderService {
	svc := &OrderService{
		db:         db,
		catalog:    cat,
		pricing:    pricing,
		credits:    credits,
		txRepo:     txRepo,
		userRepo:   userRepo,
		walletRepo: walletRepo,
		rzpCfg:     rzpCfg,
		publisher:  publisher,
		mailer:     mailer,
	}
	if gw != nil {
		svc.gateway = gw
	}
	return svc
}

// CreateOrder 下单：服务端重算金额并与客户端展示价比对，一致才建单
// 金额为 0 的订单（免费券、钱包全额抵扣）不走网关，当场结算
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	quote, err := s.pricing.GetQuote(userID, &dto.QuoteRequest{
		PlanID:     req.PlanID,
		CouponCode: req.CouponCode,
		UseWallet:  req.UseWallet,
		AddOns:     req.AddOns,
	})
	if err != nil {
		return nil, err
	}

	// 价格一致性：客户端看到的价和服务端算出的价必须相等
	if quote.FinalAmount != req.Amount {
		return nil, ErrPriceMismatch
	}

	tx := &model.Transaction{
		UserID:         userID,
		PlanID:         quote.PlanID,
		Status:         model.TxStatusPending,
		OriginalAmount: quote.OriginalAmount,
		DiscountAmount: quote.DiscountAmount,
		WalletApplied:  quote.WalletApplied,
		AddOnsAmount:   quote.AddOnsAmount,
		FinalAmount:    quote.FinalAmount,
		CouponCode:     quote.CouponCode,
		AddOnItems:     EncodeAddOns(quote.AddOns),
		Receipt:        newReceipt(),
	}
	if err := s.txRepo.Create(tx); err != nil {
		return nil, err
	}

	resp := &dto.CreateOrderResponse{
		TransactionID: tx.ID,
		Amount:        tx.FinalAmount,
		Currency:      s.catalog.Currency(),
	}

	// 免支付订单当场结算
	if tx.FinalAmount == 0 {
		if _, err := s.settle(tx.ID, ""); err != nil {
			return nil, err
		}
		resp.Settled = true
		return resp, nil
	}

	// 没有网关时非零订单永远无法结算，和建单失败一样直接关单
	if s.gateway == nil {
		if _, markErr := s.txRepo.MarkFailed(nil, tx.ID, "网关未配置"); markErr != nil {
			log.Printf("Failed to mark transaction %d failed: %v", tx.ID, markErr)
		}
		return nil, razorpay.ErrGatewayUnavailable
	}

	order, err := s.gateway.CreateOrder(ctx, tx.FinalAmount, s.catalog.Currency(), tx.Receipt, map[string]string{
		"transaction_id": fmt.Sprintf("%d", tx.ID),
	})
	if err != nil {
		// 建单失败直接关单，避免留下永远无法结算的 pending
		if _, markErr := s.txRepo.MarkFailed(nil, tx.ID, "网关建单失败"); markErr != nil {
			log.Printf("Failed to mark transaction %d failed: %v", tx.ID, markErr)
		}
		return nil, err
	}

	if err := s.txRepo.UpdateProviderOrderID(tx.ID, order.ID); err != nil {
		return nil, err
	}

	resp.OrderID = order.ID
	resp.KeyID = s.gateway.KeyID()
	return resp, nil
}

// VerifyAndSettle 校验支付回传并结算，可安全重放
// 已成功的交易直接返回成功，不重复发放额度
func (s *OrderService) VerifyAndSettle(ctx context.Context, userID int64, req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	tx, err := s.txRepo.GetByID(req.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if tx.UserID != userID {
		return nil, ErrTransactionDenied
	}

	// 幂等：重放已成功的校验直接返回
	if tx.Status == model.TxStatusSuccess {
		balance, err := s.credits.GetBalance(userID)
		if err != nil {
			return nil, err
		}
		return &dto.VerifyPaymentResponse{Success: true, Balance: balance}, nil
	}
	if tx.Status == model.TxStatusFailed {
		return nil, ErrTransactionClosed
	}

	if tx.ProviderOrderID == "" || tx.ProviderOrderID != req.ProviderOrderID {
		return nil, ErrOrderMismatch
	}

	// 本地签名校验，不依赖网关可用性
	if !razorpay.VerifySignature(req.ProviderOrderID, req.ProviderPaymentID, req.ProviderSignature, s.rzpCfg.KeySecret) {
		if _, err := s.txRepo.MarkFailed(nil, tx.ID, "签名校验失败"); err != nil {
			return nil, err
		}
		return nil, ErrInvalidSignature
	}

	// 网关侧交叉核对金额，防止篡改过的客户端用小额订单结算大额交易
	if s.gateway != nil {
		order, err := s.gateway.FetchOrder(ctx, req.ProviderOrderID)
		if err != nil {
			return nil, err
		}
		if order.Amount != tx.FinalAmount {
			if _, markErr := s.txRepo.MarkFailed(nil, tx.ID, "金额不匹配"); markErr != nil {
				return nil, markErr
			}
			return nil, ErrAmountMismatch
		}
	}

	granted, err := s.settle(tx.ID, req.ProviderPaymentID)
	if err != nil {
		return nil, err
	}

	balance, err := s.credits.GetBalance(userID)
	if err != nil {
		return nil, err
	}

	return &dto.VerifyPaymentResponse{
		Success:        true,
		CreditsGranted: granted,
		Balance:        balance,
	}, nil
}

// settle 结算：状态跃迁、额度发放、钱包扣减在同一数据库事务内完成
// 状态跃迁的条件更新是幂等闸门，并发重放只有一次能进来
func (s *OrderService) settle(transactionID int64, providerPaymentID string) (map[string]int, error) {
	granted := make(map[string]int)
	var settled *model.Transaction

	err := s.db.Transaction(func(dbtx *gorm.DB) error {
		ok, err := s.txRepo.MarkSuccess(dbtx, transactionID, providerPaymentID)
		if err != nil {
			return err
		}
		if !ok {
			// 已被并发结算或已关闭
			tx, err := s.txRepo.GetByIDTx(dbtx, transactionID)
			if err != nil {
				return err
			}
			if tx.Status == model.TxStatusSuccess {
				return nil
			}
			return ErrTransactionClosed
		}

		tx, err := s.txRepo.GetByIDTx(dbtx, transactionID)
		if err != nil {
			return err
		}
		settled = tx

		// 单人单次的并发兜底：询价时 pending 不占用优惠券，
		// 同一张券可能挂着多笔 pending，结算内重查 success 计数，晚到的一笔整体回滚
		if tx.CouponCode != "" {
			used, err := s.txRepo.CountCouponSuccessByUser(dbtx, tx.UserID, tx.CouponCode, tx.ID)
			if err != nil {
				return err
			}
			if used > 0 {
				return ErrCouponAlreadyUsed
			}
		}

		if tx.PlanID != "" {
			planGranted, err := s.credits.GrantPlan(dbtx, tx.UserID, tx.PlanID, tx.ID)
			if err != nil {
				return err
			}
			for kind, n := range planGranted {
				granted[kind] += n
			}
		}

		addonGranted, err := s.credits.GrantAddOns(dbtx, tx.UserID, tx.AddOnItems, tx.ID)
		if err != nil {
			return err
		}
		for kind, n := range addonGranted {
			granted[kind] += n
		}

		// 钱包抵扣在结算时才真正扣款，下单时不冻结
		if tx.WalletApplied > 0 {
			ok, err := s.userRepo.DebitWallet(dbtx, tx.UserID, tx.WalletApplied)
			if err != nil {
				return err
			}
			if !ok {
				return ErrWalletBalanceChanged
			}
			if err := s.walletRepo.CreateTx(dbtx, &model.WalletTransaction{
				UserID:        tx.UserID,
				Amount:        -tx.WalletApplied,
				Status:        model.WalletTxStatusSuccess,
				Remark:        "下单抵扣",
				TransactionID: tx.ID,
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		// 重复用券的订单直接关闭，不能留在 pending 里反复重试
		if errors.Is(err, ErrCouponAlreadyUsed) {
			if _, markErr := s.txRepo.MarkFailed(nil, transactionID, "优惠券重复使用"); markErr != nil {
				log.Printf("Failed to mark transaction %d failed: %v", transactionID, markErr)
			}
		}
		return nil, err
	}

	if settled != nil {
		s.notifySettled(settled)
	}

	return granted, nil
}

// notifySettled 结算后的通知，全部尽力而为，不影响结算结果
func (s *OrderService) notifySettled(tx *model.Transaction) {
	if s.publisher != nil {
		if err := s.publisher.PublishPayment(context.Background(), &pubsub.PaymentMessage{
			UserID:        tx.UserID,
			TransactionID: tx.ID,
			Status:        tx.Status,
		}); err != nil {
			log.Printf("Failed to publish payment event for transaction %d: %v", tx.ID, err)
		}
	}

	if s.mailer != nil && tx.FinalAmount > 0 {
		go func() {
			user, err := s.userRepo.GetByID(tx.UserID)
			if err != nil || user.Email == nil {
				return
			}
			name := tx.PlanID
			if plan, ok := s.catalog.Plan(tx.PlanID); ok {
				name = plan.Name
			}
			if name == "" {
				name = "加油包"
			}
			if err := s.mailer.SendPaymentReceipt(*user.Email, tx.FinalAmount, name); err != nil {
				log.Printf("Failed to send payment receipt for transaction %d: %v", tx.ID, err)
			}
		}()
	}
}

// Cancel 用户主动取消未支付的订单
func (s *OrderService) Cancel(userID int64, transactionID int64) error {
	tx, err := s.txRepo.GetByID(transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTransactionNotFound
		}
		return err
	}
	if tx.UserID != userID {
		return ErrTransactionDenied
	}
	if tx.IsTerminal() {
		return ErrTransactionClosed
	}

	ok, err := s.txRepo.MarkFailed(nil, transactionID, "用户取消")
	if err != nil {
		return err
	}
	if !ok {
		return ErrTransactionClosed
	}
	return nil
}

// GetTransaction 查询单笔交易
func (s *OrderService) GetTransaction(userID int64, transactionID int64) (*model.Transaction, error) {
	tx, err := s.txRepo.GetByID(transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if tx.UserID != userID {
		return nil, ErrTransactionDenied
	}
	return tx, nil
}

// ListTransactions 交易列表
func (s *OrderService) ListTransactions(userID int64, page, pageSize int) ([]model.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.txRepo.ListByUser(userID, page, pageSize)
}

func newReceipt() string {
	return "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}
