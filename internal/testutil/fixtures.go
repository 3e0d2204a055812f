package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/internal/model"
)

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	email := fmt.Sprintf("test_%d@example.com", time.Now().UnixNano())
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Username:      fmt.Sprintf("testuser_%d", time.Now().UnixNano()%100000),
		Email:         &email,
		PasswordHash:  &passwordHash,
		EmailVerified: true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// WithWalletBalance 设置钱包余额（派萨）
func WithWalletBalance(balance int64) func(*model.User) {
	return func(u *model.User) {
		u.WalletBalance = balance
	}
}

// TestSubscription 创建测试套餐批次
func TestSubscription(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	now := time.Now()
	sub := &model.Subscription{
		UserID:                userID,
		PlanID:                "pro_monthly",
		Status:                model.SubStatusActive,
		StartedAt:             now,
		ExpiresAt:             now.AddDate(0, 0, 30),
		TotalOptimizations:    10,
		TotalScoreChecks:      10,
		TotalLinkedinMessages: 10,
		TotalGuidedBuilds:     3,
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// WithPlan 设置套餐 ID
func WithPlan(planID string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.PlanID = planID
	}
}

// WithSubStatus 设置套餐状态
func WithSubStatus(status string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

// WithExpiresAt 设置套餐到期时间
func WithExpiresAt(at time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.ExpiresAt = at
	}
}

// WithQuota 设置指定资源的已用/总量
func WithQuota(kind string, used, total int) func(*model.Subscription) {
	return func(s *model.Subscription) {
		switch kind {
		case model.KindOptimization:
			s.UsedOptimizations = used
			s.TotalOptimizations = total
		case model.KindScoreCheck:
			s.UsedScoreChecks = used
			s.TotalScoreChecks = total
		case model.KindLinkedinMessage:
			s.UsedLinkedinMessages = used
			s.TotalLinkedinMessages = total
		case model.KindGuidedBuild:
			s.UsedGuidedBuilds = used
			s.TotalGuidedBuilds = total
		}
	}
}

// TestAddOnCredit 创建测试加油包批次
func TestAddOnCredit(t *testing.T, db *gorm.DB, userID int64, kind string, opts ...func(*model.AddOnCredit)) *model.AddOnCredit {
	t.Helper()

	credit := &model.AddOnCredit{
		UserID:    userID,
		AddOnID:   "addon_" + kind,
		Kind:      kind,
		Purchased: 5,
		Remaining: 5,
	}

	for _, opt := range opts {
		opt(credit)
	}

	if err := db.Create(credit).Error; err != nil {
		t.Fatalf("Failed to create test addon credit: %v", err)
	}

	return credit
}

// WithRemaining 设置加油包剩余量
func WithRemaining(purchased, remaining int) func(*model.AddOnCredit) {
	return func(c *model.AddOnCredit) {
		c.Purchased = purchased
		c.Remaining = remaining
	}
}

// WithExpiry 设置加油包过期时间
func WithExpiry(at time.Time) func(*model.AddOnCredit) {
	return func(c *model.AddOnCredit) {
		c.ExpiresAt = &at
	}
}

// TestTransaction 创建测试交易
func TestTransaction(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Transaction)) *model.Transaction {
	t.Helper()

	tx := &model.Transaction{
		UserID:         userID,
		PlanID:         "pro_monthly",
		Status:         model.TxStatusPending,
		OriginalAmount: 49900,
		FinalAmount:    49900,
		Receipt:        fmt.Sprintf("rcpt_%d", time.Now().UnixNano()),
	}

	for _, opt := range opts {
		opt(tx)
	}

	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return tx
}

// WithTxStatus 设置交易状态
func WithTxStatus(status string) func(*model.Transaction) {
	return func(tx *model.Transaction) {
		tx.Status = status
	}
}

// WithCoupon 设置优惠券
func WithCoupon(code string) func(*model.Transaction) {
	return func(tx *model.Transaction) {
		tx.CouponCode = code
	}
}

// WithAmounts 设置金额拆解
func WithAmounts(original, discount, wallet, addons, final int64) func(*model.Transaction) {
	return func(tx *model.Transaction) {
		tx.OriginalAmount = original
		tx.DiscountAmount = discount
		tx.WalletApplied = wallet
		tx.AddOnsAmount = addons
		tx.FinalAmount = final
	}
}

// WithCreatedAt 设置交易创建时间（清理逻辑测试用）
func WithCreatedAt(at time.Time) func(*model.Transaction) {
	return func(tx *model.Transaction) {
		tx.CreatedAt = at
	}
}
