package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/internal/model"
	"github.com/qs3c/resume_go_server/internal/repository"
	"github.com/qs3c/resume_go_server/internal/testutil"
)

func newCreditService(db *gorm.DB) *CreditService {
	return NewCreditService(
		testCatalog(),
		repository.NewSubscriptionRepository(db),
		repository.NewAddOnCreditRepository(db),
	)
}

func TestCreditService_GrantPlan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newCreditService(db)
	user := testutil.TestUser(t, db)

	granted, err := svc.GrantPlan(nil, user.ID, "pro_monthly", 42)
	require.NoError(t, err)
	assert.Equal(t, 10, granted[model.KindOptimization])
	assert.Equal(t, 3, granted[model.KindGuidedBuild])

	var sub model.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	assert.Equal(t, "pro_monthly", sub.PlanID)
	assert.Equal(t, int64(42), sub.TransactionID)
	assert.Equal(t, 10, sub.TotalOptimizations)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), sub.ExpiresAt, time.Minute)
}

func TestCreditService_GrantAddOns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newCreditService(db)
	user := testutil.TestUser(t, db)

	encoded := EncodeAddOns(map[string]int{"opt_pack_5": 2, "msg_pack_10": 1})
	granted, err := svc.GrantAddOns(nil, user.ID, encoded, 42)
	require.NoError(t, err)

	// opt_pack_5 每包 5 次，买 2 包
	assert.Equal(t, 10, granted[model.KindOptimization])
	assert.Equal(t, 10, granted[model.KindLinkedinMessage])

	var credits []model.AddOnCredit
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&credits).Error)
	require.Len(t, credits, 2)

	for _, c := range credits {
		switch c.AddOnID {
		case "opt_pack_5":
			assert.Equal(t, 10, c.Remaining)
			require.NotNil(t, c.ExpiresAt) // 90 天有效期
		case "msg_pack_10":
			assert.Equal(t, 10, c.Remaining)
			assert.Nil(t, c.ExpiresAt) // 永不过期
		}
	}
}

func TestCreditService_GetBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newCreditService(db)
	user := testutil.TestUser(t, db)

	testutil.TestSubscription(t, db, user.ID,
		testutil.WithQuota(model.KindOptimization, 3, 10))
	// 到期但未取消的套餐额度仍计入
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithSubStatus(model.SubStatusExpired),
		testutil.WithExpiresAt(time.Now().Add(-time.Hour)),
		testutil.WithQuota(model.KindOptimization, 0, 5))
	// 取消的批次不计入
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithSubStatus(model.SubStatusCancelled),
		testutil.WithQuota(model.KindOptimization, 0, 100))
	// 过期的加油包不计入
	testutil.TestAddOnCredit(t, db, user.ID, model.KindOptimization,
		testutil.WithExpiry(time.Now().Add(-time.Hour)))
	testutil.TestAddOnCredit(t, db, user.ID, model.KindOptimization,
		testutil.WithRemaining(5, 2))

	balance, err := svc.GetBalance(user.ID)
	require.NoError(t, err)

	kb := balance.Kinds[model.KindOptimization]
	assert.Equal(t, 3+3, kb.Used) // 套餐已用 3 + 加油包已用 3
	assert.Equal(t, 10+5+5, kb.Total)
	assert.Equal(t, 14, kb.Remaining)
	assert.True(t, balance.Active)
}

func TestCreditService_GetBalance_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newCreditService(db)
	user := testutil.TestUser(t, db)

	balance, err := svc.GetBalance(user.ID)
	require.NoError(t, err)

	assert.False(t, balance.Active)
	assert.Equal(t, 0, balance.Kinds[model.KindOptimization].Remaining)
}

func TestCreditService_Consume_AddOnBeforeSubscription(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newCreditService(db)
	user := testutil.TestUser(t, db)

	sub := testutil.TestSubscription(t, db, user.ID)
	addon := testutil.TestAddOnCredit(t, db, user.ID, model.KindOptimization,
		testutil.WithRemaining(5, 1))

	// 加油包优先于套餐
	lot, err := svc.Consume(user.ID, model.KindOptimization)
	require.NoError(t, err)
	assert.Equal(t, LotAddOn, lot.Source)
	assert.Equal(t, addon.ID, lot.LotID)

	// 加油包耗尽后落到套餐
	lot, err = svc.Consume(user.ID, model.KindOptimization)
	require.NoError(t, err)
	assert.Equal(t, LotSubscription, lot.Source)
	assert.Equal(t, sub.ID, lot.LotID)
}

func TestCreditService_Consume_SoonestExpiryFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newCreditService(db)
	user := testutil.TestUser(t, db)

	never := testutil.TestAddOnCredit(t, db, user.ID, model.KindScoreCheck,
		testutil.WithRemaining(5, 1))
	sooner := testutil.TestAddOnCredit(t, db, user.ID, model.KindScoreCheck,
		testutil.WithRemaining(5, 1),
		testutil.WithExpiry(time.Now().AddDate(0, 0, 7)))

	lot, err := svc.Consume(user.ID, model.KindScoreCheck)
	require.NoError(t, err)
	assert.Equal(t, sooner.ID, lot.LotID)

	lot, err = svc.Consume(user.ID, model.KindScoreCheck)
	require.NoError(t, err)
	assert.Equal(t, never.ID, lot.LotID)
}

func TestCreditService_Consume_Exhausted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newCreditService(db)
	user := testutil.TestUser(t, db)

	testutil.TestSubscription(t, db, user.ID,
		testutil.WithQuota(model.KindGuidedBuild, 0, 2))

	for i := 0; i < 2; i++ {
		_, err := svc.Consume(user.ID, model.KindGuidedBuild)
		require.NoError(t, err)
	}

	_, err := svc.Consume(user.ID, model.KindGuidedBuild)
	assert.ErrorIs(t, err, ErrNoCredits)
}

func TestCreditService_Consume_InvalidKind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newCreditService(db)

	_, err := svc.Consume(1, "bogus")
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestCreditService_Refund(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newCreditService(db)
	user := testutil.TestUser(t, db)

	testutil.TestAddOnCredit(t, db, user.ID, model.KindOptimization,
		testutil.WithRemaining(5, 1))

	lot, err := svc.Consume(user.ID, model.KindOptimization)
	require.NoError(t, err)

	remaining, err := svc.Remaining(user.ID, model.KindOptimization)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	require.NoError(t, svc.Refund(lot, model.KindOptimization))

	remaining, err = svc.Remaining(user.ID, model.KindOptimization)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestEncodeAddOns_Deterministic(t *testing.T) {
	assert.Equal(t, "a:1,b:2", EncodeAddOns(map[string]int{"b": 2, "a": 1}))
	assert.Equal(t, "", EncodeAddOns(nil))
}
