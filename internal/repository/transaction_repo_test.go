package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/resume_go_server/internal/model"
	"github.com/qs3c/resume_go_server/internal/testutil"
)

func TestTransactionRepository_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	_ = NewTransactionRepository(db)

	tx := testutil.TestTransaction(t, db, testutil.TestUser(t, db).ID)

	assert.NotZero(t, tx.ID)
	assert.Equal(t, model.TxStatusPending, tx.Status)
}

func TestTransactionRepository_GetByReceipt(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTransactionRepository(db)

	user := testutil.TestUser(t, db)
	created := testutil.TestTransaction(t, db, user.ID)

	found, err := repo.GetByReceipt(created.Receipt)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestTransactionRepository_MarkSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTransactionRepository(db)

	user := testutil.TestUser(t, db)
	tx := testutil.TestTransaction(t, db, user.ID)

	ok, err := repo.MarkSuccess(nil, tx.ID, "pay_abc123")
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := repo.GetByID(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxStatusSuccess, found.Status)
	assert.Equal(t, "pay_abc123", found.ProviderPaymentID)
}

func TestTransactionRepository_MarkSuccess_AlreadyTerminal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTransactionRepository(db)

	user := testutil.TestUser(t, db)
	tx := testutil.TestTransaction(t, db, user.ID)

	ok, err := repo.MarkSuccess(nil, tx.ID, "pay_first")
	require.NoError(t, err)
	require.True(t, ok)

	// 第二次跃迁必须不生效
	ok, err = repo.MarkSuccess(nil, tx.ID, "pay_second")
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.GetByID(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "pay_first", found.ProviderPaymentID)
}

func TestTransactionRepository_MarkFailed_NotFromSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTransactionRepository(db)

	user := testutil.TestUser(t, db)
	tx := testutil.TestTransaction(t, db, user.ID, testutil.WithTxStatus(model.TxStatusSuccess))

	// success 是终态，不能再置为 failed
	ok, err := repo.MarkFailed(nil, tx.ID, "signature mismatch")
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.GetByID(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxStatusSuccess, found.Status)
}

func TestTransactionRepository_CountCouponUseByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTransactionRepository(db)

	user := testutil.TestUser(t, db)

	// pending 不计入个人使用次数
	testutil.TestTransaction(t, db, user.ID, testutil.WithCoupon("FIRST100"))
	count, err := repo.CountCouponUseByUser(user.ID, "FIRST100")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// success 与 failed 都计入
	testutil.TestTransaction(t, db, user.ID,
		testutil.WithCoupon("FIRST100"), testutil.WithTxStatus(model.TxStatusSuccess))
	testutil.TestTransaction(t, db, user.ID,
		testutil.WithCoupon("FIRST100"), testutil.WithTxStatus(model.TxStatusFailed))

	count, err = repo.CountCouponUseByUser(user.ID, "FIRST100")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTransactionRepository_CountCouponUseGlobal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTransactionRepository(db)

	userA := testutil.TestUser(t, db)
	userB := testutil.TestUser(t, db)

	// pending 和 success 计入全局占用，failed 不计入
	testutil.TestTransaction(t, db, userA.ID, testutil.WithCoupon("LAUNCH50"))
	testutil.TestTransaction(t, db, userB.ID,
		testutil.WithCoupon("LAUNCH50"), testutil.WithTxStatus(model.TxStatusSuccess))
	testutil.TestTransaction(t, db, userB.ID,
		testutil.WithCoupon("LAUNCH50"), testutil.WithTxStatus(model.TxStatusFailed))

	count, err := repo.CountCouponUseGlobal("LAUNCH50")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTransactionRepository_SweepStalePending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTransactionRepository(db)

	user := testutil.TestUser(t, db)

	stale := testutil.TestTransaction(t, db, user.ID)
	require.NoError(t, db.Model(stale).Update("created_at", time.Now().Add(-48*time.Hour)).Error)

	fresh := testutil.TestTransaction(t, db, user.ID)

	n, err := repo.SweepStalePending(24*time.Hour, "支付超时自动关闭")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, err := repo.GetByID(stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxStatusFailed, found.Status)
	assert.Equal(t, "支付超时自动关闭", found.FailReason)

	found, err = repo.GetByID(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxStatusPending, found.Status)
}

func TestTransactionRepository_ListByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTransactionRepository(db)

	user := testutil.TestUser(t, db)
	for i := 0; i < 3; i++ {
		testutil.TestTransaction(t, db, user.ID)
	}

	txs, total, err := repo.ListByUser(user.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, txs, 2)
}
