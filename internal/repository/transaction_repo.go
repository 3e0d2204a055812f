package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/internal/model"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(tx *model.Transaction) error {
	return r.db.Create(tx).Error
}

func (r *TransactionRepository) GetByID(id int64) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.Where("id = ?", id).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetByIDTx 在指定事务内读取
func (r *TransactionRepository) GetByIDTx(dbtx *gorm.DB, id int64) (*model.Transaction, error) {
	var tx model.Transaction
	err := dbtx.Where("id = ?", id).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) GetByReceipt(receipt string) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.Where("receipt = ?", receipt).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) ListByUser(userID int64, page, pageSize int) ([]model.Transaction, int64, error) {
	var txs []model.Transaction
	var total int64

	query := r.db.Model(&model.Transaction{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&txs).Error
	if err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

// UpdateProviderOrderID 写入网关订单号
func (r *TransactionRepository) UpdateProviderOrderID(id int64, providerOrderID string) error {
	return r.db.Model(&model.Transaction{}).Where("id = ?", id).
		Update("provider_order_id", providerOrderID).Error
}

// MarkSuccess 置为成功终态，仅当当前为 pending 时生效
// 返回是否发生了状态跃迁
func (r *TransactionRepository) MarkSuccess(dbtx *gorm.DB, id int64, providerPaymentID string) (bool, error) {
	if dbtx == nil {
		dbtx = r.db
	}
	result := dbtx.Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, model.TxStatusPending).
		Updates(map[string]interface{}{
			"status":              model.TxStatusSuccess,
			"provider_payment_id": providerPaymentID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkFailed 置为失败终态，仅当当前为 pending 时生效
func (r *TransactionRepository) MarkFailed(dbtx *gorm.DB, id int64, reason string) (bool, error) {
	if dbtx == nil {
		dbtx = r.db
	}
	result := dbtx.Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, model.TxStatusPending).
		Updates(map[string]interface{}{
			"status":      model.TxStatusFailed,
			"fail_reason": reason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountCouponUseByUser 用户对某优惠券的非 pending 使用次数
// pending 不计入，防止挂单占用优惠券
func (r *TransactionRepository) CountCouponUseByUser(userID int64, code string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Transaction{}).
		Where("user_id = ? AND coupon_code = ? AND status <> ?", userID, code, model.TxStatusPending).
		Count(&count).Error
	return count, err
}

// CountCouponSuccessByUser 统计 (user, coupon) 已结算成功的订单数，排除指定订单
// 结算事务内的复核用：两笔 pending 可以同时带着同一张券通过询价
func (r *TransactionRepository) CountCouponSuccessByUser(dbtx *gorm.DB, userID int64, code string, excludeID int64) (int64, error) {
	if dbtx == nil {
		dbtx = r.db
	}
	var count int64
	err := dbtx.Model(&model.Transaction{}).
		Where("user_id = ? AND coupon_code = ? AND status = ? AND id <> ?",
			userID, code, model.TxStatusSuccess, excludeID).
		Count(&count).Error
	return count, err
}

// CountCouponUseGlobal 优惠券全局占用数，pending 与 success 都计入
// 下单时立即占位，避免超发
func (r *TransactionRepository) CountCouponUseGlobal(code string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Transaction{}).
		Where("coupon_code = ? AND status IN ?", code, []string{model.TxStatusPending, model.TxStatusSuccess}).
		Count(&count).Error
	return count, err
}

// SweepStalePending 把超过给定时长仍未结算的 pending 订单置为失败
// 返回处理的条数
func (r *TransactionRepository) SweepStalePending(olderThan time.Duration, reason string) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := r.db.Model(&model.Transaction{}).
		Where("status = ? AND created_at < ?", model.TxStatusPending, cutoff).
		Updates(map[string]interface{}{
			"status":      model.TxStatusFailed,
			"fail_reason": reason,
		})
	return result.RowsAffected, result.Error
}

// ListStalePending 列出超时的 pending 订单，清理工具 dry-run 使用
func (r *TransactionRepository) ListStalePending(olderThan time.Duration) ([]model.Transaction, error) {
	cutoff := time.Now().Add(-olderThan)
	var txs []model.Transaction
	err := r.db.Where("status = ? AND created_at < ?", model.TxStatusPending, cutoff).
		Order("created_at ASC").Find(&txs).Error
	return txs, err
}
