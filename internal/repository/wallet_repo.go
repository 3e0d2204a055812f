package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/internal/model"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(wt *model.WalletTransaction) error {
	return r.db.Create(wt).Error
}

// CreateTx 在指定事务内写流水，结算路径使用
func (r *WalletRepository) CreateTx(dbtx *gorm.DB, wt *model.WalletTransaction) error {
	return dbtx.Create(wt).Error
}

func (r *WalletRepository) ListByUser(userID int64, page, pageSize int) ([]model.WalletTransaction, int64, error) {
	var wts []model.WalletTransaction
	var total int64

	query := r.db.Model(&model.WalletTransaction{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&wts).Error
	if err != nil {
		return nil, 0, err
	}

	return wts, total, nil
}
