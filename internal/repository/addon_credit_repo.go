package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/internal/model"
)

type AddOnCreditRepository struct {
	db *gorm.DB
}

func NewAddOnCreditRepository(db *gorm.DB) *AddOnCreditRepository {
	return &AddOnCreditRepository{db: db}
}

func (r *AddOnCreditRepository) Create(credit *model.AddOnCredit) error {
	return r.db.Create(credit).Error
}

// CreateTx 在指定事务内创建，结算路径使用
func (r *AddOnCreditRepository) CreateTx(dbtx *gorm.DB, credit *model.AddOnCredit) error {
	return dbtx.Create(credit).Error
}

func (r *AddOnCreditRepository) GetByID(id int64) (*model.AddOnCredit, error) {
	var credit model.AddOnCredit
	err := r.db.Where("id = ?", id).First(&credit).Error
	if err != nil {
		return nil, err
	}
	return &credit, nil
}

// ListByUser 用户全部未耗尽或未过期的加油包批次
func (r *AddOnCreditRepository) ListByUser(userID int64) ([]model.AddOnCredit, error) {
	var credits []model.AddOnCredit
	err := r.db.Where("user_id = ?", userID).
		Order("created_at ASC").Find(&credits).Error
	return credits, err
}

// ListConsumable 指定资源下有剩余且未过期的批次
// 先到期的排前面，永不过期（expires_at 为空）的排最后
func (r *AddOnCreditRepository) ListConsumable(userID int64, kind string) ([]model.AddOnCredit, error) {
	var credits []model.AddOnCredit
	err := r.db.Where("user_id = ? AND kind = ? AND remaining > 0", userID, kind).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Order("CASE WHEN expires_at IS NULL THEN 1 ELSE 0 END, expires_at ASC").
		Find(&credits).Error
	return credits, err
}

// ConsumeOne 对指定批次做一次条件扣减
// WHERE remaining > 0 保证并发下不会扣成负数，返回是否扣减成功
func (r *AddOnCreditRepository) ConsumeOne(id int64) (bool, error) {
	result := r.db.Model(&model.AddOnCredit{}).
		Where("id = ? AND remaining > 0", id).
		Update("remaining", gorm.Expr("remaining - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RefundOne 回补一次扣减，remaining 不超过 purchased
func (r *AddOnCreditRepository) RefundOne(id int64) error {
	return r.db.Model(&model.AddOnCredit{}).
		Where("id = ? AND remaining < purchased", id).
		Update("remaining", gorm.Expr("remaining + 1")).Error
}
