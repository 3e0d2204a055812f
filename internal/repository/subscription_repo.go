package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

// CreateTx 在指定事务内创建，结算路径使用
func (r *SubscriptionRepository) CreateTx(dbtx *gorm.DB, sub *model.Subscription) error {
	return dbtx.Create(sub).Error
}

func (r *SubscriptionRepository) GetByID(id int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByUser 用户全部非取消的套餐批次，到期的也返回
// 额度不随套餐到期作废，只有取消的批次被排除
func (r *SubscriptionRepository) ListByUser(userID int64) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.Where("user_id = ? AND status <> ?", userID, model.SubStatusCancelled).
		Order("expires_at ASC").Find(&subs).Error
	return subs, err
}

// ListConsumable 有指定资源剩余额度的套餐批次，按到期时间升序
func (r *SubscriptionRepository) ListConsumable(userID int64, kind string) ([]model.Subscription, error) {
	cols, ok := model.SubKindColumns[kind]
	if !ok {
		return nil, fmt.Errorf("unknown resource kind: %s", kind)
	}

	var subs []model.Subscription
	err := r.db.Where("user_id = ? AND status <> ?", userID, model.SubStatusCancelled).
		Where(fmt.Sprintf("%s < %s", cols[0], cols[1])).
		Order("expires_at ASC").Find(&subs).Error
	return subs, err
}

// ConsumeOne 对指定批次做一次条件扣减
// WHERE used < total 保证并发下不会超扣，返回是否扣减成功
func (r *SubscriptionRepository) ConsumeOne(id int64, kind string) (bool, error) {
	cols, ok := model.SubKindColumns[kind]
	if !ok {
		return false, fmt.Errorf("unknown resource kind: %s", kind)
	}
	usedCol, totalCol := cols[0], cols[1]

	result := r.db.Model(&model.Subscription{}).
		Where(fmt.Sprintf("id = ? AND %s < %s", usedCol, totalCol), id).
		Update(usedCol, gorm.Expr(usedCol+" + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RefundOne 回补一次扣减，功能执行失败时的补偿
func (r *SubscriptionRepository) RefundOne(id int64, kind string) error {
	cols, ok := model.SubKindColumns[kind]
	if !ok {
		return fmt.Errorf("unknown resource kind: %s", kind)
	}
	usedCol := cols[0]

	return r.db.Model(&model.Subscription{}).
		Where(fmt.Sprintf("id = ? AND %s > 0", usedCol), id).
		Update(usedCol, gorm.Expr(usedCol+" - 1")).Error
}

// MarkExpired 把已过期但状态仍为 active 的批次置为 expired
// 仅影响展示状态，不影响额度消耗
func (r *SubscriptionRepository) MarkExpired() (int64, error) {
	result := r.db.Model(&model.Subscription{}).
		Where("status = ? AND expires_at < ?", model.SubStatusActive, time.Now()).
		Update("status", model.SubStatusExpired)
	return result.RowsAffected, result.Error
}
