package repository

import (
	"context"
	"errors"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"
	repo "github.com/Coder20131462/Ecommerce-App/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 現在庫を読んで qty と比較するだけ。確保はしない。
func (r *InventoryGormRepository) CheckAvailable(ctx context.Context, productID int64, qty int64) (bool, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Select("stock").First(&p, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, repo.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return p.Stock >= qty, nil
}

// 在庫が足りるときだけ減らす。WHERE句で再判定するので負数にはならない。
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", newStock)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}
