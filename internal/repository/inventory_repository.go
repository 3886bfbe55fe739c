package repository

import (
	"context"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"
)

// 在庫台帳。stockカラムを触ってよいのはこのインターフェースだけ。
type InventoryRepository interface {
	// 現在庫がqty以上かどうか（advisoryチェック。確保はしない）
	CheckAvailable(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫が足りるときだけ原子的に減算する。減算できたらtrue。
	// 事前のCheckAvailableは信用せず、ここで再判定する。
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫の現在値を設定（管理者操作）
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
