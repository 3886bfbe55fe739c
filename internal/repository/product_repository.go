package repository

import (
	"context"
	"errors"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一意制約違反。同時書き込みの検知に使う。
var ErrDuplicateKey = errors.New("duplicate key")

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

// 商品の永続化（保存・取得）だけを約束。
// 在庫カラムの更新はここではなく InventoryRepository が行う。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
