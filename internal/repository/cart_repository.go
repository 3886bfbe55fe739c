package repository

import (
	"context"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"
)

type CartRepository interface {
	// ユーザーのカートを取得し、無ければ作る。冪等。
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	// 明細を全削除する（カート自体は残す）
	Clear(ctx context.Context, cartID int64) error
}
