package repository

import (
	"context"
	"time"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	// 決済インテント参照の保存（作成直後の"created"ミラーも同時に書く）
	SetPaymentIntent(ctx context.Context, orderID int64, paymentIntentID string, paymentStatus string) error
	// プロバイダイベント適用。paymentStatusミラーと注文ステータスを同時に更新する。
	// PENDINGの行だけを書き換えて、書けたらtrue。事前読みの結果は信用しない。
	UpdatePaymentState(ctx context.Context, orderID int64, paymentStatus string, status model.OrderStatus) (bool, error)
	// イベントはintentIDでしか注文を特定できない
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (model.Order, bool, error)

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
