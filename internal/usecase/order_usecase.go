package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/apperr"
	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"
	"github.com/Coder20131462/Ecommerce-App/internal/metrics"
	repo "github.com/Coder20131462/Ecommerce-App/internal/repository"

	"github.com/google/uuid"
)

// OrderUsecase はカート→注文の変換と注文照会を担当する。
// 変換は1トランザクション：注文作成・明細作成・在庫確保・カートクリアの
// どこで失敗しても全て巻き戻る。
type OrderUsecase struct {
	tx repo.TransactionManager
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx}
}

type CreateOrderInput struct {
	ShippingAddress string
	BillingAddress  string
	// 空ならフレッシュなキーを採番する（＝再送検知なし）。
	// クライアントが同じキーを再送したら既存の注文をそのまま返す。
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID           int64  `json:"product_id"`
	Name                string `json:"name"`
	UnitPriceAtPurchase int64  `json:"unit_price_at_purchase"`
	Quantity            int64  `json:"quantity"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	Status          string            `json:"status"`
	TotalAmount     int64             `json:"total_amount"`
	ShippingAddress string            `json:"shipping_address"`
	BillingAddress  string            `json:"billing_address"`
	PaymentIntentID *string           `json:"payment_intent_id"`
	PaymentStatus   string            `json:"payment_status"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

// CreateFromCart はカートから注文を作る中心トランザクション。
//  1. カート読込（空ならEmptyCart）
//  2. 現在価格で合計を計算（価格を読むのはこの1回だけ。
//     合計と明細単価は同じ読みを使い、不整合を作らない）
//  3. PENDINGで注文を保存
//  4. 行ごとに在庫を再確認（advisoryの二重チェック）
//  5. 明細をスナップショットで作成
//  6. 行ごとに在庫を原子的に確保（負けたらInsufficientStockで全て巻き戻し）
//  7. カートを空にする
func (u *OrderUsecase) CreateFromCart(ctx context.Context, userID int64, in CreateOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, apperr.ErrUnauthorized
	}
	shipping := strings.TrimSpace(in.ShippingAddress)
	billing := strings.TrimSpace(in.BillingAddress)
	if shipping == "" || billing == "" {
		return OrderOutput{}, apperr.NewInvalidInput("shipping and billing address are required")
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		key = uuid.NewString()
	}
	if len(key) > 255 {
		return OrderOutput{}, apperr.NewInvalidInput("invalid idempotency key")
	}

	var out OrderOutput
	replayed := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return err
			}
			out = toOrderOutput(existing, items)
			replayed = true
			return nil
		}

		// カート読込
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.ErrEmptyCart
		}
		if err != nil {
			return err
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return apperr.ErrEmptyCart
		}

		// 価格スナップショットと合計。同じ読みを両方に使う。
		now := time.Now()
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		var total int64 = 0

		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return &apperr.ProductUnavailableError{ProductID: ci.ProductID}
			}
			if err != nil {
				return err
			}
			if !p.IsActive {
				return &apperr.ProductUnavailableError{ProductID: ci.ProductID}
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:           ci.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceAtPurchase: p.Price,
				Quantity:            ci.Quantity,
				CreatedAt:           now,
			})
			total += p.Price * ci.Quantity
		}

		// PENDINGで注文を保存
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:          userID,
			Status:          model.OrderStatusPending,
			TotalAmount:     total,
			ShippingAddress: shipping,
			BillingAddress:  billing,
			IdempotencyKey:  key,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return err
		}

		// 在庫の再確認（確保とは別の二段目のガード）
		for _, ci := range cartItems {
			ok, err := r.Inventory().CheckAvailable(ctx, ci.ProductID, ci.Quantity)
			if errors.Is(err, repo.ErrNotFound) {
				return &apperr.ProductUnavailableError{ProductID: ci.ProductID}
			}
			if err != nil {
				return err
			}
			if !ok {
				return &apperr.ProductUnavailableError{ProductID: ci.ProductID}
			}
		}

		// 明細作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return err
		}

		// 在庫確保。CheckAvailableは信用せずここで原子的に再判定する。
		for _, ci := range cartItems {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &apperr.InsufficientStockError{ProductID: ci.ProductID}
			}
		}

		// カートを空にする（カート自体は残す）
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return err
		}

		created := model.Order{
			ID:              orderID,
			UserID:          userID,
			Status:          model.OrderStatusPending,
			TotalAmount:     total,
			ShippingAddress: shipping,
			BillingAddress:  billing,
			CreatedAt:       now,
		}
		out = toOrderOutput(created, orderItems)
		return nil
	})

	if errors.Is(err, repo.ErrDuplicateKey) {
		// 同時に同じキーが入った。失敗したトランザクションは中断済みなので、
		// 引き直しは外側の新しいトランザクションで行う。
		err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			existing, found, lookupErr := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if lookupErr != nil {
				return lookupErr
			}
			if !found {
				return repo.ErrDuplicateKey
			}
			items, itemsErr := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if itemsErr != nil {
				return itemsErr
			}
			out = toOrderOutput(existing, items)
			replayed = true
			return nil
		})
	}
	if err != nil {
		return OrderOutput{}, err
	}
	if !replayed {
		metrics.OrdersCreated.Inc()
	}
	return out, nil
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, apperr.ErrUnauthorized
	}
	if page < 1 {
		return OrderListOutput{}, apperr.NewInvalidInput("invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, apperr.NewInvalidInput("invalid limit")
	}

	var outs []OrderOutput
	var total int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, n, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return err
		}
		total = n

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, apperr.ErrUnauthorized
	}
	if orderID <= 0 {
		return OrderOutput{}, apperr.NewInvalidInput("invalid order id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return &apperr.NotFoundError{Entity: "order", ID: orderID}
		}
		if err != nil {
			return err
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return &apperr.NotFoundError{Entity: "order", ID: orderID}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:           it.ProductID,
			Name:                it.ProductNameSnapshot,
			UnitPriceAtPurchase: it.UnitPriceAtPurchase,
			Quantity:            it.Quantity,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		PaymentIntentID: o.PaymentIntentID,
		PaymentStatus:   o.PaymentStatus,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
