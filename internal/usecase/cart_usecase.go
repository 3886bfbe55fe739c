package usecase

import (
	"context"
	"errors"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/apperr"
	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"
	repo "github.com/Coder20131462/Ecommerce-App/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// カートの在庫チェックはadvisory（参考情報）であり、確保はしない。
// 最後の1個の取り合いは注文作成時に決着する。
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
	}
}

// price は現在の商品価格。カートはスナップショットを持たないので
// 表示のたびに現在価格から小計を計算する。
type CartItemResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

// GetCart はカート取得（無ければ空のカートを作って返す）。冪等。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, apperr.ErrUnauthorized
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// AddItem はカートに追加（同一商品は数量加算）。
// 加算後の数量を「現在の」在庫と突き合わせる。超過時はカートを変更しない。
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, apperr.ErrUnauthorized
	}
	if in.ProductID <= 0 {
		return CartResponse{}, apperr.NewInvalidInput("invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, apperr.NewInvalidInput("quantity must be positive")
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}

	// 商品チェック（公開のみ）
	p, err := u.findSellableProduct(ctx, in.ProductID)
	if err != nil {
		return CartResponse{}, err
	}

	// 既存数量と合算して現在庫と比較する
	var existingQty int64 = 0
	existing, err := u.cartItemRepo.FindByCartAndProduct(ctx, cart.ID, in.ProductID)
	if err == nil {
		existingQty = existing.Quantity
	} else if !errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, err
	}

	newQty := existingQty + in.Quantity
	if newQty > p.Stock {
		return CartResponse{}, &apperr.InsufficientStockError{ProductID: in.ProductID}
	}

	// Upsert（同一商品は加算）
	if err := u.cartItemRepo.UpsertByCartAndProduct(ctx, cart.ID, in.ProductID, in.Quantity); err != nil {
		return CartResponse{}, err
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// UpdateItem は数量の置き換え（加算ではない）。
// qtyが0以下なら行の削除として扱う。対象行が無ければ何もしない。
func (u *CartUsecase) UpdateItem(ctx context.Context, userID int64, productID int64, qty int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, apperr.ErrUnauthorized
	}
	if productID <= 0 {
		return CartResponse{}, apperr.NewInvalidInput("invalid product_id")
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}

	if qty <= 0 {
		// 0以下は削除
		if err := u.cartItemRepo.DeleteByCartAndProduct(ctx, cart.ID, productID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, err
		}
		return u.buildCartResponse(ctx, cart.ID)
	}

	p, err := u.findSellableProduct(ctx, productID)
	if err != nil {
		return CartResponse{}, err
	}
	if qty > p.Stock {
		return CartResponse{}, &apperr.InsufficientStockError{ProductID: productID}
	}

	if err := u.cartItemRepo.UpdateQuantityByProduct(ctx, cart.ID, productID, qty); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, err
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// RemoveItem は行の削除。無ければ何もしない。
func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, apperr.ErrUnauthorized
	}
	if productID <= 0 {
		return CartResponse{}, apperr.NewInvalidInput("invalid product_id")
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}

	if err := u.cartItemRepo.DeleteByCartAndProduct(ctx, cart.ID, productID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, err
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// Clear は明細の全削除。カート自体は残る。
func (u *CartUsecase) Clear(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, apperr.ErrUnauthorized
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}

	if err := u.cartRepo.Clear(ctx, cart.ID); err != nil {
		return CartResponse{}, err
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// 非公開・存在しない商品はNotFound扱い
func (u *CartUsecase) findSellableProduct(ctx context.Context, productID int64) (model.Product, error) {
	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, &apperr.NotFoundError{Entity: "product", ID: productID}
	}
	if err != nil {
		return model.Product{}, err
	}
	if !p.IsActive {
		return model.Product{}, &apperr.NotFoundError{Entity: "product", ID: productID}
	}
	return p, nil
}

// cartIDの明細をまとめてCartResponseを作る。
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, err
	}

	respItems := make([]CartItemResponse, 0, len(items))
	var total int64 = 0

	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err != nil {
			continue
		}
		if !p.IsActive {
			continue
		}

		subtotal := p.Price * it.Quantity
		respItems = append(respItems, CartItemResponse{
			ProductID: it.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
			Subtotal:  subtotal,
		})

		total += subtotal
	}

	return CartResponse{Items: respItems, Total: total}, nil
}
