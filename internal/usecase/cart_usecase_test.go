package usecase

import (
	"context"
	"testing"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/apperr"
	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"
	repo "github.com/Coder20131462/Ecommerce-App/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCartUsecaseForTest() (*CartUsecase, *CartRepoMock, *CartItemRepoMock, *ProductRepoMock) {
	cartRepo := new(CartRepoMock)
	itemRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	return NewCartUsecase(cartRepo, itemRepo, productRepo), cartRepo, itemRepo, productRepo
}

func TestCartUsecase_GetCart_CreatesEmptyCart(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, _ := newCartUsecaseForTest()

	cartRepo.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{}, nil)

	out, err := uc.GetCart(ctx, 1)
	assert.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, int64(0), out.Total)
}

func TestCartUsecase_AddItem_NewLine(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, productRepo := newCartUsecaseForTest()

	cartRepo.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	productRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "Mug", Price: 1200, Stock: 4, IsActive: true}, nil)
	itemRepo.On("FindByCartAndProduct", mock.Anything, int64(10), int64(5)).Return(model.CartItem{}, repo.ErrNotFound)
	itemRepo.On("UpsertByCartAndProduct", mock.Anything, int64(10), int64(5), int64(2)).Return(nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{
		{CartID: 10, ProductID: 5, Quantity: 2},
	}, nil)

	out, err := uc.AddItem(ctx, 1, AddCartInput{ProductID: 5, Quantity: 2})
	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(2400), out.Total)
	itemRepo.AssertExpectations(t)
}

// 既存3個＋追加2個＝5個は在庫4を超えるので失敗し、カートは3個のまま。
func TestCartUsecase_AddItem_SumExceedsStock(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, productRepo := newCartUsecaseForTest()

	cartRepo.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	productRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Price: 1200, Stock: 4, IsActive: true}, nil)
	itemRepo.On("FindByCartAndProduct", mock.Anything, int64(10), int64(5)).Return(model.CartItem{CartID: 10, ProductID: 5, Quantity: 3}, nil)

	_, err := uc.AddItem(ctx, 1, AddCartInput{ProductID: 5, Quantity: 2})

	var insufficient *apperr.InsufficientStockError
	assert.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(5), insufficient.ProductID)
	//カートを変更するメソッドは呼ばれていない
	itemRepo.AssertNotCalled(t, "UpsertByCartAndProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_AddItem_InactiveProductIsNotFound(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, _, productRepo := newCartUsecaseForTest()

	cartRepo.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	productRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, IsActive: false}, nil)

	_, err := uc.AddItem(ctx, 1, AddCartInput{ProductID: 5, Quantity: 1})

	var notFound *apperr.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCartUsecase_AddItem_InvalidQuantity(t *testing.T) {
	uc, _, _, _ := newCartUsecaseForTest()

	_, err := uc.AddItem(context.Background(), 1, AddCartInput{ProductID: 5, Quantity: 0})

	var invalid *apperr.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

// 数量の置き換えは加算ではない：在庫4で qty=4 はそのまま通る。
func TestCartUsecase_UpdateItem_ReplacesQuantity(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, productRepo := newCartUsecaseForTest()

	cartRepo.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	productRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Price: 500, Stock: 4, IsActive: true}, nil)
	itemRepo.On("UpdateQuantityByProduct", mock.Anything, int64(10), int64(5), int64(4)).Return(nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{
		{CartID: 10, ProductID: 5, Quantity: 4},
	}, nil)

	out, err := uc.UpdateItem(ctx, 1, 5, 4)
	assert.NoError(t, err)
	assert.Equal(t, int64(2000), out.Total)
}

func TestCartUsecase_UpdateItem_ZeroQuantityDeletesLine(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, _ := newCartUsecaseForTest()

	cartRepo.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	itemRepo.On("DeleteByCartAndProduct", mock.Anything, int64(10), int64(5)).Return(nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{}, nil)

	out, err := uc.UpdateItem(ctx, 1, 5, 0)
	assert.NoError(t, err)
	assert.Empty(t, out.Items)
	itemRepo.AssertCalled(t, "DeleteByCartAndProduct", mock.Anything, int64(10), int64(5))
}

// 対象行が無い削除はno-op成功。
func TestCartUsecase_RemoveItem_MissingLineIsNoop(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, _ := newCartUsecaseForTest()

	cartRepo.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	itemRepo.On("DeleteByCartAndProduct", mock.Anything, int64(10), int64(9)).Return(repo.ErrNotFound)
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{}, nil)

	_, err := uc.RemoveItem(ctx, 1, 9)
	assert.NoError(t, err)
}

func TestCartUsecase_Clear_KeepsCart(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, _ := newCartUsecaseForTest()

	cartRepo.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	cartRepo.On("Clear", mock.Anything, int64(10)).Return(nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{}, nil)

	out, err := uc.Clear(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), out.Total)
	cartRepo.AssertCalled(t, "Clear", mock.Anything, int64(10))
}

// 小計は現在価格から計算される（スナップショットは持たない）。
func TestCartUsecase_GetCart_UsesCurrentPrices(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, productRepo := newCartUsecaseForTest()

	cartRepo.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{
		{CartID: 10, ProductID: 5, Quantity: 2},
		{CartID: 10, ProductID: 6, Quantity: 1},
	}, nil)
	productRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "Mug", Price: 1500, Stock: 4, IsActive: true}, nil)
	productRepo.On("FindByID", mock.Anything, int64(6)).Return(model.Product{ID: 6, Name: "Pen", Price: 300, Stock: 9, IsActive: true}, nil)

	out, err := uc.GetCart(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(3300), out.Total)
	assert.Equal(t, int64(3000), out.Items[0].Subtotal)
}
