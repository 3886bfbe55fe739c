package apperr

import (
	"errors"
	"fmt"
)

// 業務エラーの型一覧。usecaseはこのパッケージの型だけを返し、
// HTTPステータスへの変換はhandler側の1箇所で行う。

var (
	// カートが空の状態で注文を作ろうとした
	ErrEmptyCart = errors.New("cart is empty")

	// Webhook署名の検証に失敗した
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// 認証済みユーザーが特定できない
	ErrUnauthorized = errors.New("unauthorized")

	// メールまたはパスワードが違う
	ErrInvalidCredentials = errors.New("invalid credentials")

	// emailが既に使用済み
	ErrEmailAlreadyUsed = errors.New("email already used")
)

// エンティティが見つからない（user / product / order / cart）
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// 在庫不足（予約・確保の失敗）
type InsufficientStockError struct {
	ProductID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

// 注文作成時の再確認で商品の在庫または公開状態が要件を満たさない
type ProductUnavailableError struct {
	ProductID int64
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %d is not available in required quantity", e.ProductID)
}

// 注文金額をプロバイダの最小通貨単位の整数で表せない
type AmountConversionError struct {
	Amount   int64
	Currency string
}

func (e *AmountConversionError) Error() string {
	return fmt.Sprintf("amount %d cannot be represented in minor units of %s", e.Amount, e.Currency)
}

// 決済プロバイダ呼び出しの失敗。内部でリトライせずそのまま呼び出し元へ返す。
type ProviderError struct {
	Detail string
	Err    error
}

func (e *ProviderError) Error() string {
	return "payment provider error: " + e.Detail
}

func (e *ProviderError) Unwrap() error { return e.Err }

// リクエスト入力の不備（非正数量など）
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInput(format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
