package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// PENDING -> CONFIRMED（決済成功） / PENDING -> CANCELLED（決済失敗）。
// CONFIRMED / CANCELLED は終端。
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderStatusPending &&
		(next == OrderStatusConfirmed || next == OrderStatusCancelled)
}

// 注文はカートから一度だけ作る不変スナップショット。
// TotalAmount は作成時に確定し、以後再計算しない。
// PaymentIntentID は決済インテント作成まで未設定。
// PaymentStatus はプロバイダ側ステータスの写し（自由テキスト）。
type Order struct {
	ID              int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64       `gorm:"not null;index" json:"user_id"`
	Status          OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalAmount     int64       `gorm:"not null" json:"total_amount"`
	ShippingAddress string      `gorm:"type:varchar(500);not null" json:"shipping_address"`
	BillingAddress  string      `gorm:"type:varchar(500);not null" json:"billing_address"`
	PaymentIntentID *string     `gorm:"type:varchar(255);uniqueIndex" json:"payment_intent_id"`
	PaymentStatus   string      `gorm:"type:varchar(50)" json:"payment_status"`
	IdempotencyKey  string      `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	CreatedAt       time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
