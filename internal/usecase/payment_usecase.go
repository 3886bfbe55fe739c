package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/apperr"
	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"
	"github.com/Coder20131462/Ecommerce-App/internal/metrics"
	repo "github.com/Coder20131462/Ecommerce-App/internal/repository"

	"go.uber.org/zap"
)

// プロバイダ側インテントの参照。statusはプロバイダの語彙のまま。
type PaymentIntentRef struct {
	ID           string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Status       string `json:"status"`
}

// 署名検証済みペイロードから起こしたイベント。
// SDKのオブジェクト階層ではなく、必要な2フィールドだけのタグ付き表現にする。
type ProviderEvent struct {
	Type     string
	IntentID string
}

// Webhookペイロードの署名検証。検証済みのときだけイベントを返す。
type WebhookVerifier interface {
	VerifyEvent(payload []byte, signatureHeader string) (ProviderEvent, error)
}

// 決済プロバイダとの契約。呼び出しは呼び出し元のタイムアウトで打ち切られる。
// 失敗はそのままProviderErrorで返し、内部でリトライしない。
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, description string, metadata map[string]string) (PaymentIntentRef, error)
	RetrieveIntent(ctx context.Context, id string) (PaymentIntentRef, error)
	ConfirmIntent(ctx context.Context, id string) (PaymentIntentRef, error)
}

// PaymentUsecase は注文とプロバイダのインテントライフサイクルの突き合わせ役。
// 注文ステータスを変えるのは ApplyProviderEvent だけ。
type PaymentUsecase struct {
	orders   repo.OrderRepository
	gateway  PaymentGateway
	currency string
	logger   *zap.Logger
}

func NewPaymentUsecase(orders repo.OrderRepository, gateway PaymentGateway, currency string, logger *zap.Logger) *PaymentUsecase {
	return &PaymentUsecase{
		orders:   orders,
		gateway:  gateway,
		currency: currency,
		logger:   logger,
	}
}

// InitiatePayment は注文の合計額でインテントを作り、参照を注文に保存する。
// paymentStatusは"created"になるが、注文ステータスはPENDINGのまま動かない。
func (u *PaymentUsecase) InitiatePayment(ctx context.Context, userID int64, orderID int64) (PaymentIntentRef, error) {
	if userID <= 0 {
		return PaymentIntentRef{}, apperr.ErrUnauthorized
	}
	if orderID <= 0 {
		return PaymentIntentRef{}, apperr.NewInvalidInput("invalid order id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return PaymentIntentRef{}, &apperr.NotFoundError{Entity: "order", ID: orderID}
	}
	if err != nil {
		return PaymentIntentRef{}, err
	}
	if o.UserID != userID {
		//他人の注文は「存在しない扱い」にする
		return PaymentIntentRef{}, &apperr.NotFoundError{Entity: "order", ID: orderID}
	}

	amount, err := toMinorUnits(o.TotalAmount, u.currency)
	if err != nil {
		return PaymentIntentRef{}, err
	}

	ref, err := u.gateway.CreateIntent(ctx, amount, u.currency,
		fmt.Sprintf("Order #%d", o.ID),
		map[string]string{
			"order_id": strconv.FormatInt(o.ID, 10),
			"user_id":  strconv.FormatInt(o.UserID, 10),
		})
	if err != nil {
		return PaymentIntentRef{}, err
	}

	if err := u.orders.SetPaymentIntent(ctx, o.ID, ref.ID, "created"); err != nil {
		return PaymentIntentRef{}, err
	}

	metrics.PaymentIntentsCreated.Inc()
	u.logger.Info("payment intent created",
		zap.Int64("order_id", o.ID),
		zap.String("payment_intent_id", ref.ID))

	return ref, nil
}

// Confirm はクライアント主導の同期確認。プロバイダの結果を返すだけで、
// 注文ステータスはここでは変えない（変更はイベント経路に一本化する）。
func (u *PaymentUsecase) Confirm(ctx context.Context, paymentIntentID string) (PaymentIntentRef, error) {
	if paymentIntentID == "" {
		return PaymentIntentRef{}, apperr.NewInvalidInput("payment_intent_id is required")
	}
	return u.gateway.ConfirmIntent(ctx, paymentIntentID)
}

// Retrieve はインテントの現在状態をプロバイダから取得する。
func (u *PaymentUsecase) Retrieve(ctx context.Context, paymentIntentID string) (PaymentIntentRef, error) {
	if paymentIntentID == "" {
		return PaymentIntentRef{}, apperr.NewInvalidInput("payment_intent_id is required")
	}
	return u.gateway.RetrieveIntent(ctx, paymentIntentID)
}

// ApplyProviderEvent は注文ステータスが変わる唯一の場所。
//   - succeeded: paymentStatus=succeeded, PENDING -> CONFIRMED
//   - failed:    paymentStatus=failed,    PENDING -> CANCELLED
//   - 未知のイベント種別はログだけ残して無視する（前方互換のno-op）
//   - 未知のintent idもno-op。プロバイダにエラーは返さない。
//
// 同じイベントの再配達は安全：既に目標状態なら何もしない。
func (u *PaymentUsecase) ApplyProviderEvent(ctx context.Context, eventType string, paymentIntentID string) error {
	var paymentStatus string
	var target model.OrderStatus

	switch eventType {
	case "payment_intent.succeeded", "succeeded":
		paymentStatus = "succeeded"
		target = model.OrderStatusConfirmed
	case "payment_intent.payment_failed", "failed":
		paymentStatus = "failed"
		target = model.OrderStatusCancelled
	default:
		u.logger.Info("unhandled provider event type",
			zap.String("event_type", eventType))
		metrics.PaymentEvents.WithLabelValues(eventType, "ignored").Inc()
		return nil
	}

	if paymentIntentID == "" {
		u.logger.Info("provider event without intent id",
			zap.String("event_type", eventType))
		metrics.PaymentEvents.WithLabelValues(eventType, "unknown_intent").Inc()
		return nil
	}

	o, found, err := u.orders.FindByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	if !found {
		// 注文が消えている・他所のインテント等。正常系として飲み込む。
		u.logger.Info("provider event for unknown intent",
			zap.String("event_type", eventType),
			zap.String("payment_intent_id", paymentIntentID))
		metrics.PaymentEvents.WithLabelValues(eventType, "unknown_intent").Inc()
		return nil
	}

	if o.Status == target {
		// 再配達。終了状態は同じなのでno-op。
		metrics.PaymentEvents.WithLabelValues(eventType, "replayed").Inc()
		return nil
	}

	if !o.Status.CanTransitionTo(target) {
		// 終端状態に別の結果が届いた。順序化はプロバイダ側に保証がないので
		// 警告だけ残して飲み込む。
		u.logger.Warn("provider event conflicts with terminal order status",
			zap.Int64("order_id", o.ID),
			zap.String("order_status", string(o.Status)),
			zap.String("event_type", eventType))
		metrics.PaymentEvents.WithLabelValues(eventType, "ignored").Inc()
		return nil
	}

	applied, err := u.orders.UpdatePaymentState(ctx, o.ID, paymentStatus, target)
	if err != nil {
		return err
	}
	if !applied {
		// 読みと書きの間に別の配達が先に終端化した。上の判定は信用せず、
		// UPDATE側のPENDINGガードを最終判定にして飲み込む。
		u.logger.Warn("provider event lost race to concurrent delivery",
			zap.Int64("order_id", o.ID),
			zap.String("event_type", eventType))
		metrics.PaymentEvents.WithLabelValues(eventType, "ignored").Inc()
		return nil
	}

	metrics.PaymentEvents.WithLabelValues(eventType, "applied").Inc()
	u.logger.Info("order status updated from provider event",
		zap.Int64("order_id", o.ID),
		zap.String("event_type", eventType),
		zap.String("new_status", string(target)))
	return nil
}
