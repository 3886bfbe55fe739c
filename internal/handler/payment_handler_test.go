package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/apperr"
	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"
	repo "github.com/Coder20131462/Ecommerce-App/internal/repository"
	"github.com/Coder20131462/Ecommerce-App/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// Webhook経路で使う分だけ実装した注文リポジトリ。
type ordersStub struct {
	repo.OrderRepository

	byIntent map[string]model.Order
	updated  []model.OrderStatus
}

func (s *ordersStub) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (model.Order, bool, error) {
	o, ok := s.byIntent[paymentIntentID]
	return o, ok, nil
}

func (s *ordersStub) UpdatePaymentState(ctx context.Context, orderID int64, paymentStatus string, status model.OrderStatus) (bool, error) {
	s.updated = append(s.updated, status)
	return true, nil
}

// 固定の検証結果を返すverifier。
type verifierStub struct {
	event usecase.ProviderEvent
	err   error
}

func (v *verifierStub) VerifyEvent(payload []byte, signatureHeader string) (usecase.ProviderEvent, error) {
	return v.event, v.err
}

func postWebhook(h *PaymentHandler, body string, signature string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = h.webhook(c)
	return rec
}

func TestPaymentHandler_Webhook_InvalidSignature(t *testing.T) {
	orders := &ordersStub{byIntent: map[string]model.Order{}}
	uc := usecase.NewPaymentUsecase(orders, nil, "usd", zap.NewNop())
	h := NewPaymentHandler(uc, &verifierStub{err: apperr.ErrInvalidSignature})

	rec := postWebhook(h, `{"id":"evt_1"}`, "bad")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, orders.updated)
}

func TestPaymentHandler_Webhook_SucceededEvent(t *testing.T) {
	orders := &ordersStub{byIntent: map[string]model.Order{
		"pi_1": {ID: 100, Status: model.OrderStatusPending},
	}}
	uc := usecase.NewPaymentUsecase(orders, nil, "usd", zap.NewNop())
	h := NewPaymentHandler(uc, &verifierStub{
		event: usecase.ProviderEvent{Type: "payment_intent.succeeded", IntentID: "pi_1"},
	})

	rec := postWebhook(h, `{"id":"evt_1"}`, "sig")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []model.OrderStatus{model.OrderStatusConfirmed}, orders.updated)
}

// 未知のイベント種別でも200で受ける（プロバイダの再送を止める）。
func TestPaymentHandler_Webhook_UnknownEventTypeIsAccepted(t *testing.T) {
	orders := &ordersStub{byIntent: map[string]model.Order{}}
	uc := usecase.NewPaymentUsecase(orders, nil, "usd", zap.NewNop())
	h := NewPaymentHandler(uc, &verifierStub{
		event: usecase.ProviderEvent{Type: "charge.refunded", IntentID: "pi_1"},
	})

	rec := postWebhook(h, `{"id":"evt_2"}`, "sig")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, orders.updated)
}
