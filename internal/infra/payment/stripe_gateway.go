package payment

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/apperr"
	"github.com/Coder20131462/Ecommerce-App/internal/usecase"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeGateway はusecase.PaymentGatewayのStripe実装。
// 失敗はProviderErrorに包んでそのまま返す。リトライはしない。
type StripeGateway struct {
	webhookSecret string
}

func NewStripeGateway(secretKey string, webhookSecret string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, description string, metadata map[string]string) (usecase.PaymentIntentRef, error) {
	params := &stripe.PaymentIntentParams{
		Params:      stripe.Params{Context: ctx},
		Amount:      stripe.Int64(amountMinorUnits),
		Currency:    stripe.String(currency),
		Description: stripe.String(description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return usecase.PaymentIntentRef{}, wrapStripeErr(err)
	}
	return toIntentRef(pi), nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, id string) (usecase.PaymentIntentRef, error) {
	pi, err := paymentintent.Get(id, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return usecase.PaymentIntentRef{}, wrapStripeErr(err)
	}
	return toIntentRef(pi), nil
}

func (g *StripeGateway) ConfirmIntent(ctx context.Context, id string) (usecase.PaymentIntentRef, error) {
	pi, err := paymentintent.Confirm(id, &stripe.PaymentIntentConfirmParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return usecase.PaymentIntentRef{}, wrapStripeErr(err)
	}
	return toIntentRef(pi), nil
}

// VerifyEvent は生のペイロードと署名ヘッダを共有シークレットで検証し、
// SDKのオブジェクト階層ではなくタグ付きのProviderEventに落とす。
// 署名が合わなければ状態参照の前にInvalidSignatureで弾く。
func (g *StripeGateway) VerifyEvent(payload []byte, signatureHeader string) (usecase.ProviderEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
	if err != nil {
		return usecase.ProviderEvent{}, apperr.ErrInvalidSignature
	}

	// data.objectからintent idだけ取り出す。無ければ空のまま
	// （usecase側で未知intentのno-opに落ちる）。
	var obj struct {
		ID string `json:"id"`
	}
	if len(event.Data.Raw) > 0 {
		_ = json.Unmarshal(event.Data.Raw, &obj)
	}

	return usecase.ProviderEvent{
		Type:     string(event.Type),
		IntentID: obj.ID,
	}, nil
}

func toIntentRef(pi *stripe.PaymentIntent) usecase.PaymentIntentRef {
	return usecase.PaymentIntentRef{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}
}

func wrapStripeErr(err error) error {
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		return &apperr.ProviderError{Detail: sErr.Msg, Err: err}
	}
	return &apperr.ProviderError{Detail: err.Error(), Err: err}
}
