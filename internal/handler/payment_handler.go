package handler

import (
	"io"
	"net/http"

	"github.com/Coder20131462/Ecommerce-App/internal/config"
	"github.com/Coder20131462/Ecommerce-App/internal/middleware"
	"github.com/Coder20131462/Ecommerce-App/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /paymentsのHTTP
type PaymentHandler struct {
	uc       *usecase.PaymentUsecase
	verifier usecase.WebhookVerifier
}

// DI
func NewPaymentHandler(uc *usecase.PaymentUsecase, verifier usecase.WebhookVerifier) *PaymentHandler {
	return &PaymentHandler{uc: uc, verifier: verifier}
}

type InitiatePaymentRequest struct {
	OrderID int64 `json:"order_id"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// /payments 配下を登録。webhookだけは認証なし（署名検証で守る）。
func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.POST("/payments/webhook", h.webhook)

	g := e.Group("/payments")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("/intent", h.initiate)
	g.POST("/confirm", h.confirm)
	g.GET("/intent/:id", h.retrieve)
}

func (h *PaymentHandler) initiate(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.InitiatePayment(c.Request().Context(), userID, req.OrderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) confirm(c echo.Context) error {
	var req ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.PaymentIntentID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "payment_intent_id is required"})
	}

	out, err := h.uc.Confirm(c.Request().Context(), req.PaymentIntentID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) retrieve(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Retrieve(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) webhook(c echo.Context) error {
	//署名検証は生のボディに対して行う
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//検証が通るまでは注文の照合すらしない
	event, err := h.verifier.VerifyEvent(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.ApplyProviderEvent(c.Request().Context(), event.Type, event.IntentID); err != nil {
		return writeError(c, err)
	}

	//再送ストームを避けるため、処理済み・無視も含めて200で受ける
	return c.JSON(http.StatusOK, map[string]string{"received": "true"})
}
