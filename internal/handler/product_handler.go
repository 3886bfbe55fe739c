package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/apperr"
	"github.com/Coder20131462/Ecommerce-App/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// ドメインエラー→HTTPステータスの変換はここに集約する。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	var notFound *apperr.NotFoundError
	if errors.As(err, &notFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: notFound.Error()})
	}

	var insufficient *apperr.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: insufficient.Error()})
	}

	var unavailable *apperr.ProductUnavailableError
	if errors.As(err, &unavailable) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: unavailable.Error()})
	}

	var badAmount *apperr.AmountConversionError
	if errors.As(err, &badAmount) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: badAmount.Error()})
	}

	var invalid *apperr.InvalidInputError
	if errors.As(err, &invalid) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: invalid.Error()})
	}

	var provider *apperr.ProviderError
	if errors.As(err, &provider) {
		//プロバイダ側の拒否はそのまま400で返す
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: provider.Error()})
	}

	switch {
	case errors.Is(err, apperr.ErrEmptyCart):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cart is empty"})
	case errors.Is(err, apperr.ErrInvalidSignature):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid signature"})
	case errors.Is(err, apperr.ErrEmailAlreadyUsed):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "email already used"})
	case errors.Is(err, apperr.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// /products の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
}

func (h *ProductHandler) list(c echo.Context) error {
	in := usecase.ListProductsInput{
		Page:  1,
		Limit: 20,
		Q:     c.QueryParam("q"),
		Sort:  c.QueryParam("sort"),
	}

	if raw := c.QueryParam("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		in.Page = v
	}
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		in.Limit = v
	}
	if raw := c.QueryParam("min_price"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid min_price"})
		}
		in.MinPrice = &v
	}
	if raw := c.QueryParam("max_price"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid max_price"})
		}
		in.MaxPrice = &v
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}
