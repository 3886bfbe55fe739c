package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/apperr"
	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"
	repo "github.com/Coder20131462/Ecommerce-App/internal/repository"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, tx repo.TransactionManager) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo, tx: tx}
}

type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// 公開商品一覧
func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, apperr.NewInvalidInput("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, apperr.NewInvalidInput("invalid limit")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        in.Q,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, err
	}

	return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// 公開商品の詳細。非公開はNotFound扱い。
func (u *ProductUsecase) GetProductDetail(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, apperr.NewInvalidInput("invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, &apperr.NotFoundError{Entity: "product", ID: id}
	}
	if err != nil {
		return model.Product{}, err
	}
	if !p.IsActive {
		return model.Product{}, &apperr.NotFoundError{Entity: "product", ID: id}
	}
	return p, nil
}

type AdminCreateProductInput struct {
	Name        string
	Description string
	Price       int64
	Stock       int64
	IsActive    bool
}

// 管理者：商品作成
func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminCreateProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, apperr.ErrUnauthorized
	}
	if strings.TrimSpace(in.Name) == "" {
		return model.Product{}, apperr.NewInvalidInput("name is required")
	}
	if in.Price < 0 || in.Stock < 0 {
		return model.Product{}, apperr.NewInvalidInput("price and stock must be non-negative")
	}

	return u.productRepo.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    in.IsActive,
	})
}

type AdminUpdateProductInput struct {
	Name        string
	Description string
	Price       int64
	IsActive    bool
}

// 管理者：商品更新（在庫はSetStockが担当）
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminUpdateProductInput) error {
	if adminUserID <= 0 {
		return apperr.ErrUnauthorized
	}
	if productID <= 0 {
		return apperr.NewInvalidInput("invalid id")
	}
	if strings.TrimSpace(in.Name) == "" {
		return apperr.NewInvalidInput("name is required")
	}
	if in.Price < 0 {
		return apperr.NewInvalidInput("price must be non-negative")
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:          productID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		IsActive:    in.IsActive,
	})
	if errors.Is(err, repo.ErrNotFound) {
		return &apperr.NotFoundError{Entity: "product", ID: productID}
	}
	return err
}

type AdminSetStockInput struct {
	NewStock int64
	Reason   string
}

// 管理者：在庫の現在値を設定。調整履歴と監査ログを同じトランザクションで残す。
func (u *ProductUsecase) AdminSetStock(ctx context.Context, adminUserID int64, productID int64, in AdminSetStockInput) error {
	if adminUserID <= 0 {
		return apperr.ErrUnauthorized
	}
	if productID <= 0 {
		return apperr.NewInvalidInput("invalid id")
	}
	if in.NewStock < 0 {
		return apperr.NewInvalidInput("stock must be non-negative")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return apperr.NewInvalidInput("reason is required")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return &apperr.NotFoundError{Entity: "product", ID: productID}
		}
		if err != nil {
			return err
		}

		if err := r.Inventory().SetStock(ctx, productID, in.NewStock); err != nil {
			return err
		}

		now := time.Now()
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: adminUserID,
			Delta:       in.NewStock - p.Stock,
			Reason:      reason,
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		before, _ := json.Marshal(map[string]int64{"stock": p.Stock})
		after, _ := json.Marshal(map[string]int64{"stock": in.NewStock})
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   string(before),
			AfterJSON:    string(after),
			CreatedAt:    now,
		})
	})
}

// 管理者：商品の取り下げ（ソフトデリート）。注文スナップショットは影響を受けない。
func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return apperr.ErrUnauthorized
	}
	if productID <= 0 {
		return apperr.NewInvalidInput("invalid id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return &apperr.NotFoundError{Entity: "product", ID: productID}
	}
	return err
}
