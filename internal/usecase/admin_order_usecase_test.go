package usecase

import (
	"context"
	"testing"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/apperr"
	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newAdminOrderUsecaseForTest() (*AdminOrderUsecase, *txReposStub) {
	repos := newTxReposStub()
	return NewAdminOrderUsecase(&txManagerStub{repos: repos}), repos
}

func TestAdminOrderUsecase_UpdateStatus_PendingToConfirmed(t *testing.T) {
	ctx := context.Background()
	uc, r := newAdminOrderUsecaseForTest()

	r.orders.On("FindByID", mock.Anything, int64(100)).Return(model.Order{ID: 100, Status: model.OrderStatusPending}, nil)
	r.orders.On("UpdateStatus", mock.Anything, int64(100), model.OrderStatusConfirmed).Return(nil)
	r.auditLogs.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := uc.UpdateStatus(ctx, 9, 100, AdminUpdateOrderStatusInput{Status: "CONFIRMED"})
	assert.NoError(t, err)
	r.auditLogs.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

// 同じ状態への更新は冪等に成功し、書き込みは起きない。
func TestAdminOrderUsecase_UpdateStatus_SameStatusIsIdempotent(t *testing.T) {
	ctx := context.Background()
	uc, r := newAdminOrderUsecaseForTest()

	r.orders.On("FindByID", mock.Anything, int64(100)).Return(model.Order{ID: 100, Status: model.OrderStatusConfirmed}, nil)

	err := uc.UpdateStatus(ctx, 9, 100, AdminUpdateOrderStatusInput{Status: "CONFIRMED"})
	assert.NoError(t, err)
	r.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

// 終端状態からは動かせない。
func TestAdminOrderUsecase_UpdateStatus_TerminalIsFrozen(t *testing.T) {
	ctx := context.Background()
	uc, r := newAdminOrderUsecaseForTest()

	r.orders.On("FindByID", mock.Anything, int64(100)).Return(model.Order{ID: 100, Status: model.OrderStatusCancelled}, nil)

	err := uc.UpdateStatus(ctx, 9, 100, AdminUpdateOrderStatusInput{Status: "CONFIRMED"})

	var invalid *apperr.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestAdminOrderUsecase_UpdateStatus_RejectsUnknownStatus(t *testing.T) {
	uc, _ := newAdminOrderUsecaseForTest()

	err := uc.UpdateStatus(context.Background(), 9, 100, AdminUpdateOrderStatusInput{Status: "SHIPPED"})

	var invalid *apperr.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}
