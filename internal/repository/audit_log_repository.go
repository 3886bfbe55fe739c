package repository

import (
	"context"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"
)

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
}
