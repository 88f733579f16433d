package repoargs

import (
	"github.com/ndanilin/virtnum/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateOrder struct {
	UserID      int64
	PhoneNumber string
	PID         string
	Country     string
	Cost        decimal.Decimal
}

type PendingOrderKey struct {
	UserID      int64
	PhoneNumber string
	PID         string
}

// TransitionOrder описывает compare-and-swap перевод заказа из статуса FromStatus в ToStatus.
// CodeReceived записывается только если указатель не nil.
type TransitionOrder struct {
	OrderID      int64
	FromStatus   domain.OrderStatusType
	ToStatus     domain.OrderStatusType
	CodeReceived *string
}
