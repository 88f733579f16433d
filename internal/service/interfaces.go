package service

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/ndanilin/virtnum/internal/domain"
	"github.com/ndanilin/virtnum/internal/repository/repoargs"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePassword(password string, hashedPassword string) bool
}

type UserRepository interface {
	CreateUser(ctx context.Context, args repoargs.CreateUser) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	FindUserByID(ctx context.Context, id int64) (*domain.User, error)
	AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error)
	FindPending(ctx context.Context, key repoargs.PendingOrderKey) (*domain.Order, error)
	Transition(ctx context.Context, args repoargs.TransitionOrder) (*domain.Order, error)
	GetByUserID(ctx context.Context, userID int64) ([]domain.Order, error)
}

// VendorGateway шлюз вендора аренды номеров. Реализация не ретраит и не скрывает сбои:
// политика повторов целиком на вызывающей стороне.
type VendorGateway interface {
	LeaseNumber(ctx context.Context, country, pid string) (string, error)
	PollCode(ctx context.Context, phoneNumber, pid string) (string, bool, error)
	Blacklist(ctx context.Context, phoneNumber, pid string) error
	Countries(ctx context.Context, pid string) (json.RawMessage, error)
}
