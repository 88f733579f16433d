package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/ndanilin/virtnum/internal/domain"
	"github.com/ndanilin/virtnum/internal/service"
)

// UserServicer интерфейс исключительно для моков.
type UserServicer interface {
	Register(ctx context.Context, args service.RegisterUserArgs) (*domain.User, string, error)
	Login(ctx context.Context, args service.LoginUserArgs) (*domain.User, string, error)
}

type OrderServicer interface {
	RequestNumber(ctx context.Context, userID int64, country, pid string) (*domain.Order, error)
	PollAndSettle(ctx context.Context, userID int64, phoneNumber, pid string) (*service.PollResult, error)
	Blacklist(ctx context.Context, userID int64, phoneNumber, pid string) error
	GetByUserID(ctx context.Context, userID int64) ([]domain.Order, error)
	Countries(ctx context.Context, pid string) (json.RawMessage, error)
}

type BalanceServicer interface {
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	Credit(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)
	AdminCredit(
		ctx context.Context,
		adminKey string,
		targetUserID int64,
		amount decimal.Decimal,
	) (decimal.Decimal, error)
}
